package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/clauselens/internal/pipeline"
	"github.com/ppiankov/clauselens/internal/score"
)

var (
	diffJSON    string
	diffMD      string
	diffNoColor bool
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff <previous.json> <current.json>",
	Short: "Compare two analyses of a contract",
	Long: `Diff compares two saved analyses, for example before and after a revision.
Both files may be bare analysis JSON or full reports. Clauses are paired by id
and the output lists the risk score change, added and removed clauses, and
clauses whose risk level moved.

Example:
  clauselens diff v1.json v2.json
  clauselens diff v1.json v2.json --md diff.md --json diff.json`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().StringVar(&diffJSON, "json", "", "output JSON path (- for stdout)")
	diffCmd.Flags().StringVar(&diffMD, "md", "", "output Markdown path (- for stdout)")
	diffCmd.Flags().BoolVar(&diffNoColor, "no-color", false, "disable colored output")
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	useColor := cfg.Output.Color && !diffNoColor && os.Getenv("NO_COLOR") == ""

	d, warnings, err := diffFiles(args[0], args[1])
	if err != nil {
		return err
	}

	r := pipeline.NewRenderer(cfg.Output.IncludeFooter, useColor)
	if err := r.RenderDiff(d, args[0], args[1], diffJSON, diffMD); err != nil {
		return err
	}

	w := summaryWriter(diffJSON, diffMD)
	if cfg.Output.Verbose || verbose {
		for _, warning := range warnings {
			fmt.Fprintf(w, "Warning: %s\n", warning)
		}
	}
	r.RenderDiffSummary(w, d)
	return nil
}

// diffFiles reads two analyses and compares them. Schema warnings from
// either file are returned with the file name.
func diffFiles(previous, current string) (score.AnalysisDiff, []string, error) {
	prev, prevWarnings, err := readAnalysis(previous)
	if err != nil {
		return score.AnalysisDiff{}, nil, err
	}
	cur, curWarnings, err := readAnalysis(current)
	if err != nil {
		return score.AnalysisDiff{}, nil, err
	}

	var warnings []string
	for _, w := range prevWarnings {
		warnings = append(warnings, previous+": "+w)
	}
	for _, w := range curWarnings {
		warnings = append(warnings, current+": "+w)
	}
	return score.Diff(prev, cur), warnings, nil
}
