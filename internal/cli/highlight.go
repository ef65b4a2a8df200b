package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/pipeline"
	"github.com/ppiankov/clauselens/internal/validate"
)

var (
	highlightFlags runFlags
	analysisPath   string
)

// highlightCmd represents the highlight command
var highlightCmd = &cobra.Command{
	Use:   "highlight <file|url|->",
	Short: "Highlight a contract with an existing analysis (no LLM call)",
	Long: `Highlight annotates a contract using a previously produced analysis JSON,
for example the "analysis" object of a report or a saved API response.
The analysis is validated leniently: missing fields get defaults and
violations are reported as warnings.

Example:
  clauselens highlight terms.txt --analysis analysis.json --md highlighted.md
  clauselens highlight https://example.com/terms --analysis analysis.json --json -`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

func init() {
	rootCmd.AddCommand(highlightCmd)

	highlightFlags.register(highlightCmd.Flags(), time.Minute)
	highlightCmd.Flags().StringVar(&analysisPath, "analysis", "", "analysis JSON file (required)")
	highlightCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (- for stdout)")
	highlightCmd.Flags().StringVar(&outYAML, "yaml", "", "output YAML path (- for stdout)")
	highlightCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (- for stdout)")
	_ = highlightCmd.MarkFlagRequired("analysis")
}

func runHighlight(cmd *cobra.Command, args []string) error {
	source := args[0]

	analysis, warnings, err := readAnalysis(analysisPath)
	if err != nil {
		return err
	}

	cfg, err := highlightFlags.config(cmd.Flags())
	if err != nil {
		return err
	}
	// Highlighting never calls a provider
	cfg.LLM.Provider = ""

	ctx, cancel := context.WithTimeout(cmd.Context(), highlightFlags.timeout)
	defer cancel()

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	report, err := p.HighlightSource(ctx, source, analysis)
	if err != nil {
		return fmt.Errorf("highlight failed: %w", err)
	}
	report.Warnings = append(report.Warnings, warnings...)

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Highlighted %d of %d paragraphs\n", report.Document.HighlightedParagraphs, report.Document.NonBlankParagraphs)
	}

	return p.RenderReport(summaryWriter(outJSON, outYAML, outMD), report, outJSON, outYAML, outMD, cfg.Output.Verbose)
}

// readAnalysis decodes an analysis file leniently. A full report is
// accepted too; its "analysis" object is used.
func readAnalysis(path string) (*model.AnalysisResult, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read analysis: %w", err)
	}

	v := validate.NewValidator()
	if embedded, ok := reportAnalysis(data); ok {
		data = embedded
	}

	analysis, warnings, err := v.Decode(data, false)
	if err != nil {
		return nil, nil, fmt.Errorf("decode analysis %s: %w", path, err)
	}
	return analysis, warnings, nil
}

// reportAnalysis extracts the "analysis" object from a report or an API
// response
func reportAnalysis(data []byte) ([]byte, bool) {
	var wrapper struct {
		Analysis json.RawMessage `json:"analysis"`
	}
	if err := json.Unmarshal([]byte(validate.ExtractJSON(string(data))), &wrapper); err != nil {
		return nil, false
	}
	if len(wrapper.Analysis) == 0 || wrapper.Analysis[0] != '{' {
		return nil, false
	}
	return wrapper.Analysis, true
}
