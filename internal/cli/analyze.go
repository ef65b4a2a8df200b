package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ppiankov/clauselens/internal/guard"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/pipeline"
)

// runFlags are shared by analyze, highlight and batch
type runFlags struct {
	contractType   string
	jurisdiction   string
	persona        string
	modelID        string
	provider       string
	allowSensitive bool
	noColor        bool
	noCache        bool
	noFooter       bool
	insecureTLS    bool
	timeout        time.Duration
}

func (f *runFlags) register(fs *pflag.FlagSet, timeout time.Duration) {
	fs.StringVar(&f.contractType, "type", "", "contract type (tos, nda, employment_offer, saas_agreement, lease, other)")
	fs.StringVar(&f.jurisdiction, "jurisdiction", "", "jurisdiction (us_general, ca, ny, other)")
	fs.StringVar(&f.persona, "persona", "", "reviewing party (founder, company, user, employee)")
	fs.StringVar(&f.modelID, "model", "", "model id (default: llm.model)")
	fs.StringVar(&f.provider, "provider", "", "LLM provider (openai, anthropic, gemini, ollama)")
	fs.BoolVar(&f.allowSensitive, "allow-sensitive", false, "analyze despite detected PII or profanity (adds a warning)")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the analysis cache")
	fs.BoolVar(&f.noFooter, "no-footer", false, "disable footer in Markdown reports")
	fs.BoolVar(&f.insecureTLS, "insecure", false, "skip TLS certificate verification when fetching URLs")
	fs.DurationVar(&f.timeout, "timeout", timeout, "overall timeout")
}

// config loads the merged configuration and applies the flags that were set
func (f *runFlags) config(fs *pflag.FlagSet) (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	if fs.Changed("provider") {
		cfg.LLM.Provider = f.provider
	}
	if fs.Changed("model") {
		cfg.LLM.Model = f.modelID
	}
	if f.noColor || os.Getenv("NO_COLOR") != "" {
		cfg.Output.Color = false
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if f.noFooter {
		cfg.Output.IncludeFooter = false
	}
	if f.insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	if f.allowSensitive {
		cfg.Guardrails.AllowSensitive = true
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
	return cfg, nil
}

// input builds the pipeline input template from the flags
func (f *runFlags) input() pipeline.Input {
	return pipeline.Input{
		ContractType:   model.ContractType(f.contractType),
		Jurisdiction:   model.Jurisdiction(f.jurisdiction),
		Persona:        model.Persona(f.persona),
		ModelID:        f.modelID,
		AllowSensitive: f.allowSensitive,
	}
}

var (
	analyzeFlags runFlags
	outJSON      string
	outYAML      string
	outMD        string
	subject      string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url|->",
	Short: "Analyze a contract and highlight the risky paragraphs",
	Long: `Analyze sends a contract to the configured LLM and then:
- Validates the structured analysis against the clause schema
- Fuzzy-matches each clause's evidence quotes to the document paragraphs
- Labels matched paragraphs HIGH RISK, CAUTION or OK
- Scores how well the analysis is grounded in the text

Sources may be plain text, HTML, PDF, an http(s) URL, or "-" for stdin.

Example:
  clauselens analyze terms.txt
  clauselens analyze https://example.com/terms --persona user --md report.md
  clauselens analyze offer.pdf --type employment_offer --persona employee --json report.json
  cat nda.txt | clauselens analyze - --provider anthropic`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeFlags.register(analyzeCmd.Flags(), 5*time.Minute)
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (- for stdout)")
	analyzeCmd.Flags().StringVar(&outYAML, "yaml", "", "output YAML path (- for stdout)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (- for stdout)")
	analyzeCmd.Flags().StringVar(&subject, "subject", "", "report subject (default: derived from the source)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := analyzeFlags.config(cmd.Flags())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeFlags.timeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", source)
		fmt.Fprintf(os.Stderr, "Provider: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	if !p.AnalysisEnabled() {
		return fmt.Errorf("no LLM provider available; set an API key or use 'clauselens highlight' with an existing analysis")
	}

	in := analyzeFlags.input()
	in.Source = source
	in.Subject = subject

	report, err := p.Run(ctx, in)
	if err != nil {
		var sErr *guard.SensitiveError
		if errors.As(err, &sErr) {
			return fmt.Errorf("%w (use --allow-sensitive to proceed)", err)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	return p.RenderReport(summaryWriter(outJSON, outYAML, outMD), report, outJSON, outYAML, outMD, cfg.Output.Verbose)
}

// summaryWriter moves the terminal summary to stderr when a report is
// written to stdout
func summaryWriter(paths ...string) io.Writer {
	for _, path := range paths {
		if path == "-" {
			return os.Stderr
		}
	}
	return os.Stdout
}
