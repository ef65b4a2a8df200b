package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauselens/internal/pipeline"
	"github.com/ppiankov/clauselens/internal/worker"
)

var (
	batchFlags  runFlags
	concurrency int
	outputDir   string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple contracts from a file in parallel",
	Long: `Batch analyzes many contracts concurrently:
- Read sources from the input file (one path or URL per line, # comments)
- Analyze them with a bounded worker pool, throttled per host and provider
- Write a JSON and a Markdown report per contract

Example:
  clauselens batch contracts.txt
  clauselens batch contracts.txt --concurrency 8 --output-dir ./reports
  clauselens batch vendors.txt --type saas_agreement --persona company --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchFlags.register(batchCmd.Flags(), 30*time.Minute)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./clauselens-reports", "output directory for reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := batchFlags.config(cmd.Flags())
	if err != nil {
		return err
	}
	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchFlags.timeout)
	defer cancel()

	targets, err := worker.ReadTargetsFromFile(file)
	if err != nil {
		return fmt.Errorf("read targets: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Clauselens Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s (%d contracts)\n", file, len(targets))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchFlags.timeout)
	fmt.Fprintf(os.Stderr, "\n")

	if len(targets) == 0 {
		return fmt.Errorf("no contracts listed in %s", file)
	}

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	if !p.AnalysisEnabled() {
		return fmt.Errorf("no LLM provider available; set an API key for %s", cfg.LLM.Provider)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(p.ForBatch(batchFlags.input()), workers, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing with %d workers...\n\n", workers)
	results := processor.ProcessTargets(ctx, targets)

	renderer := p.Renderer()
	written := 0
	for _, result := range results {
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Target, result.Error)
			continue
		}

		base := fmt.Sprintf("%03d-%s", result.Index+1, sanitizeFilename(result.Report.Subject))
		jsonPath := filepath.Join(outputDir, base+".json")
		mdPath := filepath.Join(outputDir, base+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Target, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Target, err)
			continue
		}
		written++

		a := result.Report.Analysis.Overall
		fmt.Fprintf(os.Stderr, "✓ %s (risk: %s %d/100, grounding: %d/100, %s)\n",
			result.Report.Subject, a.RiskLevel, a.RiskScore, result.Report.Score.Index, result.Duration.Round(time.Millisecond))
	}

	summary := worker.Summarize(results)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d contracts\n", summary.Total)
	fmt.Fprintf(os.Stderr, "  Success:    %d\n", summary.Succeeded)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", summary.Failed)
	fmt.Fprintf(os.Stderr, "  High risk:  %d\n", summary.HighRisk)
	fmt.Fprintf(os.Stderr, "  Written:    %d reports in %s\n", written, outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if summary.Succeeded == 0 {
		return fmt.Errorf("all %d contracts failed", summary.Total)
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename turns a report subject into a safe file name
func sanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	s = filenameReplacer.Replace(strings.ToLower(s))
	s = strings.Trim(s, ".-_")
	if s == "" {
		s = "contract"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
