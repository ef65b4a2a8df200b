// Package pipeline loads contracts, runs the LLM analysis, annotates the
// document and renders reports.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ppiankov/clauselens/internal/cache"
	"github.com/ppiankov/clauselens/internal/extract"
	"github.com/ppiankov/clauselens/internal/guard"
	"github.com/ppiankov/clauselens/internal/llm"
	"github.com/ppiankov/clauselens/internal/match"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/score"
	"github.com/ppiankov/clauselens/internal/storage"
	"github.com/ppiankov/clauselens/internal/worker"
)

// ErrInputTooLong means the contract exceeds guardrails.max_input_chars
var ErrInputTooLong = errors.New("contract text too long")

// Archiver stores rendered reports; *storage.ReportStore implements it
type Archiver interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Pipeline orchestrates the complete analysis process
type Pipeline struct {
	loader    *Loader
	analyzer  *llm.Analyzer
	annotator *match.Annotator
	scorer    *score.Scorer
	renderer  *Renderer
	limiter   *worker.Limiter // keyed by fetch host and provider name
	archiver  Archiver        // nil disables archival
	config    *model.Config
	logf      func(format string, args ...any)
}

// NewPipeline creates a pipeline from configuration. A provider that fails
// to initialize is reported and leaves LLM analysis disabled; offline
// highlighting still works.
func NewPipeline(ctx context.Context, cfg *model.Config) (*Pipeline, error) {
	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(ctx, llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to initialize LLM provider: %v\n", err)
		} else {
			provider = p
		}
	}

	var archiver Archiver
	if cfg.Storage.Enabled {
		store, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		archiver = store
	}

	return New(cfg, provider, archiver)
}

// New creates a pipeline with an explicit provider and archiver, either of
// which may be nil
func New(cfg *model.Config, provider llm.Provider, archiver Archiver) (*Pipeline, error) {
	policy := match.PolicyFromConfig(cfg.Match)
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("match policy: %w", err)
	}

	logf := func(string, ...any) {}
	if cfg.Output.Verbose {
		logf = llm.StderrLogf
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	if provider != nil && cfg.RateLimiting.LLMRequestsPerSecond > 0 {
		limiter.SetRate(provider.Name(), cfg.RateLimiting.LLMRequestsPerSecond, cfg.RateLimiting.LLMBurstSize)
	}

	fetcher := NewFetcherFromConfig(cfg.HTTP)
	fetcher.SetLimiter(limiter)

	opts := llm.OptionsFromModel(cfg.LLM)
	opts.Limiter = limiter
	opts.Logf = logf
	if cfg.Cache.Enabled {
		opts.Cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		opts.CacheTTL = cfg.Cache.DiskTTL
	}

	return &Pipeline{
		loader:    NewLoader(fetcher),
		analyzer:  llm.NewAnalyzer(provider, opts),
		annotator: match.NewAnnotator(policy),
		scorer:    score.NewScorer(),
		renderer:  NewRenderer(cfg.Output.IncludeFooter, cfg.Output.Color),
		limiter:   limiter,
		archiver:  archiver,
		config:    cfg,
		logf:      logf,
	}, nil
}

// Renderer returns the pipeline's renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// AnalysisEnabled reports whether an LLM provider is configured
func (p *Pipeline) AnalysisEnabled() bool {
	return p.analyzer.IsEnabled()
}

// ProviderReady reports whether the configured provider answers its
// availability check. A disabled provider is never ready.
func (p *Pipeline) ProviderReady(ctx context.Context) bool {
	return p.analyzer.Available(ctx)
}

// ProviderName returns the configured provider, or "" when disabled
func (p *Pipeline) ProviderName() string {
	return p.analyzer.ProviderName()
}

// Input describes one analysis run
type Input struct {
	Source         string // path, URL or "-"; ignored when Text is set
	Text           string
	Subject        string // overrides the derived subject
	ContractType   model.ContractType
	Jurisdiction   model.Jurisdiction
	Persona        model.Persona
	ModelID        string
	AllowSensitive bool // warn instead of refusing on guardrail hits
}

// Run loads the contract, screens it, analyzes it and builds the report.
// Guardrail hits return a *guard.SensitiveError unless allowed; oversized
// input returns ErrInputTooLong.
func (p *Pipeline) Run(ctx context.Context, in Input) (*model.Report, error) {
	doc, err := p.document(ctx, in)
	if err != nil {
		return nil, err
	}
	p.logf("✓ Loaded %s (%d characters)", doc.Source, utf8.RuneCountInString(doc.Text))

	warnings := append([]string{}, doc.Warnings...)

	hits, err := p.Screen(doc.Text, in.AllowSensitive)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		warnings = append(warnings, guard.WarningMessage(hits))
	}

	if err := p.CheckLength(doc.Text); err != nil {
		return nil, err
	}

	result, err := p.analyzer.Analyze(ctx, model.AnalyzeRequest{
		ContractText: doc.Text,
		ContractType: in.ContractType,
		Jurisdiction: in.Jurisdiction,
		Persona:      in.Persona,
		ModelID:      p.modelID(in.ModelID),
	})
	if err != nil {
		return nil, err
	}
	p.logf("✓ Analysis complete: %d clauses", len(result.Analysis.Clauses))

	report := p.buildReport(doc, result.Analysis)
	report.FetchMeta = doc.FetchMeta
	report.Metrics = &result.Metrics
	report.Guardrails = hits
	report.Warnings = append(warnings, result.Warnings...)

	p.archive(ctx, report)

	return report, nil
}

// Highlight annotates text with an existing analysis. No LLM is called.
func (p *Pipeline) Highlight(text string, analysis *model.AnalysisResult) *model.Report {
	return p.buildReport(&Document{Text: text, Subject: "contract", Source: "-"}, analysis)
}

// HighlightSource loads a document and annotates it with an existing analysis
func (p *Pipeline) HighlightSource(ctx context.Context, source string, analysis *model.AnalysisResult) (*model.Report, error) {
	doc, err := p.loader.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	report := p.buildReport(doc, analysis)
	report.FetchMeta = doc.FetchMeta
	report.Warnings = doc.Warnings
	return report, nil
}

// Screen runs the guardrails. Hits are an error unless sensitive content is
// allowed by the caller or by configuration; with guardrails disabled it
// returns nothing.
func (p *Pipeline) Screen(text string, allowSensitive bool) ([]model.GuardrailHit, error) {
	if !p.config.Guardrails.Enabled {
		return nil, nil
	}
	hits := guard.Detect(text)
	if len(hits) == 0 {
		return nil, nil
	}
	if allowSensitive || p.config.Guardrails.AllowSensitive {
		return hits, nil
	}
	return nil, &guard.SensitiveError{Hits: hits}
}

// CheckLength enforces guardrails.max_input_chars (counted in characters)
func (p *Pipeline) CheckLength(text string) error {
	limit := p.config.Guardrails.MaxInputChars
	if limit <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(text); n > limit {
		return fmt.Errorf("%w: %d characters exceeds the limit of %d", ErrInputTooLong, n, limit)
	}
	return nil
}

// Analyze runs an analysis request through the screening steps and the
// analyzer without building a report
func (p *Pipeline) Analyze(ctx context.Context, req model.AnalyzeRequest, allowSensitive bool) (*llm.Result, []model.AnnotatedParagraph, model.Score, error) {
	if _, err := p.Screen(req.ContractText, allowSensitive); err != nil {
		return nil, nil, model.Score{}, err
	}
	if err := p.CheckLength(req.ContractText); err != nil {
		return nil, nil, model.Score{}, err
	}

	req.ModelID = p.modelID(req.ModelID)
	result, err := p.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, nil, model.Score{}, err
	}

	paragraphs := p.annotator.AnnotateDocument(req.ContractText, result.Analysis.Clauses)
	return result, paragraphs, p.scorer.Calculate(result.Analysis, req.ContractText, paragraphs), nil
}

func (p *Pipeline) document(ctx context.Context, in Input) (*Document, error) {
	var doc *Document
	if in.Text != "" {
		doc = &Document{Text: cleanText(in.Text), Subject: "contract", Source: "-"}
	} else {
		loaded, err := p.loader.Load(ctx, in.Source)
		if err != nil {
			return nil, err
		}
		doc = loaded
	}
	if in.Subject != "" {
		doc.Subject = in.Subject
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("no text found in %s", doc.Source)
	}
	return doc, nil
}

// modelID picks the request model, then the configured one
func (p *Pipeline) modelID(requested string) string {
	if requested != "" {
		return requested
	}
	return p.config.LLM.Model
}

// buildReport annotates and scores a document
func (p *Pipeline) buildReport(doc *Document, analysis *model.AnalysisResult) *model.Report {
	if analysis == nil {
		analysis = &model.AnalysisResult{}
	}

	paragraphs := p.annotator.AnnotateDocument(doc.Text, analysis.Clauses)

	stats := extract.Stats(doc.Text)
	stats.HighlightedParagraphs = match.CountHighlighted(paragraphs)

	return &model.Report{
		RunID:      uuid.NewString(),
		Subject:    doc.Subject,
		Source:     doc.Source,
		AnalyzedAt: time.Now().UTC(),
		Document:   stats,
		Analysis:   *analysis,
		Paragraphs: paragraphs,
		Score:      p.scorer.Calculate(analysis, doc.Text, paragraphs),
		Principles: model.DefaultPrinciples(),
	}
}

// archive uploads the JSON report. Failures only add a warning.
func (p *Pipeline) archive(ctx context.Context, report *model.Report) {
	if p.archiver == nil {
		return
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("archive: %v", err))
		return
	}

	url, err := p.archiver.Put(ctx, storage.ReportKey(report.RunID, report.AnalyzedAt), data, "application/json")
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("archive: %v", err))
		return
	}
	report.StorageURL = url
	p.logf("✓ Archived report: %s", url)
}

// RenderReport renders the report to the requested files and prints the
// summary to w
func (p *Pipeline) RenderReport(w io.Writer, report *model.Report, jsonPath, yamlPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if yamlPath != "" {
		if err := p.renderer.RenderYAML(report, yamlPath); err != nil {
			return fmt.Errorf("render YAML: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote YAML: %s\n", yamlPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(w, report)

	return nil
}

// ForBatch returns a worker.Analyzer that runs targets with the settings of
// template
func (p *Pipeline) ForBatch(template Input) worker.Analyzer {
	return &batchAnalyzer{pipeline: p, template: template}
}

type batchAnalyzer struct {
	pipeline *Pipeline
	template Input
}

func (b *batchAnalyzer) AnalyzeTarget(ctx context.Context, target string) (*model.Report, error) {
	in := b.template
	in.Source = target
	in.Text = ""
	in.Subject = ""
	return b.pipeline.Run(ctx, in)
}
