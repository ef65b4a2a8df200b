package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/score"
)

// Renderer writes reports as JSON, YAML, Markdown or a terminal summary
type Renderer struct {
	includeFooter bool
	colors        map[string]*color.Color
}

// NewRenderer creates a renderer. Colors apply to the terminal summary only.
func NewRenderer(includeFooter bool, useColor bool) *Renderer {
	colors := map[string]*color.Color{
		"red":    color.New(color.FgRed),
		"yellow": color.New(color.FgYellow),
		"blue":   color.New(color.FgBlue),
		"green":  color.New(color.FgGreen),
		"cyan":   color.New(color.FgCyan),
		"white":  color.New(color.FgWhite, color.Bold),
	}
	if !useColor {
		for _, c := range colors {
			c.DisableColor()
		}
	}
	return &Renderer{includeFooter: includeFooter, colors: colors}
}

// WriteJSON writes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteYAML writes the report as YAML
func (r *Renderer) WriteYAML(w io.Writer, report *model.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

// RenderJSON writes the report to a JSON file
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, report) })
}

// RenderYAML writes the report to a YAML file
func (r *Renderer) RenderYAML(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteYAML(w, report) })
}

// RenderMarkdown writes the report to a Markdown file
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(report))
		return err
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Markdown renders the report with the annotated document inline
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder
	a := report.Analysis

	fmt.Fprintf(&b, "# Contract Analysis: %s\n\n", report.Subject)
	fmt.Fprintf(&b, "**Source:** %s  \n", report.Source)
	fmt.Fprintf(&b, "**Analyzed:** %s  \n", report.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "**Run ID:** %s\n\n", report.RunID)

	// Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Overall risk | %s (%d/100) |\n", strings.ToUpper(string(a.Overall.RiskLevel)), a.Overall.RiskScore)
	fmt.Fprintf(&b, "| Model confidence | %.2f |\n", a.Overall.Confidence)
	fmt.Fprintf(&b, "| Contract type | %s |\n", a.Overall.ContractType)
	fmt.Fprintf(&b, "| Jurisdiction | %s |\n", a.Overall.Jurisdiction)
	fmt.Fprintf(&b, "| Persona | %s |\n", a.Overall.Persona)
	fmt.Fprintf(&b, "| Highlighted paragraphs | %d/%d |\n\n", report.Document.HighlightedParagraphs, report.Document.NonBlankParagraphs)

	// Score
	fmt.Fprintf(&b, "## Grounding Index: %d/100 (confidence: %s)\n\n", report.Score.Index, report.Score.Confidence)
	for _, s := range report.Score.Signals {
		fmt.Fprintf(&b, "- **%s** [%s]: %s\n", s.Type, s.Severity, s.Description)
	}
	b.WriteString("\n")

	// Annotated document
	b.WriteString("## Annotated Document\n\n")
	for _, p := range report.Paragraphs {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		b.WriteString(p.Text)
		b.WriteString("\n\n")
		if ann := p.Annotation; ann != nil {
			fmt.Fprintf(&b, "> %s %s: %s\n\n", ann.Icon, ann.Label, ann.ClauseTitle)
		}
	}

	// Clauses
	if len(a.Clauses) > 0 {
		counts := highlightCounts(report.Paragraphs)

		b.WriteString("## Clauses\n\n")
		b.WriteString("| # | Clause | Category | Risk | Benefits | Paragraphs |\n")
		b.WriteString("|---|--------|----------|------|----------|------------|\n")
		for i, c := range a.Clauses {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %d |\n",
				i+1, cell(c.DisplayTitle()), cell(c.Category), c.Risk, c.WhoBenefits, counts[i])
		}
		b.WriteString("\n")

		for i, c := range a.Clauses {
			label := model.LabelForRisk(c.Risk)
			fmt.Fprintf(&b, "### %d. %s %s\n\n", i+1, label.Icon(), c.DisplayTitle())
			if c.PlainEnglish != "" {
				fmt.Fprintf(&b, "%s\n\n", c.PlainEnglish)
			}
			fmt.Fprintf(&b, "**Why risky:** %s\n\n", c.WhyRisky)
			for _, q := range c.EvidenceQuotes {
				fmt.Fprintf(&b, "> \"%s\" (%s)\n\n", q.Quote, q.Location)
			}
			if c.Pushback != "" {
				fmt.Fprintf(&b, "**Pushback:** %s\n\n", c.Pushback)
			}
			if c.SuggestedRevision != "" {
				fmt.Fprintf(&b, "**Suggested revision:** %s\n\n", c.SuggestedRevision)
			}
			if len(c.MissingInfoQuestions) > 0 {
				b.WriteString("**Questions to ask:**\n")
				for _, q := range c.MissingInfoQuestions {
					fmt.Fprintf(&b, "- %s\n", q)
				}
				b.WriteString("\n")
			}
		}
	}

	if len(a.MissingOrWeak) > 0 {
		b.WriteString("## Missing or Weak Clauses\n\n")
		for _, m := range a.MissingOrWeak {
			fmt.Fprintf(&b, "- **%s**: %s\n", m.Category, m.WhyItMatters)
			if m.RecommendedLanguage != "" {
				fmt.Fprintf(&b, "  - Recommended: %s\n", m.RecommendedLanguage)
			}
		}
		b.WriteString("\n")
	}

	if len(a.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for i, rec := range a.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
		b.WriteString("\n")
	}

	if m := report.Metrics; m != nil {
		b.WriteString("## Metrics\n\n")
		fmt.Fprintf(&b, "- Model: %s (%s)\n", m.ModelUsed, m.Provider)
		tokens := fmt.Sprintf("%d in / %d out / %d total", m.TokensUsed.Input, m.TokensUsed.Output, m.TokensUsed.Total)
		if m.TokensEstimated {
			tokens += " (estimated)"
		}
		fmt.Fprintf(&b, "- Tokens: %s\n", tokens)
		fmt.Fprintf(&b, "- Estimated cost: $%.4f\n", m.EstimatedCost)
		fmt.Fprintf(&b, "- Processing time: %dms\n", m.ProcessingTimeMS)
		fmt.Fprintf(&b, "- Retries: %d\n", m.RetryCount)
		if m.Cached {
			b.WriteString("- Served from cache\n")
		}
		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("*Generated by clauselens. This is decision support, not legal advice. ")
		b.WriteString("Highlights are fuzzy matches of model-quoted evidence and may be incomplete.*\n")
	}

	return b.String()
}

// RenderSummary prints a short colored summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	a := report.Analysis
	tone := model.LabelForRisk(a.Overall.RiskLevel).Tone()

	fmt.Fprintln(w)
	r.colors["white"].Fprintf(w, "Contract: %s\n", report.Subject)
	fmt.Fprint(w, "Overall risk: ")
	r.colors[tone].Fprintf(w, "%s (%d/100)\n", strings.ToUpper(string(a.Overall.RiskLevel)), a.Overall.RiskScore)
	fmt.Fprintf(w, "Grounding index: %d/100 (%s)\n", report.Score.Index, report.Score.Confidence)
	fmt.Fprintf(w, "Highlighted paragraphs: %d/%d\n", report.Document.HighlightedParagraphs, report.Document.NonBlankParagraphs)

	if len(a.Clauses) > 0 {
		counts := highlightCounts(report.Paragraphs)
		fmt.Fprintf(w, "\nClauses (%d):\n", len(a.Clauses))
		for i, c := range a.Clauses {
			label := model.LabelForRisk(c.Risk)
			fmt.Fprint(w, "  ")
			r.colors[label.Tone()].Fprintf(w, "%s %-9s", label.Icon(), label)
			fmt.Fprintf(w, " %s", c.DisplayTitle())
			if counts[i] == 0 {
				r.colors["cyan"].Fprint(w, " (not located)")
			}
			fmt.Fprintln(w)
		}
	}

	if len(a.MissingOrWeak) > 0 {
		cats := make([]string, len(a.MissingOrWeak))
		for i, m := range a.MissingOrWeak {
			cats[i] = m.Category
		}
		fmt.Fprintf(w, "\nMissing or weak: %s\n", strings.Join(cats, ", "))
	}

	if m := report.Metrics; m != nil {
		cached := ""
		if m.Cached {
			cached = ", cached"
		}
		fmt.Fprintf(w, "\nModel: %s via %s, %d tokens, $%.4f, %d retries%s\n",
			m.ModelUsed, m.Provider, m.TokensUsed.Total, m.EstimatedCost, m.RetryCount, cached)
	}

	for _, warning := range report.Warnings {
		r.colors["yellow"].Fprintf(w, "Warning: %s\n", warning)
	}
	if report.StorageURL != "" {
		r.colors["green"].Fprintf(w, "✓ Archived: %s\n", report.StorageURL)
	}
}

// DiffMarkdown renders the changes between two analyses
func (r *Renderer) DiffMarkdown(d score.AnalysisDiff, previous, current string) string {
	var b strings.Builder

	b.WriteString("# Analysis Diff\n\n")
	fmt.Fprintf(&b, "**Previous:** %s  \n", previous)
	fmt.Fprintf(&b, "**Current:** %s\n\n", current)

	b.WriteString("## Risk Score Change\n\n")
	fmt.Fprintf(&b, "%d → %d (**%s**)\n\n", d.PreviousScore, d.CurrentScore, signed(d.RiskScoreDelta))

	b.WriteString("## Added Clauses\n\n")
	writeClauseList(&b, d.Added)

	b.WriteString("## Removed Clauses\n\n")
	writeClauseList(&b, d.Removed)

	b.WriteString("## Risk Changes\n\n")
	if len(d.Changed) == 0 {
		b.WriteString("None\n\n")
	} else {
		for _, c := range d.Changed {
			fmt.Fprintf(&b, "- %s: %s → %s\n", c.Category, strings.ToUpper(string(c.From)), strings.ToUpper(string(c.To)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeClauseList(b *strings.Builder, clauses []model.Clause) {
	if len(clauses) == 0 {
		b.WriteString("None\n\n")
		return
	}
	for _, c := range clauses {
		fmt.Fprintf(b, "- %s (%s)\n", c.Category, c.Risk)
	}
	b.WriteString("\n")
}

// RenderDiffSummary prints a colored diff. A higher score is worse.
func (r *Renderer) RenderDiffSummary(w io.Writer, d score.AnalysisDiff) {
	tone := "white"
	switch {
	case d.RiskScoreDelta > 0:
		tone = "red"
	case d.RiskScoreDelta < 0:
		tone = "green"
	}

	fmt.Fprint(w, "Risk score: ")
	r.colors[tone].Fprintf(w, "%d → %d (%s)\n", d.PreviousScore, d.CurrentScore, signed(d.RiskScoreDelta))

	if d.Unchanged() {
		fmt.Fprintln(w, "No clause changes")
		return
	}
	for _, c := range d.Added {
		r.colors["yellow"].Fprintf(w, "  + %s (%s)\n", c.Category, c.Risk)
	}
	for _, c := range d.Removed {
		r.colors["cyan"].Fprintf(w, "  - %s (%s)\n", c.Category, c.Risk)
	}
	for _, c := range d.Changed {
		r.colors[model.LabelForRisk(c.To).Tone()].Fprintf(w, "  ~ %s: %s → %s\n", c.Category, strings.ToUpper(string(c.From)), strings.ToUpper(string(c.To)))
	}
}

// WriteDiffJSON writes the diff as indented JSON
func (r *Renderer) WriteDiffJSON(w io.Writer, d score.AnalysisDiff) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// RenderDiff writes the diff to JSON and Markdown files; empty paths are skipped
func (r *Renderer) RenderDiff(d score.AnalysisDiff, previous, current, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := writeFile(jsonPath, func(w io.Writer) error { return r.WriteDiffJSON(w, d) }); err != nil {
			return fmt.Errorf("render diff JSON: %w", err)
		}
	}
	if mdPath != "" {
		err := writeFile(mdPath, func(w io.Writer) error {
			_, err := io.WriteString(w, r.DiffMarkdown(d, previous, current))
			return err
		})
		if err != nil {
			return fmt.Errorf("render diff markdown: %w", err)
		}
	}
	return nil
}

// signed formats n with an explicit plus sign when positive
func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

// highlightCounts counts annotated paragraphs per clause index
func highlightCounts(paragraphs []model.AnnotatedParagraph) map[int]int {
	counts := make(map[int]int)
	for _, p := range paragraphs {
		if p.Annotation != nil {
			counts[p.Annotation.ClauseIndex]++
		}
	}
	return counts
}

// cell escapes text for a Markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
