package match

import (
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
)

// Annotator picks, per paragraph, the clause whose evidence best matches it
type Annotator struct {
	policy Policy
}

// NewAnnotator creates an annotator with the given policy
func NewAnnotator(policy Policy) *Annotator {
	return &Annotator{policy: policy}
}

// Policy returns the annotator's matching policy
func (a *Annotator) Policy() Policy {
	return a.policy
}

// candidate is one (clause, quote-or-field, score) triple
type candidate struct {
	clauseIndex int
	source      model.MatchSource
	field       string
	location    string
	score       float64
}

// selection folds candidates into the best accepted one.
// Ties keep the earliest candidate.
type selection struct {
	best  candidate
	found bool
}

// offer accepts c when it beats the running best and meets threshold
func (s *selection) offer(c candidate, threshold float64) bool {
	if c.score > s.best.score && c.score >= threshold {
		s.best = c
		s.found = true
		return true
	}
	return false
}

// fallbackField is a descriptive clause field in priority order
type fallbackField struct {
	name  string
	value string
}

func fallbackFields(c model.Clause) []fallbackField {
	return []fallbackField{
		{"title", c.Title},
		{"category", c.Category},
		{"why_risky", c.WhyRisky},
		{"plain_english", c.PlainEnglish},
	}
}

// Annotate returns the annotation for one paragraph, or nil when no evidence
// quote reaches the evidence threshold and no clause field reaches the
// fallback threshold. A clause is only matched on its fields when none of its
// own quotes was accepted.
func (a *Annotator) Annotate(paragraph string, clauses []model.Clause) *model.ParagraphAnnotation {
	return a.annotate(paragraph, clauses, Normalize)
}

func (a *Annotator) annotate(paragraph string, clauses []model.Clause, normalize func(string) string) *model.ParagraphAnnotation {
	if strings.TrimSpace(paragraph) == "" || len(clauses) == 0 {
		return nil
	}

	p := normalize(paragraph)
	var sel selection

	for ci, clause := range clauses {
		quoteAccepted := false
		for _, q := range clause.EvidenceQuotes {
			c := candidate{
				clauseIndex: ci,
				source:      model.MatchEvidence,
				field:       "quote",
				location:    q.Location,
				score:       a.policy.scoreNormalized(p, normalize(q.Quote)),
			}
			if sel.offer(c, a.policy.EvidenceThreshold) {
				quoteAccepted = true
			}
		}
		if quoteAccepted {
			continue
		}

		for _, f := range fallbackFields(clause) {
			if strings.TrimSpace(f.value) == "" {
				continue
			}
			c := candidate{
				clauseIndex: ci,
				source:      model.MatchFallback,
				field:       f.name,
				score:       a.policy.scoreNormalized(p, normalize(f.value)),
			}
			if sel.offer(c, a.policy.FallbackThreshold) {
				break
			}
		}
	}

	if !sel.found {
		return nil
	}

	winner := clauses[sel.best.clauseIndex]
	label := model.LabelForRisk(winner.Risk)
	return &model.ParagraphAnnotation{
		Label:       label,
		Icon:        label.Icon(),
		Tone:        label.Tone(),
		ClauseTitle: winner.DisplayTitle(),
		ClauseID:    winner.ID,
		ClauseIndex: sel.best.clauseIndex,
		Risk:        winner.Risk,
		Score:       sel.best.score,
		Source:      sel.best.source,
		Field:       sel.best.field,
		Location:    sel.best.location,
	}
}

// AnnotateDocument splits text on literal newlines and annotates every
// paragraph. Normalized strings are memoized for the duration of the call.
func (a *Annotator) AnnotateDocument(text string, clauses []model.Clause) []model.AnnotatedParagraph {
	memo := make(map[string]string)
	normalize := func(s string) string {
		if n, ok := memo[s]; ok {
			return n
		}
		n := Normalize(s)
		memo[s] = n
		return n
	}

	paragraphs := SplitParagraphs(text)
	out := make([]model.AnnotatedParagraph, len(paragraphs))
	for i, para := range paragraphs {
		out[i] = model.AnnotatedParagraph{
			Index:      i,
			Text:       para,
			Annotation: a.annotate(para, clauses, normalize),
		}
	}
	return out
}

// SplitParagraphs splits on literal "\n". No other boundary detection is done.
func SplitParagraphs(text string) []string {
	return strings.Split(text, "\n")
}

// CountHighlighted returns how many paragraphs carry an annotation
func CountHighlighted(paragraphs []model.AnnotatedParagraph) int {
	n := 0
	for _, p := range paragraphs {
		if p.Annotation != nil {
			n++
		}
	}
	return n
}
