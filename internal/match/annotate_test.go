package match

import (
	"testing"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arbitrationParagraph = "Disputes shall be resolved exclusively by binding arbitration."

func quotes(qs ...string) []model.EvidenceQuote {
	out := make([]model.EvidenceQuote, len(qs))
	for i, q := range qs {
		out[i] = model.EvidenceQuote{Quote: q, Location: "Section 1"}
	}
	return out
}

func arbitrationClause() model.Clause {
	return model.Clause{
		ID:             "c1",
		Title:          "Arbitration Agreement",
		Category:       "arbitration",
		Risk:           model.RiskHigh,
		EvidenceQuotes: quotes("resolve disputes exclusively by binding arbitration"),
	}
}

func TestAnnotate_EvidenceMatch(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())

	got := a.Annotate(arbitrationParagraph, []model.Clause{arbitrationClause()})

	require.NotNil(t, got)
	assert.Equal(t, model.LabelHighRisk, got.Label)
	assert.Equal(t, "⚠️", got.Icon)
	assert.Equal(t, "Arbitration Agreement", got.ClauseTitle)
	assert.Equal(t, "c1", got.ClauseID)
	assert.Equal(t, model.MatchEvidence, got.Source)
	assert.Equal(t, "Section 1", got.Location)
	assert.GreaterOrEqual(t, got.Score, 0.25)
}

func TestAnnotate_UnrelatedParagraph(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())

	got := a.Annotate("This is unrelated filler text about weather.", []model.Clause{arbitrationClause()})

	assert.Nil(t, got)
}

func TestAnnotate_BlankParagraph(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	clauses := []model.Clause{arbitrationClause()}

	assert.Nil(t, a.Annotate("", clauses))
	assert.Nil(t, a.Annotate("   \t ", clauses))
}

func TestAnnotate_NoClauses(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())

	assert.Nil(t, a.Annotate(arbitrationParagraph, nil))
	assert.Nil(t, a.Annotate(arbitrationParagraph, []model.Clause{}))
}

func TestAnnotate_FallbackOnCategory(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	clause := model.Clause{Category: "Liability Cap", Risk: model.RiskMedium}

	got := a.Annotate("LIABILITY CAP.", []model.Clause{clause})

	require.NotNil(t, got)
	assert.Equal(t, model.LabelCaution, got.Label)
	assert.Equal(t, "⚡", got.Icon)
	assert.Equal(t, "Liability Cap", got.ClauseTitle, "category is the display title without a title")
	assert.Equal(t, model.MatchFallback, got.Source)
	assert.Equal(t, "category", got.Field)
	assert.InDelta(t, 0.4, got.Score, 1e-9)
}

func TestAnnotate_FallbackOnWhyRisky(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	clause := model.Clause{
		Category: "Liability Cap",
		Risk:     model.RiskHigh,
		WhyRisky: "Caps liability to fees paid in the last 12 months, far below likely damages.",
	}

	got := a.Annotate("We limit liability to fees paid in the last 12 months.", []model.Clause{clause})

	require.NotNil(t, got)
	assert.Equal(t, model.LabelHighRisk, got.Label)
	assert.Equal(t, "why_risky", got.Field)
	assert.GreaterOrEqual(t, got.Score, 0.35)
}

func TestAnnotate_FallbackBelowThreshold(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	// "liability cap" shares a single word with this paragraph
	clause := model.Clause{Category: "Liability Cap", Risk: model.RiskHigh}

	got := a.Annotate("We limit liability to fees paid in the last 12 months.", []model.Clause{clause})

	assert.Nil(t, got)
}

func TestAnnotate_FallbackStopsAtFirstAcceptedField(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	clause := model.Clause{
		Title:    "Limits liability to the fees paid in the last twelve months.",
		Risk:     model.RiskLow,
		WhyRisky: "liability limited to fees paid in the last 12 months",
	}

	got := a.Annotate("We limit liability to fees paid in the last 12 months.", []model.Clause{clause})

	require.NotNil(t, got)
	assert.Equal(t, "title", got.Field, "why_risky scores higher but is never tried")
	assert.Less(t, got.Score, MatchScore("We limit liability to fees paid in the last 12 months.", clause.WhyRisky))
	assert.Equal(t, model.LabelReview, got.Label)
	assert.Equal(t, "ℹ️", got.Icon)
}

func TestAnnotate_EvidenceTakesPrecedenceWithinClause(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	clause := arbitrationClause()
	clause.Title = arbitrationParagraph // would score 1.0 as a fallback

	got := a.Annotate(arbitrationParagraph, []model.Clause{clause})

	require.NotNil(t, got)
	assert.Equal(t, model.MatchEvidence, got.Source)
	assert.Less(t, got.Score, 1.0)
}

func TestAnnotate_LaterClauseFallbackCanBeatEarlierEvidence(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	first := arbitrationClause()
	second := model.Clause{ID: "c2", Title: arbitrationParagraph, Risk: model.RiskMedium}

	got := a.Annotate(arbitrationParagraph, []model.Clause{first, second})

	require.NotNil(t, got)
	assert.Equal(t, "c2", got.ClauseID)
	assert.Equal(t, 1, got.ClauseIndex)
	assert.Equal(t, model.MatchFallback, got.Source)
}

func TestAnnotate_SubThresholdQuoteFallsBack(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	paragraph := "Either party may terminate this Agreement upon thirty days written notice."
	clause := model.Clause{
		Title:          "Either party may terminate this Agreement upon thirty days written notice",
		Risk:           model.RiskMedium,
		EvidenceQuotes: quotes("party may terminate upon notice"),
	}

	got := a.Annotate(paragraph, []model.Clause{clause})

	require.NotNil(t, got)
	assert.Equal(t, model.MatchFallback, got.Source)
	assert.Equal(t, "title", got.Field)
}

func TestAnnotate_HyphenatedParagraphMatchesUnpunctuatedQuote(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	paragraph := "Either party may terminate on thirty-day written notice to the non-breaching party."
	clause := model.Clause{
		ID:             "term",
		Risk:           model.RiskMedium,
		EvidenceQuotes: quotes("Either party may terminate on thirty day written notice to the non breaching party"),
	}

	got := a.Annotate(paragraph, []model.Clause{clause})

	require.NotNil(t, got)
	assert.Equal(t, model.MatchEvidence, got.Source)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
}

func TestAnnotate_PunctuatedVerbatimQuote(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	paragraph := "Fees,paid and/or owed under this Agreement are non-refundable."
	clause := model.Clause{ID: "fees", Risk: model.RiskHigh, EvidenceQuotes: quotes(paragraph)}

	got := a.Annotate(paragraph, []model.Clause{clause})

	require.NotNil(t, got)
	assert.Equal(t, model.LabelHighRisk, got.Label)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
	assert.Equal(t, "fees paid and or owed under this agreement are non refundable", Normalize(paragraph))
}

func TestAnnotate_ThresholdsDifferBySource(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	paragraph := "The Company may terminate your account at any time without notice."
	text := "company may terminate account at any time"
	score := MatchScore(paragraph, text)
	require.True(t, score >= 0.25 && score < 0.35, "fixture score %v must sit between thresholds", score)

	asQuote := model.Clause{Risk: model.RiskHigh, EvidenceQuotes: quotes(text)}
	asTitle := model.Clause{Risk: model.RiskHigh, Title: text}

	assert.NotNil(t, a.Annotate(paragraph, []model.Clause{asQuote}))
	assert.Nil(t, a.Annotate(paragraph, []model.Clause{asTitle}))
}

func TestAnnotate_TieKeepsFirstClause(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	shared := "resolve disputes exclusively by binding arbitration"
	clauseA := model.Clause{ID: "a", Title: "Clause A", Risk: model.RiskLow, EvidenceQuotes: quotes(shared)}
	clauseB := model.Clause{ID: "b", Title: "Clause B", Risk: model.RiskHigh, EvidenceQuotes: quotes(shared)}

	got := a.Annotate(arbitrationParagraph, []model.Clause{clauseA, clauseB})
	require.NotNil(t, got)
	assert.Equal(t, "Clause A", got.ClauseTitle)

	got = a.Annotate(arbitrationParagraph, []model.Clause{clauseB, clauseA})
	require.NotNil(t, got)
	assert.Equal(t, "Clause B", got.ClauseTitle)
}

func TestAnnotate_TieWithinClauseKeepsFirstQuote(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	clause := arbitrationClause()
	clause.EvidenceQuotes = []model.EvidenceQuote{
		{Quote: "resolve disputes exclusively by binding arbitration", Location: "Section 9"},
		{Quote: "resolve disputes exclusively by binding arbitration", Location: "Section 12"},
	}

	got := a.Annotate(arbitrationParagraph, []model.Clause{clause})

	require.NotNil(t, got)
	assert.Equal(t, "Section 9", got.Location)
}

func TestAnnotate_BestQuoteAcrossClausesWins(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	weak := arbitrationClause()
	weak.ID = "weak"
	strong := model.Clause{
		ID:             "strong",
		Risk:           model.RiskMedium,
		EvidenceQuotes: quotes("Disputes shall be resolved exclusively by binding arbitration"),
	}

	got := a.Annotate(arbitrationParagraph, []model.Clause{weak, strong})

	require.NotNil(t, got)
	assert.Equal(t, "strong", got.ClauseID)
	assert.Equal(t, model.LabelCaution, got.Label)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
}

func TestAnnotate_UnknownRiskIsReview(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	clause := arbitrationClause()
	clause.Risk = "severe"

	got := a.Annotate(arbitrationParagraph, []model.Clause{clause})

	require.NotNil(t, got)
	assert.Equal(t, model.LabelReview, got.Label)
}

func TestAnnotate_DisplayTitleFallsBackToClause(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	clause := model.Clause{Risk: model.RiskHigh, EvidenceQuotes: quotes("resolve disputes exclusively by binding arbitration")}

	got := a.Annotate(arbitrationParagraph, []model.Clause{clause})

	require.NotNil(t, got)
	assert.Equal(t, "Clause", got.ClauseTitle)
}

func TestAnnotate_DegradedClausesDoNotPanic(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	clauses := []model.Clause{
		{},
		{EvidenceQuotes: []model.EvidenceQuote{{}}},
		{Title: "   "},
	}

	assert.NotPanics(t, func() {
		assert.Nil(t, a.Annotate(arbitrationParagraph, clauses))
	})
}

func TestAnnotate_Deterministic(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	clauses := []model.Clause{arbitrationClause(), {Category: "Liability Cap", Risk: model.RiskMedium}}

	for _, p := range append(sampleTexts, arbitrationParagraph, "LIABILITY CAP.") {
		assert.Equal(t, a.Annotate(p, clauses), a.Annotate(p, clauses), "paragraph %q", p)
	}
}

func TestAnnotate_CustomPolicy(t *testing.T) {
	strict := DefaultPolicy()
	strict.EvidenceThreshold = 0.9

	got := NewAnnotator(strict).Annotate(arbitrationParagraph, []model.Clause{arbitrationClause()})

	assert.Nil(t, got)
}

func TestAnnotateDocument(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	doc := "1. Scope\n" + arbitrationParagraph + "\n\nThis is unrelated filler text about weather.\nLIABILITY CAP."
	clauses := []model.Clause{
		arbitrationClause(),
		{ID: "c2", Category: "Liability Cap", Risk: model.RiskMedium},
	}

	got := a.AnnotateDocument(doc, clauses)

	require.Len(t, got, 5)
	for i, p := range got {
		assert.Equal(t, i, p.Index)
	}
	assert.Nil(t, got[0].Annotation)
	require.NotNil(t, got[1].Annotation)
	assert.Equal(t, "c1", got[1].Annotation.ClauseID)
	assert.Nil(t, got[2].Annotation)
	assert.Nil(t, got[3].Annotation)
	require.NotNil(t, got[4].Annotation)
	assert.Equal(t, "c2", got[4].Annotation.ClauseID)
	assert.Equal(t, 2, CountHighlighted(got))
}

func TestAnnotateDocument_MatchesPerParagraphAnnotate(t *testing.T) {
	a := NewAnnotator(DefaultPolicy())
	doc := arbitrationParagraph + "\n" + arbitrationParagraph + "\nLIABILITY CAP."
	clauses := []model.Clause{arbitrationClause(), {Category: "Liability Cap", Risk: model.RiskMedium}}

	got := a.AnnotateDocument(doc, clauses)

	for i, para := range SplitParagraphs(doc) {
		assert.Equal(t, a.Annotate(para, clauses), got[i].Annotation)
	}
	// several paragraphs may match the same clause
	assert.Equal(t, got[0].Annotation, got[1].Annotation)
}

func TestSplitParagraphs(t *testing.T) {
	assert.Equal(t, []string{""}, SplitParagraphs(""))
	assert.Equal(t, []string{"a", "", "b"}, SplitParagraphs("a\n\nb"))
	assert.Equal(t, []string{"a\r", "b"}, SplitParagraphs("a\r\nb"))
}
