// Package score measures how well an analysis is grounded in the document it
// describes. The score never changes the analysis itself.
package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/clauselens/internal/match"
	"github.com/ppiankov/clauselens/internal/model"
)

// lowConfidenceThreshold is the model confidence below which review is recommended
const lowConfidenceThreshold = 0.6

// Scorer calculates the grounding index and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate scores an analysis against the document text and its annotated
// paragraphs
func (s *Scorer) Calculate(analysis *model.AnalysisResult, text string, paragraphs []model.AnnotatedParagraph) model.Score {
	if analysis == nil {
		analysis = &model.AnalysisResult{}
	}

	var signals []model.Signal

	// 1. Clause Coverage (0-50 points)
	coverageScore, coverageSignal := s.calculateCoverage(analysis.Clauses, paragraphs)
	signals = append(signals, coverageSignal)

	// 2. Quote Fidelity (0-30 points)
	fidelityScore, fidelitySignal := s.calculateFidelity(analysis.Clauses, text)
	signals = append(signals, fidelitySignal)

	// 3. Highlight Density (0-20 points)
	densityScore, densitySignal := s.calculateDensity(paragraphs)
	signals = append(signals, densitySignal)

	// 4. Risk Distribution (no points)
	signals = append(signals, s.riskDistribution(analysis.Clauses))

	// 5. Low model confidence
	lowConfidence := analysis.Overall.Confidence < lowConfidenceThreshold
	if lowConfidence {
		signals = append(signals, model.Signal{
			Type:        model.SignalLowConfidence,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Model confidence %.2f is below %.1f; human review recommended", analysis.Overall.Confidence, lowConfidenceThreshold),
			Data: map[string]interface{}{
				"confidence": analysis.Overall.Confidence,
				"threshold":  lowConfidenceThreshold,
			},
		})
	}

	// 6. Missing or weak protections
	if n := len(analysis.MissingOrWeak); n > 0 {
		categories := make([]string, 0, n)
		for _, m := range analysis.MissingOrWeak {
			categories = append(categories, m.Category)
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalMissingClauses,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d missing or weak clause(s): %s", n, strings.Join(categories, ", ")),
			Data: map[string]interface{}{
				"count":      n,
				"categories": categories,
			},
		})
	}

	totalScore := coverageScore + fidelityScore + densityScore

	return model.Score{
		Index:      totalScore,
		Confidence: s.determineConfidence(totalScore, len(analysis.Clauses), lowConfidence),
		Signals:    signals,
	}
}

// calculateCoverage scores the share of clauses that annotate at least one
// paragraph (0-50 points)
func (s *Scorer) calculateCoverage(clauses []model.Clause, paragraphs []model.AnnotatedParagraph) (int, model.Signal) {
	if len(clauses) == 0 {
		return 0, model.Signal{
			Type:        model.SignalClauseCoverage,
			Severity:    model.SeverityCritical,
			Description: "No clauses in analysis",
			Data:        map[string]interface{}{"clauses": 0},
		}
	}

	located := make(map[int]bool)
	for _, p := range paragraphs {
		if p.Annotation != nil {
			located[p.Annotation.ClauseIndex] = true
		}
	}

	ratio := float64(len(located)) / float64(len(clauses))
	score := int(math.Min(ratio*50, 50))

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalClauseCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Clauses located in document: %d/%d", len(located), len(clauses)),
		Data: map[string]interface{}{
			"clauses": len(clauses),
			"located": len(located),
			"ratio":   ratio,
			"score":   score,
			"formula": "min(located / clauses * 50, 50)",
		},
	}
}

// calculateFidelity scores the share of evidence quotes whose normalized
// text appears in the normalized document (0-30 points)
func (s *Scorer) calculateFidelity(clauses []model.Clause, text string) (int, model.Signal) {
	doc := match.Normalize(text)

	total, verbatim := 0, 0
	for _, c := range clauses {
		for _, q := range c.EvidenceQuotes {
			total++
			nq := match.Normalize(q.Quote)
			if nq != "" && strings.Contains(doc, nq) {
				verbatim++
			}
		}
	}

	if total == 0 {
		return 0, model.Signal{
			Type:        model.SignalQuoteFidelity,
			Severity:    model.SeverityWarning,
			Description: "No evidence quotes to verify",
			Data:        map[string]interface{}{"quotes": 0},
		}
	}

	ratio := float64(verbatim) / float64(total)
	score := int(ratio * 30)

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalQuoteFidelity,
		Severity:    severity,
		Description: fmt.Sprintf("Quotes found verbatim: %d/%d (%.0f%%)", verbatim, total, ratio*100),
		Data: map[string]interface{}{
			"quotes":   total,
			"verbatim": verbatim,
			"ratio":    ratio,
			"score":    score,
			"formula":  "(verbatim / quotes) * 30",
		},
	}
}

// calculateDensity scores highlighted paragraphs against non-blank
// paragraphs (0-20 points)
func (s *Scorer) calculateDensity(paragraphs []model.AnnotatedParagraph) (int, model.Signal) {
	nonBlank, highlighted := 0, 0
	for _, p := range paragraphs {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		nonBlank++
		if p.Annotation != nil {
			highlighted++
		}
	}

	if nonBlank == 0 {
		return 0, model.Signal{
			Type:        model.SignalHighlightDensity,
			Severity:    model.SeverityInfo,
			Description: "Document has no text",
			Data:        map[string]interface{}{"paragraphs": 0},
		}
	}

	ratio := float64(highlighted) / float64(nonBlank)
	score := int(math.Min(ratio*20, 20))

	return score, model.Signal{
		Type:        model.SignalHighlightDensity,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Highlighted paragraphs: %d/%d", highlighted, nonBlank),
		Data: map[string]interface{}{
			"paragraphs":  nonBlank,
			"highlighted": highlighted,
			"ratio":       ratio,
			"score":       score,
			"formula":     "min(highlighted / non_blank_paragraphs * 20, 20)",
		},
	}
}

// riskDistribution counts clauses per risk level
func (s *Scorer) riskDistribution(clauses []model.Clause) model.Signal {
	high, medium, low := 0, 0, 0
	for _, c := range clauses {
		switch c.Risk {
		case model.RiskHigh:
			high++
		case model.RiskMedium:
			medium++
		default:
			low++
		}
	}

	severity := model.SeverityInfo
	if high > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalRiskDistribution,
		Severity:    severity,
		Description: fmt.Sprintf("Risk distribution: %d high, %d medium, %d low", high, medium, low),
		Data: map[string]interface{}{
			"high":   high,
			"medium": medium,
			"low":    low,
		},
	}
}

// determineConfidence determines the confidence level based on the score
func (s *Scorer) determineConfidence(score int, clauseCount int, lowModelConfidence bool) string {
	if clauseCount == 0 {
		return "low"
	}

	if lowModelConfidence {
		if score >= 60 {
			return "low-medium"
		}
		return "low"
	}

	if score >= 80 {
		return "high"
	} else if score >= 60 {
		return "medium"
	} else {
		return "low"
	}
}
