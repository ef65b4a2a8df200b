package match

import (
	"fmt"
	"math"

	"github.com/ppiankov/clauselens/internal/model"
)

// TrigramSize is the n used for phrase overlap
const TrigramSize = 3

// Policy holds the tunable thresholds and score weights
type Policy struct {
	EvidenceThreshold float64 // minimum score for an evidence quote
	FallbackThreshold float64 // minimum score for a descriptive clause field
	WordWeight        float64 // weight of word-set Jaccard
	TrigramWeight     float64 // weight of trigram Jaccard
}

// DefaultPolicy returns the stock matching policy
func DefaultPolicy() Policy {
	return Policy{
		EvidenceThreshold: 0.25,
		FallbackThreshold: 0.35,
		WordWeight:        0.4,
		TrigramWeight:     0.6,
	}
}

// PolicyFromConfig converts the match section of the configuration
func PolicyFromConfig(cfg model.MatchConfig) Policy {
	return Policy{
		EvidenceThreshold: cfg.EvidenceThreshold,
		FallbackThreshold: cfg.FallbackThreshold,
		WordWeight:        cfg.WordWeight,
		TrigramWeight:     cfg.TrigramWeight,
	}
}

// Validate rejects policies that could produce scores outside [0,1]
func (p Policy) Validate() error {
	for name, v := range map[string]float64{
		"evidence_threshold": p.EvidenceThreshold,
		"fallback_threshold": p.FallbackThreshold,
		"word_weight":        p.WordWeight,
		"trigram_weight":     p.TrigramWeight,
	} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("match policy: %s must be within [0,1], got %v", name, v)
		}
	}
	if math.Abs(p.WordWeight+p.TrigramWeight-1) > 1e-9 {
		return fmt.Errorf("match policy: weights must sum to 1, got %v", p.WordWeight+p.TrigramWeight)
	}
	return nil
}

// Score blends word-set and trigram Jaccard similarity of a and b
func (p Policy) Score(a, b string) float64 {
	return p.scoreNormalized(Normalize(a), Normalize(b))
}

func (p Policy) scoreNormalized(a, b string) float64 {
	words := Jaccard(wordSet(a), wordSet(b))
	grams := Jaccard(ngrams(a, TrigramSize), ngrams(b, TrigramSize))
	return p.WordWeight*words + p.TrigramWeight*grams
}

// MatchScore scores a against b with the default weights (0.4 words, 0.6 trigrams).
// The result is symmetric and within [0,1]; empty input scores 0.
func MatchScore(a, b string) float64 {
	return DefaultPolicy().Score(a, b)
}

// Jaccard returns |a∩b| / |a∪b|, treating an empty union as size 1
func Jaccard(a, b map[string]struct{}) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}

	union := len(a) + len(b) - inter
	if union == 0 {
		union = 1
	}
	return float64(inter) / float64(union)
}
