package llm

import (
	"math"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
)

// Price is USD per one million tokens
type Price struct {
	Input  float64
	Output float64
}

// pricing lists known models. Unknown models are priced as gpt-4o-mini.
var pricing = map[string]Price{
	"gpt-4o":      {Input: 2.50, Output: 10.00},
	"gpt-4o-mini": {Input: 0.15, Output: 0.60},
	"gpt-4-turbo": {Input: 10.00, Output: 30.00},
}

// PriceFor returns the price of a model, matching dated snapshot ids
// ("gpt-4o-2024-08-06") to their base model
func PriceFor(modelID string) Price {
	id := strings.ToLower(modelID)
	if p, ok := pricing[id]; ok {
		return p
	}
	best := ""
	for name := range pricing {
		if strings.HasPrefix(id, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return pricing[best]
	}
	return pricing["gpt-4o-mini"]
}

// EstimateCost returns the USD cost of the given usage
func EstimateCost(modelID string, usage model.TokenUsage) float64 {
	p := PriceFor(modelID)
	return float64(usage.Input)/1e6*p.Input + float64(usage.Output)/1e6*p.Output
}

// EstimateTokens approximates a token count as one token per four characters
func EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4))
}
