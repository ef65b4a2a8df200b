// Package guard screens contract text for personal data and profanity
// before it is sent to an LLM.
package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
)

// Hit types
const (
	TypeSSN       = "ssn"
	TypePhone     = "phone"
	TypeEmail     = "email"
	TypeProfanity = "profanity"
)

type pattern struct {
	kind string
	re   *regexp.Regexp
}

// patterns are checked in this order
var patterns = []pattern{
	{TypeSSN, regexp.MustCompile(`(?i)\b(?:\d{3}-\d{2}-\d{4}|\d{9})\b`)},
	{TypePhone, regexp.MustCompile(`(?i)\b(?:\+?1\s*)?(?:\(\d{3}\)|\d{3})[\s.-]?\d{3}[\s.-]?\d{4}\b`)},
	{TypeEmail, regexp.MustCompile(`(?i)[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
}

var profanity = []string{"fuck", "shit", "bitch", "asshole", "bastard"}

// Result is the outcome of screening one text
type Result struct {
	Safe bool                 `json:"safe"`
	Hits []model.GuardrailHit `json:"hits"`
}

// Detect returns every sensitive match: SSNs, phone numbers, emails, then
// profanity (one hit per listed word, matched as a substring).
func Detect(text string) []model.GuardrailHit {
	hits := []model.GuardrailHit{}
	for _, p := range patterns {
		for _, m := range p.re.FindAllString(text, -1) {
			hits = append(hits, model.GuardrailHit{Type: p.kind, Match: m})
		}
	}

	lower := strings.ToLower(text)
	for _, word := range profanity {
		if strings.Contains(lower, word) {
			hits = append(hits, model.GuardrailHit{Type: TypeProfanity, Match: word})
		}
	}
	return hits
}

// Check screens text and reports whether it is safe to submit
func Check(text string) Result {
	hits := Detect(text)
	return Result{Safe: len(hits) == 0, Hits: hits}
}

// WarningMessage summarizes hits by type in first-seen order
func WarningMessage(hits []model.GuardrailHit) string {
	counts := make(map[string]int)
	var order []string
	for _, h := range hits {
		if counts[h.Type] == 0 {
			order = append(order, h.Type)
		}
		counts[h.Type]++
	}

	parts := make([]string, len(order))
	for i, t := range order {
		parts[i] = fmt.Sprintf("%s (%d)", t, counts[t])
	}
	return fmt.Sprintf("Detected sensitive content: %s. Please remove and try again.", strings.Join(parts, ", "))
}

// SensitiveError is returned when guarded input contains sensitive content
type SensitiveError struct {
	Hits []model.GuardrailHit
}

func (e *SensitiveError) Error() string {
	return WarningMessage(e.Hits)
}
