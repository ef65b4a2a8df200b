// Package match locates LLM evidence quotes in contract paragraphs.
//
// Matching is fuzzy: quotes come back paraphrased, truncated, or reformatted,
// so paragraphs and quotes are compared on normalized token sets rather than
// raw substrings.
package match

import (
	"strings"
)

// curlyQuotes folds typographic quotes to ASCII before separating words
var curlyQuotes = strings.NewReplacer(
	"‘", `"`,
	"’", `"`,
	"“", `"`,
	"”", `"`,
)

// Normalize canonicalizes prose into lowercase ASCII letters, digits and
// single spaces. Every other character separates words, so "thirty-day"
// becomes "thirty day" and "don't" becomes "don t". Normalize is idempotent.
func Normalize(text string) string {
	text = curlyQuotes.Replace(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

// WordSet returns the distinct normalized words longer than 3 characters
func WordSet(text string) map[string]struct{} {
	return wordSet(Normalize(text))
}

// NGrams returns the distinct windows of n consecutive normalized tokens
// longer than 2 characters, joined by single spaces. Fewer than n tokens
// yield an empty set.
func NGrams(text string, n int) map[string]struct{} {
	return ngrams(Normalize(text), n)
}

func wordSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Split(normalized, " ") {
		if len(tok) > 3 {
			set[tok] = struct{}{}
		}
	}
	return set
}

func ngrams(normalized string, n int) map[string]struct{} {
	set := make(map[string]struct{})
	if n <= 0 {
		return set
	}

	var tokens []string
	for _, tok := range strings.Split(normalized, " ") {
		if len(tok) > 2 {
			tokens = append(tokens, tok)
		}
	}

	for i := 0; i+n <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+n], " ")] = struct{}{}
	}
	return set
}
