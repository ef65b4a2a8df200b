package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
)

var (
	// numberedSection matches a newline followed by "N." at the start of a line
	numberedSection = regexp.MustCompile(`\n\d+\.`)

	// segmentStart matches lines that open a new clause segment
	segmentStart = regexp.MustCompile(`^(\d+\.|[A-Z][A-Za-z ]+:)`)
)

// Stats describes the structure of document text. Paragraphs are the
// literal "\n" segments the annotator works on.
func Stats(text string) model.DocumentStats {
	paragraphs := strings.Split(text, "\n")

	nonBlank := 0
	for _, p := range paragraphs {
		if strings.TrimSpace(p) != "" {
			nonBlank++
		}
	}

	return model.DocumentStats{
		Characters:         len([]rune(text)),
		Paragraphs:         len(paragraphs),
		NonBlankParagraphs: nonBlank,
		NumberedSections:   len(numberedSection.FindAllStringIndex(text, -1)),
		ClauseSegments:     len(Segments(text)),
	}
}

// Segments splits text into clause segments. A segment ends at a newline
// whose next line starts with "N." or a capitalized heading followed by a
// colon. The separating newline is dropped; empty segments are skipped.
func Segments(text string) []string {
	if text == "" {
		return nil
	}

	var (
		segments []string
		current  strings.Builder
	)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			if segmentStart.MatchString(line) {
				if current.Len() > 0 {
					segments = append(segments, current.String())
				}
				current.Reset()
			} else {
				current.WriteByte('\n')
			}
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments
}
