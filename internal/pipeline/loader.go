package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/clauselens/internal/extract"
	"github.com/ppiankov/clauselens/internal/model"
)

// Document is contract text ready for analysis
type Document struct {
	Text      string
	Subject   string
	Source    string
	FetchMeta *model.FetchMeta // set for URL sources
	Warnings  []string
}

// Loader reads contract text from a URL, a file or stdin
type Loader struct {
	fetcher *Fetcher
	stdin   io.Reader
}

// NewLoader creates a loader that fetches URLs with fetcher
func NewLoader(fetcher *Fetcher) *Loader {
	return &Loader{fetcher: fetcher, stdin: os.Stdin}
}

// IsURL reports whether a source is an http(s) URL
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Load dispatches on the source: http(s) URLs are fetched, .html/.htm and
// .pdf files are extracted, "-" reads stdin and anything else is plain text
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	switch {
	case source == "-":
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return &Document{Text: cleanText(string(data)), Subject: "stdin", Source: "-"}, nil

	case IsURL(source):
		return l.loadURL(ctx, source)
	}

	subject := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))

	switch strings.ToLower(filepath.Ext(source)) {
	case ".html", ".htm":
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		htmlDoc, err := extract.HTMLText(string(data))
		if err != nil {
			return nil, err
		}
		if htmlDoc.Title != "" {
			subject = htmlDoc.Title
		}
		return &Document{Text: htmlDoc.Text, Subject: subject, Source: source}, nil

	case ".pdf":
		doc, err := pdfDocument(source)
		if err != nil {
			return nil, err
		}
		doc.Subject = subject
		doc.Source = source
		return doc, nil

	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return &Document{Text: cleanText(string(data)), Subject: subject, Source: source}, nil
	}
}

// loadURL fetches a URL and converts HTML and PDF bodies to text
func (l *Loader) loadURL(ctx context.Context, rawURL string) (*Document, error) {
	if l.fetcher == nil {
		return nil, fmt.Errorf("URL sources are not supported")
	}

	result, err := l.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	meta := result.Meta
	doc := &Document{Subject: result.Subject, Source: result.FinalURL, FetchMeta: &meta}
	if result.Truncated {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("response body truncated at %d bytes", len(result.Body)))
	}

	switch {
	case result.IsPDF():
		pdfDoc, err := extract.PDFTextFromBytes(result.Body)
		if err != nil {
			return nil, err
		}
		doc.Text = pdfDoc.Text
		doc.Warnings = append(doc.Warnings, pdfWarnings(pdfDoc)...)

	case result.IsHTML():
		htmlDoc, err := extract.HTMLText(string(result.Body))
		if err != nil {
			return nil, err
		}
		doc.Text = htmlDoc.Text
		if htmlDoc.Title != "" {
			doc.Subject = htmlDoc.Title
		}

	default:
		doc.Text = cleanText(string(result.Body))
	}

	return doc, nil
}

func pdfDocument(path string) (*Document, error) {
	pdfDoc, err := extract.PDFText(path)
	if err != nil {
		return nil, err
	}
	return &Document{Text: pdfDoc.Text, Warnings: pdfWarnings(pdfDoc)}, nil
}

func pdfWarnings(pdfDoc *extract.PDFDocument) []string {
	if !pdfDoc.Truncated {
		return nil
	}
	return []string{fmt.Sprintf("PDF truncated: read the first %d of %d pages", extract.MaxPDFPages, pdfDoc.PageCount)}
}

// cleanText normalizes line endings so paragraphs split on "\n" only
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
