package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// MaxPDFPages bounds how many pages are read from one PDF
const MaxPDFPages = 50

// PDFDocument is the text of a PDF file
type PDFDocument struct {
	Text      string
	PageCount int // pages in the file
	PagesRead int // pages that produced text
	Truncated bool
}

// PDFText validates a PDF with pdfcpu, then extracts page text with
// ledongthuc/pdf. Pages are separated by a blank line.
func PDFText(path string) (*PDFDocument, error) {
	conf := pdfmodel.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc := &PDFDocument{PageCount: r.NumPage()}
	limit := doc.PageCount
	if limit > MaxPDFPages {
		limit = MaxPDFPages
		doc.Truncated = true
	}

	var pages []string
	for i := 1; i <= limit; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = cleanPageText(text)
		if text == "" {
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in PDF (scanned image?)")
	}

	doc.PagesRead = len(pages)
	doc.Text = strings.Join(pages, "\n\n")
	return doc, nil
}

// PDFTextFromBytes spools an in-memory PDF to a temp file and extracts it
func PDFTextFromBytes(data []byte) (*PDFDocument, error) {
	tmp, err := os.CreateTemp("", "clauselens-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	return PDFText(tmp.Name())
}

// cleanPageText trims trailing spaces and surrounding blank lines
func cleanPageText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n ")
}
