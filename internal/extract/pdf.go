package extract

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/ledongthuc/pdf"

	"docrank/internal/domain"
)

// PDFExtractor reads page text with github.com/ledongthuc/pdf.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// ExtractText opens the PDF and yields its pages lazily. A page whose content
// stream cannot be decoded is yielded with an error instead of text.
func (x *PDFExtractor) ExtractText(data []byte) (iter.Seq[Page], error) {
	r, numPages, err := openPDF(data)
	if err != nil {
		return nil, err
	}
	return func(yield func(Page) bool) {
		for i := 0; i < numPages; i++ {
			text, err := pdfPageText(r, i+1)
			if !yield(Page{Index: i, Text: text, Err: err}) {
				return
			}
		}
	}, nil
}

func openPDF(data []byte) (r *pdf.Reader, numPages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, numPages = nil, 0
			err = fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, rec)
		}
	}()
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%w: empty file", domain.ErrUnreadableDocument)
	}
	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}
	return r, r.NumPage(), nil
}

// pdfPageText extracts one page (1-based num); the decoder panics on some
// malformed streams.
func pdfPageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%w: %v", domain.ErrUnreadablePage, rec)
		}
	}()
	p := r.Page(num)
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnreadablePage, err)
	}
	return text, nil
}
