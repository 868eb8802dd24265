package extract

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docrank/internal/domain"
)

const (
	// DefaultMinChars is the trimmed length a page must exceed to become a unit.
	DefaultMinChars = 50
	// DefaultTitleMaxChars caps the title derived from a page's leading line.
	DefaultTitleMaxChars = 60
)

// Page is the raw text of one page, or the error that prevented reading it.
type Page struct {
	Index int
	Text  string
	Err   error
}

// TextExtractor turns a document's bytes into its pages in document order.
// An error return means the document could not be opened at all.
type TextExtractor interface {
	ExtractText(data []byte) (iter.Seq[Page], error)
}

// Options configures unit construction.
type Options struct {
	MinChars      int
	TitleMaxChars int
	Logger        *slog.Logger
}

// Extractor builds page-level text units using the extractor registered for a
// document's file extension.
type Extractor struct {
	minChars      int
	titleMaxChars int
	logger        *slog.Logger
	byExt         map[string]TextExtractor
}

// New creates an Extractor with the built-in PDF, spreadsheet and plain text back-ends.
func New(opts Options) *Extractor {
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	if opts.TitleMaxChars <= 0 {
		opts.TitleMaxChars = DefaultTitleMaxChars
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		minChars:      opts.MinChars,
		titleMaxChars: opts.TitleMaxChars,
		logger:        logger,
		byExt:         make(map[string]TextExtractor),
	}
	e.Register(".pdf", NewPDFExtractor())
	e.Register(".xlsx", NewXLSXExtractor())
	e.Register(".xls", NewXLSExtractor())
	e.Register(".txt", NewPlainTextExtractor())
	e.Register(".md", NewPlainTextExtractor())
	return e
}

// Register sets the extractor used for a file extension (with leading dot).
func (e *Extractor) Register(ext string, te TextExtractor) {
	e.byExt[strings.ToLower(ext)] = te
}

// Supports reports whether a document name has a registered extractor.
func (e *Extractor) Supports(name string) bool {
	_, ok := e.byExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extract returns the lazy sequence of text units for doc. The sequence is
// meant to be consumed once. Pages that fail are logged and skipped.
func (e *Extractor) Extract(doc domain.Document) (iter.Seq[domain.TextUnit], error) {
	te, ok := e.byExt[strings.ToLower(filepath.Ext(doc.Name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, doc.Name)
	}
	pages, err := te.ExtractText(doc.Data)
	if err != nil {
		if errors.Is(err, domain.ErrUnreadableDocument) {
			return nil, fmt.Errorf("%s: %w", doc.Name, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUnreadableDocument, doc.Name, err)
	}
	return e.Units(doc.Name, pages), nil
}

// Units applies the length filter and title rule to a page sequence.
func (e *Extractor) Units(document string, pages iter.Seq[Page]) iter.Seq[domain.TextUnit] {
	return func(yield func(domain.TextUnit) bool) {
		for p := range pages {
			if p.Err != nil {
				e.logger.Warn("skipping page", "document", document, "page", p.Index, "error", p.Err)
				continue
			}
			unit, ok := NewTextUnit(document, p.Index, p.Text, e.minChars, e.titleMaxChars)
			if !ok {
				continue
			}
			if !yield(unit) {
				return
			}
		}
	}
}

// NewTextUnit builds a unit from raw page text. It reports false when the
// trimmed text is not longer than minChars.
func NewTextUnit(document string, pageIndex int, raw string, minChars, titleMaxChars int) (domain.TextUnit, bool) {
	text := strings.TrimSpace(raw)
	if utf8.RuneCountInString(text) <= minChars {
		return domain.TextUnit{}, false
	}
	return domain.TextUnit{
		Document:  document,
		PageIndex: pageIndex,
		Text:      text,
		Title:     Title(text, titleMaxChars),
	}, true
}

// Title returns the first line of text cut to at most maxChars runes.
func Title(text string, maxChars int) string {
	line, _, _ := strings.Cut(text, "\n")
	if utf8.RuneCountInString(line) <= maxChars {
		return line
	}
	runes := []rune(line)
	return string(runes[:maxChars])
}
