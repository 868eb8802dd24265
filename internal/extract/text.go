package extract

import (
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"docrank/internal/domain"
)

// PlainTextExtractor reads UTF-8 text where a form feed separates pages.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor { return &PlainTextExtractor{} }

func (x *PlainTextExtractor) ExtractText(data []byte) (iter.Seq[Page], error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not valid UTF-8", domain.ErrUnreadableDocument)
	}
	pages := strings.Split(string(data), "\f")
	return func(yield func(Page) bool) {
		for i, text := range pages {
			if !yield(Page{Index: i, Text: text}) {
				return
			}
		}
	}, nil
}
