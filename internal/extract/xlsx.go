package extract

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	"github.com/xuri/excelize/v2"

	"docrank/internal/domain"
)

// XLSXExtractor treats every worksheet of a workbook as one page.
type XLSXExtractor struct{}

func NewXLSXExtractor() *XLSXExtractor { return &XLSXExtractor{} }

func (x *XLSXExtractor) ExtractText(data []byte) (iter.Seq[Page], error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}
	sheets := f.GetSheetList()
	return func(yield func(Page) bool) {
		defer func() { _ = f.Close() }()
		for i, sheet := range sheets {
			rows, err := f.GetRows(sheet)
			if err != nil {
				if !yield(Page{Index: i, Err: fmt.Errorf("%w: sheet %s: %v", domain.ErrUnreadablePage, sheet, err)}) {
					return
				}
				continue
			}
			if !yield(Page{Index: i, Text: sheetText(sheet, rows)}) {
				return
			}
		}
	}, nil
}

// sheetText renders a sheet with its name as the leading line and one
// tab-separated line per non-empty row.
func sheetText(name string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, row := range rows {
		line := strings.TrimSpace(strings.Join(row, "\t"))
		if line == "" {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return b.String()
}
