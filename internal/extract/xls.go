package extract

import (
	"bytes"
	"fmt"
	"iter"
	"strconv"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"

	"docrank/internal/domain"
)

// XLSExtractor handles legacy BIFF workbooks, one page per sheet.
type XLSExtractor struct{}

func NewXLSExtractor() *XLSExtractor { return &XLSExtractor{} }

func (x *XLSExtractor) ExtractText(data []byte) (iter.Seq[Page], error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}
	return func(yield func(Page) bool) {
		for i := 0; i < wb.GetNumberSheets(); i++ {
			sheet, err := wb.GetSheet(i)
			if err != nil || sheet == nil {
				if !yield(Page{Index: i, Err: fmt.Errorf("%w: sheet %d: %v", domain.ErrUnreadablePage, i, err)}) {
					return
				}
				continue
			}
			var rows [][]string
			for _, row := range sheet.GetRows() {
				cols := row.GetCols()
				values := make([]string, len(cols))
				for j, c := range cols {
					values[j] = cellText(c)
				}
				rows = append(rows, values)
			}
			if !yield(Page{Index: i, Text: sheetText(sheet.GetName(), rows)}) {
				return
			}
		}
	}, nil
}

// cellText renders a legacy cell. Numeric cells have no string form, so
// the float reading wins over the integer one when both are set.
func cellText(c structure.CellData) string {
	if s := c.GetString(); s != "" {
		return s
	}
	switch f, n := c.GetFloat64(), c.GetInt64(); {
	case f != 0:
		return strconv.FormatFloat(f, 'f', -1, 64)
	case n != 0:
		return strconv.FormatInt(n, 10)
	default:
		return ""
	}
}
