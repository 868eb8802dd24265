package extract

import (
	"errors"
	"iter"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrank/internal/domain"
)

func pagesOf(pages ...Page) iter.Seq[Page] {
	return slices.Values(pages)
}

func TestNewTextUnit_LengthFilter(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"empty", "", false},
		{"whitespace only", "   \n\t  ", false},
		{"exactly fifty", strings.Repeat("a", 50), false},
		{"fifty one", strings.Repeat("a", 51), true},
		{"padded fifty", "   " + strings.Repeat("b", 50) + "\n\n", false},
		{"multibyte counts runes", strings.Repeat("é", 50), false},
		{"multibyte over limit", strings.Repeat("é", 51), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := NewTextUnit("doc.pdf", 0, tt.raw, DefaultMinChars, DefaultTitleMaxChars)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestNewTextUnit_TrimsAndTitles(t *testing.T) {
	raw := "\n  Quarterly Risk Review\nRevenue exposure grew across every region this quarter.  \n"
	unit, ok := NewTextUnit("report.pdf", 3, raw, DefaultMinChars, DefaultTitleMaxChars)
	require.True(t, ok)
	assert.Equal(t, "report.pdf", unit.Document)
	assert.Equal(t, 3, unit.PageIndex)
	assert.Equal(t, strings.TrimSpace(raw), unit.Text)
	assert.Equal(t, "Quarterly Risk Review", unit.Title)
	assert.False(t, unit.Scored)
}

func TestTitle_Truncation(t *testing.T) {
	long := strings.Repeat("x", 75) + "\nsecond line"
	title := Title(long, 60)
	assert.Equal(t, strings.Repeat("x", 60), title)

	short := Title("Short heading\nbody", 60)
	assert.Equal(t, "Short heading", short)

	wide := Title(strings.Repeat("界", 70), 60)
	assert.Equal(t, 60, utf8.RuneCountInString(wide))
	assert.True(t, utf8.ValidString(wide))
}

func TestUnits_PreservesPageIndexAcrossSkips(t *testing.T) {
	e := New(Options{})
	long := strings.Repeat("relevant text ", 10)
	pages := pagesOf(
		Page{Index: 0, Text: long},
		Page{Index: 1, Text: "too short"},
		Page{Index: 2, Err: domain.ErrUnreadablePage},
		Page{Index: 3, Text: long},
	)

	var got []int
	for u := range e.Units("a.pdf", pages) {
		got = append(got, u.PageIndex)
		assert.LessOrEqual(t, utf8.RuneCountInString(u.Title), DefaultTitleMaxChars)
	}
	assert.Equal(t, []int{0, 3}, got)
}

func TestUnits_StopsWhenConsumerStops(t *testing.T) {
	e := New(Options{})
	long := strings.Repeat("y", 80)
	pulled := 0
	pages := func(yield func(Page) bool) {
		for i := 0; i < 10; i++ {
			pulled++
			if !yield(Page{Index: i, Text: long}) {
				return
			}
		}
	}
	for range e.Units("a.txt", pages) {
		break
	}
	assert.Equal(t, 1, pulled)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := New(Options{})
	_, err := e.Extract(domain.Document{Name: "image.png", Data: []byte{0x89}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
	assert.False(t, e.Supports("image.png"))
	assert.True(t, e.Supports("REPORT.PDF"))
}

func TestExtract_PlainTextPages(t *testing.T) {
	e := New(Options{})
	body := strings.Repeat("Supply chain risk is concentrated in two vendors. ", 4)
	data := []byte("Overview\n" + body + "\fshort page\fAppendix\n" + body)

	seq, err := e.Extract(domain.Document{Name: "notes.txt", Data: data})
	require.NoError(t, err)
	units := slices.Collect(seq)
	require.Len(t, units, 2)
	assert.Equal(t, 0, units[0].PageIndex)
	assert.Equal(t, "Overview", units[0].Title)
	assert.Equal(t, 2, units[1].PageIndex)
	assert.Equal(t, "Appendix", units[1].Title)
}

func TestExtract_PlainTextInvalidUTF8(t *testing.T) {
	e := New(Options{})
	_, err := e.Extract(domain.Document{Name: "bad.txt", Data: []byte{0xff, 0xfe, 0xfd}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnreadableDocument))
}

func TestExtract_CustomThresholds(t *testing.T) {
	e := New(Options{MinChars: 5, TitleMaxChars: 4})
	seq, err := e.Extract(domain.Document{Name: "n.md", Data: []byte("abcdefgh")})
	require.NoError(t, err)
	units := slices.Collect(seq)
	require.Len(t, units, 1)
	assert.Equal(t, "abcd", units[0].Title)
}
