package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"docrank/internal/domain"
)

func ranked(docs ...string) []domain.TextUnit {
	out := make([]domain.TextUnit, len(docs))
	for i, d := range docs {
		out[i] = domain.TextUnit{
			Document:  d,
			PageIndex: i * 2,
			Title:     "Title " + d,
			Text:      "Full text of " + d,
			Score:     1 - float64(i)/10,
			Scored:    true,
		}
	}
	return out
}

func TestBuild_RanksAndMetadata(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 30, 0, 123456000, time.FixedZone("CEST", 2*3600))
	res := Build(ranked("a.pdf", "b.pdf", "c.pdf"), "Analyst", "find risks", now, 0)

	assert.Equal(t, "Analyst", res.Metadata.Persona)
	assert.Equal(t, "find risks", res.Metadata.JobToBeDone)
	assert.Equal(t, "2026-10-19T06:30:00.123456Z", res.Metadata.ProcessingTimestamp)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, res.Metadata.InputDocuments)

	require.Len(t, res.ExtractedSections, 3)
	require.Len(t, res.SubsectionAnalysis, 3)
	for i, s := range res.ExtractedSections {
		assert.Equal(t, i+1, s.ImportanceRank)
		assert.Equal(t, i*2, s.PageNumber)
		assert.Equal(t, s.Document, res.SubsectionAnalysis[i].Document)
		assert.Equal(t, s.PageNumber, res.SubsectionAnalysis[i].PageNumber)
	}
	assert.Equal(t, "Title b.pdf", res.ExtractedSections[1].SectionTitle)
	assert.Equal(t, "Full text of c.pdf", res.SubsectionAnalysis[2].RefinedText)
}

func TestBuild_CapsAtFiveAndCountsOnlyEmitted(t *testing.T) {
	res := Build(ranked("a", "b", "c", "d", "e", "f", "g"), "p", "t", time.Now(), 0)
	assert.Len(t, res.ExtractedSections, MaxSections)
	assert.Len(t, res.SubsectionAnalysis, MaxSections)
	assert.NotContains(t, res.Metadata.InputDocuments, "f")
	assert.Len(t, res.Metadata.InputDocuments, MaxSections)

	res = Build(ranked("a", "b", "c"), "p", "t", time.Now(), 2)
	assert.Len(t, res.ExtractedSections, 2)
}

func TestMarshal_Shape(t *testing.T) {
	data, err := Marshal(Build(nil, "p", "t", time.Now(), 0))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 3)
	assert.JSONEq(t, `[]`, string(raw["extracted_sections"]))
	assert.JSONEq(t, `[]`, string(raw["subsection_analysis"]))

	var meta map[string]any
	require.NoError(t, json.Unmarshal(raw["metadata"], &meta))
	for _, key := range []string{"input_documents", "persona", "job_to_be_done", "processing_timestamp"} {
		assert.Contains(t, meta, key)
	}
	assert.True(t, strings.HasSuffix(meta["processing_timestamp"].(string), "Z"))
	assert.Contains(t, string(data), "\n  \"metadata\"")
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "persona_output.json")
	w := NewWriter(afs.New())
	require.NoError(t, w.Write(context.Background(), out, Build(ranked("a.pdf"), "p", "t", time.Now(), 0)))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var res Result
	require.NoError(t, json.Unmarshal(data, &res))
	require.Len(t, res.ExtractedSections, 1)
	assert.Equal(t, "a.pdf", res.ExtractedSections[0].Document)
	assert.Equal(t, 1, res.ExtractedSections[0].ImportanceRank)
}
