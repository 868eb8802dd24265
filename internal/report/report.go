// Package report assembles ranked sections into the persona output document
// and writes it to its destination.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viant/afs"

	"docrank/internal/domain"
)

// MaxSections caps the emitted sections independently of the selector width.
const MaxSections = 5

// TimestampLayout is ISO-8601 in UTC with a literal Z designator.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Metadata describes the run that produced a result.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// ExtractedSection is one ranked section; PageNumber is zero-based.
type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// SubsectionAnalysis carries the full text of a ranked section.
type SubsectionAnalysis struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Result is the output document.
type Result struct {
	Metadata           Metadata             `json:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections"`
	SubsectionAnalysis []SubsectionAnalysis `json:"subsection_analysis"`
}

// Build formats ranked units, already sorted by relevance. At most limit
// sections are emitted (MaxSections when limit <= 0). Input documents are
// the distinct documents of the emitted sections, in rank order.
func Build(ranked []domain.TextUnit, persona, task string, now time.Time, limit int) *Result {
	if limit <= 0 {
		limit = MaxSections
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	res := &Result{
		Metadata: Metadata{
			InputDocuments:      make([]string, 0, len(ranked)),
			Persona:             persona,
			JobToBeDone:         task,
			ProcessingTimestamp: now.UTC().Format(TimestampLayout),
		},
		ExtractedSections:  make([]ExtractedSection, 0, len(ranked)),
		SubsectionAnalysis: make([]SubsectionAnalysis, 0, len(ranked)),
	}
	seen := make(map[string]struct{}, len(ranked))
	for i, u := range ranked {
		if _, ok := seen[u.Document]; !ok {
			seen[u.Document] = struct{}{}
			res.Metadata.InputDocuments = append(res.Metadata.InputDocuments, u.Document)
		}
		res.ExtractedSections = append(res.ExtractedSections, ExtractedSection{
			Document:       u.Document,
			SectionTitle:   u.Title,
			ImportanceRank: i + 1,
			PageNumber:     u.PageIndex,
		})
		res.SubsectionAnalysis = append(res.SubsectionAnalysis, SubsectionAnalysis{
			Document:    u.Document,
			RefinedText: u.Text,
			PageNumber:  u.PageIndex,
		})
	}
	return res
}

// Marshal renders r as indented JSON.
func Marshal(r *Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Writer uploads results to any location afs understands (local paths,
// file://, mem://, cloud storage schemes).
type Writer struct {
	fs afs.Service
}

func NewWriter(fs afs.Service) *Writer {
	if fs == nil {
		fs = afs.New()
	}
	return &Writer{fs: fs}
}

// Write serializes r and stores it at URL in a single upload.
func (w *Writer) Write(ctx context.Context, URL string, r *Result) error {
	data, err := Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := w.fs.Upload(ctx, URL, 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", URL, err)
	}
	return nil
}
