package descriptor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viant/afs"

	"docrank/internal/domain"
)

// DefaultFile is the descriptor file name looked up in the input location.
const DefaultFile = "challenge1b_input.json"

// Persona is the user role driving relevance.
type Persona struct {
	Role string `json:"role"`
}

// Job is the task the persona needs to accomplish.
type Job struct {
	Task string `json:"task"`
}

// DocumentRef names one input document relative to the input location.
type DocumentRef struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
}

// Descriptor is the run input: persona, job and the ordered document list.
type Descriptor struct {
	ChallengeInfo map[string]any `json:"challenge_info,omitempty"`
	Documents     []DocumentRef  `json:"documents"`
	Persona       Persona        `json:"persona"`
	JobToBeDone   Job            `json:"job_to_be_done"`
}

// Load downloads and parses the descriptor at URL.
func Load(ctx context.Context, fs afs.Service, URL string) (*Descriptor, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("read descriptor %s: %w", URL, err)
	}
	return Parse(data)
}

// presence records which required string fields were present at all.
type presence struct {
	Persona struct {
		Role *string `json:"role"`
	} `json:"persona"`
	JobToBeDone struct {
		Task *string `json:"task"`
	} `json:"job_to_be_done"`
}

// Parse decodes a descriptor and checks required fields. Role and task are
// taken as given; only their absence is an error.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: descriptor: %v", domain.ErrInvalidInput, err)
	}
	var p presence
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: descriptor: %v", domain.ErrInvalidInput, err)
	}
	if p.Persona.Role == nil {
		return nil, fmt.Errorf("%w: descriptor: persona.role is required", domain.ErrInvalidInput)
	}
	if p.JobToBeDone.Task == nil {
		return nil, fmt.Errorf("%w: descriptor: job_to_be_done.task is required", domain.ErrInvalidInput)
	}
	for i, doc := range d.Documents {
		if strings.TrimSpace(doc.Filename) == "" {
			return nil, fmt.Errorf("%w: descriptor: documents[%d].filename is required", domain.ErrInvalidInput, i)
		}
	}
	return &d, nil
}

// Filenames returns the document file names in listed order.
func (d *Descriptor) Filenames() []string {
	out := make([]string, len(d.Documents))
	for i, doc := range d.Documents {
		out[i] = doc.Filename
	}
	return out
}
