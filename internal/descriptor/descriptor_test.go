package descriptor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"docrank/internal/domain"
)

const sample = `{
  "challenge_info": {"challenge_id": "round_1b_002", "test_case_name": "travel_planner"},
  "documents": [
    {"filename": "South of France - Cities.pdf", "title": "Cities"},
    {"filename": "South of France - Cuisine.pdf", "title": "Cuisine"}
  ],
  "persona": {"role": "Travel Planner"},
  "job_to_be_done": {"task": "Plan a trip of 4 days for a group of 10 college friends."}
}`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "Travel Planner", d.Persona.Role)
	assert.Equal(t, "Plan a trip of 4 days for a group of 10 college friends.", d.JobToBeDone.Task)
	assert.Equal(t, []string{"South of France - Cities.pdf", "South of France - Cuisine.pdf"}, d.Filenames())
	assert.Equal(t, "round_1b_002", d.ChallengeInfo["challenge_id"])
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":       `{`,
		"missing role":    `{"persona":{},"job_to_be_done":{"task":"x"}}`,
		"missing persona": `{"job_to_be_done":{"task":"x"}}`,
		"missing task":    `{"persona":{"role":"r"},"job_to_be_done":{}}`,
		"null task":       `{"persona":{"role":"r"},"job_to_be_done":{"task":null}}`,
		"blank filename":  `{"persona":{"role":"r"},"job_to_be_done":{"task":"t"},"documents":[{"filename":""}]}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestParse_KeepsBlankRoleAndTask(t *testing.T) {
	d, err := Parse([]byte(`{"persona":{"role":""},"job_to_be_done":{"task":"  "},"documents":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "", d.Persona.Role)
	assert.Equal(t, "  ", d.JobToBeDone.Task)
	assert.Empty(t, d.Filenames())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	d, err := Load(context.Background(), afs.New(), path)
	require.NoError(t, err)
	assert.Len(t, d.Documents, 2)

	_, err = Load(context.Background(), afs.New(), filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}
