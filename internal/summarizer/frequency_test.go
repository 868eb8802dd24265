package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_PicksFrequentSentencesInOrder(t *testing.T) {
	text := "Vendor risk dominates the register. The weather was pleasant. " +
		"Vendor concentration raises supply risk. Lunch was served at noon."
	s := NewFrequencySummarizer()
	got, err := s.Summarize(text, 2)
	require.NoError(t, err)
	assert.Equal(t, "Vendor risk dominates the register. Vendor concentration raises supply risk.", got)
}

func TestSummarize_NoSentenceTerminators(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize("  heading only  ", 3)
	require.NoError(t, err)
	assert.Equal(t, "heading only", got)
}

func TestSummarize_DefaultsAndBounds(t *testing.T) {
	text := strings.Repeat("One sentence here. ", 3)
	got, err := NewFrequencySummarizer().Summarize(text, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(got, "."))
}
