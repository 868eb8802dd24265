package domain

// Document represents a single input file resolved from the run descriptor.
type Document struct {
	Name string
	URL  string
	Data []byte
}

// TextUnit is one candidate passage: a single page of a document.
type TextUnit struct {
	Document  string
	PageIndex int
	Text      string
	Title     string
	// Score is the cosine similarity to the query; meaningful only when Scored is set.
	Score  float64
	Scored bool
}

// SearchResult represents a stored unit with its similarity to a query vector.
// Position is the index of the unit in the batch passed to Upsert.
type SearchResult struct {
	Unit     TextUnit
	Position int
	Score    float64
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
