package embedding

import "context"

// Embedder converts free text into numeric vectors.
// Implementations may require a preparation phase over the corpus.
// Embed must return one vector per input text, in input order.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
