package vectorstore

import (
	"context"

	"docrank/internal/domain"
)

// Storage holds unit vectors for one run and scores them against a query by
// cosine similarity.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, units []domain.TextUnit, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Clear(ctx context.Context) error
}
