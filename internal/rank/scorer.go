package rank

import (
	"context"
	"fmt"
	"log/slog"

	"docrank/internal/domain"
	"docrank/internal/embedding"
	"docrank/internal/vectorstore"
)

// Scorer assigns each text unit its cosine similarity to a query.
type Scorer struct {
	embedder embedding.Embedder
	store    vectorstore.Storage
	logger   *slog.Logger
}

func NewScorer(embedder embedding.Embedder, store vectorstore.Storage, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{embedder: embedder, store: store, logger: logger}
}

// Score embeds all unit texts in one call and the query in one call, then
// returns copies of units with Score set. The input slice is not modified.
// An empty candidate set returns ErrEmptyCandidateSet without embedding.
func (s *Scorer) Score(ctx context.Context, units []domain.TextUnit, query string) ([]domain.TextUnit, error) {
	if len(units) == 0 {
		return nil, domain.ErrEmptyCandidateSet
	}
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}
	if err := s.embedder.Prepare(texts); err != nil {
		return nil, embeddingError("prepare", err)
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, embeddingError("embed units", err)
	}
	queryVectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, embeddingError("embed query", err)
	}
	if len(vectors) != len(units) || len(queryVectors) != 1 {
		return nil, fmt.Errorf("%w: got %d unit vectors for %d units and %d query vectors",
			domain.ErrEmbeddingFailed, len(vectors), len(units), len(queryVectors))
	}
	dimension := len(queryVectors[0])
	if dimension == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrEmbeddingFailed)
	}
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, query has %d",
				domain.ErrEmbeddingFailed, i, len(v), dimension)
		}
	}
	s.logger.Debug("embedded candidates", "embedder", s.embedder.Name(), "units", len(units), "dimension", dimension)

	if err := s.store.Clear(ctx); err != nil {
		return nil, embeddingError("clear store", err)
	}
	if err := s.store.Init(ctx, dimension); err != nil {
		return nil, embeddingError("init store", err)
	}
	if err := s.store.Upsert(ctx, units, vectors); err != nil {
		return nil, embeddingError("upsert", err)
	}
	results, err := s.store.Search(ctx, queryVectors[0], len(units))
	if err != nil {
		return nil, embeddingError("search", err)
	}

	scored := make([]domain.TextUnit, len(units))
	copy(scored, units)
	for _, r := range results {
		if r.Position < 0 || r.Position >= len(scored) {
			return nil, fmt.Errorf("%w: store returned unknown position %d", domain.ErrEmbeddingFailed, r.Position)
		}
		scored[r.Position].Score = r.Score
		scored[r.Position].Scored = true
	}
	for i, u := range scored {
		if !u.Scored {
			return nil, fmt.Errorf("%w: no score for %s page %d", domain.ErrEmbeddingFailed, u.Document, units[i].PageIndex)
		}
	}
	return scored, nil
}

func embeddingError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingFailed, stage, err)
}
