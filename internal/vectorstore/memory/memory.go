package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"docrank/internal/domain"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Vectors are L2-normalized on insert so similarity is a plain dot product.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	units     []domain.TextUnit
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.units = nil
	return nil
}

func (s *Storage) Upsert(_ context.Context, units []domain.TextUnit, vectors [][]float64) error {
	if len(units) != len(vectors) {
		return errors.New("units and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	normalized := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		normalized[i] = normalize(v)
	}
	s.units = append(s.units, units...)
	s.vectors = append(s.vectors, normalized...)
	return nil
}

// Search returns the topK most similar units, highest score first. Equal
// scores keep insertion order.
func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vector) != s.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	if topK <= 0 {
		topK = 5
	}
	q := normalize(vector)
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = dot(s.vectors[i], q)
	}
	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{Unit: s.units[j], Position: j, Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.units = nil
	return nil
}

// normalize returns a unit-length copy of v; a zero vector stays zero.
func normalize(v []float64) []float64 {
	norm := math.Sqrt(dot(v, v))
	out := make([]float64, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool { return vals[idxs[i]] > vals[idxs[j]] })
	return idxs
}
