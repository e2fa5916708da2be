package retrieval

import (
	"fmt"
	"sort"
)

// Index is an exact nearest-neighbour index over a small fixed set of
// vectors. It is immutable after NewIndex and safe for concurrent reads.
type Index struct {
	vectors [][]float32
	dim     int
}

// Match is one search hit: the position of the vector passed to NewIndex and
// its squared Euclidean distance to the query.
type Match struct {
	Document int
	Distance float32
}

// NewIndex copies vectors into a new index. An empty set is valid; vectors of
// differing length are not.
func NewIndex(vectors [][]float32) (*Index, error) {
	idx := &Index{vectors: make([][]float32, len(vectors))}
	for i, v := range vectors {
		if i == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, fmt.Errorf("vector %d has length %d, want %d", i, len(v), idx.dim)
		}
		idx.vectors[i] = append([]float32(nil), v...)
	}
	return idx, nil
}

func (idx *Index) Len() int {
	return len(idx.vectors)
}

// Dim is the shared vector length, 0 for an empty index.
func (idx *Index) Dim() int {
	return idx.dim
}

// Search returns the min(k, Len()) nearest vectors by ascending squared
// Euclidean distance. Ties keep insertion order. An empty index yields an
// empty result.
func (idx *Index) Search(query []float32, k int) ([]Match, error) {
	if len(idx.vectors) == 0 || k <= 0 {
		return []Match{}, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query has length %d, want %d", len(query), idx.dim)
	}

	matches := make([]Match, len(idx.vectors))
	for i, v := range idx.vectors {
		matches[i] = Match{Document: i, Distance: squaredL2(query, v)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
