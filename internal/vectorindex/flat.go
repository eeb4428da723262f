// Package vectorindex provides an exact, flat squared-L2 vector index and the
// single-blob container used to persist it together with its id map.
//
// The index compares a query against every stored vector. There is no
// approximation, so results are exact nearest neighbours.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Errors returned by the index and container codec.
var (
	// ErrDimension indicates a vector does not match the index dimensionality.
	ErrDimension = errors.New("vectorindex: dimension mismatch")

	// ErrCorrupt indicates serialized data could not be decoded.
	ErrCorrupt = errors.New("vectorindex: corrupt data")
)

// MissingPosition pads search results when fewer than k vectors exist.
const MissingPosition = -1

// MissingDistance is the distance reported alongside MissingPosition.
const MissingDistance = float32(math.MaxFloat32)

// FlatL2 is an exhaustive squared Euclidean index. Vectors are stored
// row-major in insertion order; position i is the i-th added vector.
type FlatL2 struct {
	dim  int
	data []float32
}

// NewFlatL2 creates an empty index for vectors of the given dimensionality.
func NewFlatL2(dim int) (*FlatL2, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrDimension, dim)
	}
	return &FlatL2{dim: dim}, nil
}

// Dim returns the vector dimensionality.
func (f *FlatL2) Dim() int {
	return f.dim
}

// Len returns the number of stored vectors.
func (f *FlatL2) Len() int {
	return len(f.data) / f.dim
}

// Add appends vectors in order. Either all vectors are added or none.
func (f *FlatL2) Add(vectors ...[]float32) error {
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("%w: vector %d has %d values, index has %d", ErrDimension, i, len(v), f.dim)
		}
	}
	grown := make([]float32, len(f.data), len(f.data)+len(vectors)*f.dim)
	copy(grown, f.data)
	for _, v := range vectors {
		grown = append(grown, v...)
	}
	f.data = grown
	return nil
}

// Vector returns a copy of the vector stored at position i.
func (f *FlatL2) Vector(i int) ([]float32, bool) {
	if i < 0 || i >= f.Len() {
		return nil, false
	}
	out := make([]float32, f.dim)
	copy(out, f.data[i*f.dim:(i+1)*f.dim])
	return out, true
}

// Search returns exactly k (position, distance) pairs ordered by ascending
// squared L2 distance. Equal distances keep the lower position first.
// When the index holds fewer than k vectors the tail is padded with
// MissingPosition and MissingDistance.
func (f *FlatL2) Search(query []float32, k int) ([]int, []float32, error) {
	if len(query) != f.dim {
		return nil, nil, fmt.Errorf("%w: query has %d values, index has %d", ErrDimension, len(query), f.dim)
	}
	if k <= 0 {
		return []int{}, []float32{}, nil
	}

	n := f.Len()
	type hit struct {
		pos  int
		dist float32
	}
	hits := make([]hit, n)
	for i := 0; i < n; i++ {
		hits[i] = hit{pos: i, dist: SquaredL2(query, f.data[i*f.dim:(i+1)*f.dim])}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].dist < hits[b].dist
	})

	positions := make([]int, k)
	distances := make([]float32, k)
	for i := 0; i < k; i++ {
		if i < n {
			positions[i] = hits[i].pos
			distances[i] = hits[i].dist
			continue
		}
		positions[i] = MissingPosition
		distances[i] = MissingDistance
	}
	return positions, distances, nil
}

// SquaredL2 returns the squared Euclidean distance between equal-length vectors.
func SquaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
