// Package similarity holds the pure vector math the clustering engine is
// built on: cosine similarity, centroids and pairwise averages.
package similarity

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when vectors of different lengths meet.
// Centroid and similarity math is undefined across dimensions, so callers
// treat this as fatal for the whole run.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Cosine returns the cosine similarity of a and b in [-1, 1]. A zero-length
// vector has no direction, so similarity against it is defined as 0 rather
// than an error.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Centroid returns the element-wise mean of the given vectors.
func Centroid(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	dim := len(vectors[0])
	sums := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, dim, len(v))
		}
		for i, x := range v {
			sums[i] += float64(x)
		}
	}

	centroid := make([]float32, dim)
	n := float64(len(vectors))
	for i, s := range sums {
		centroid[i] = float32(s / n)
	}
	return centroid, nil
}

// MeanPairwise returns the mean cosine similarity over all unordered pairs.
// A single vector has no pairs; its cohesion is defined as 1.
func MeanPairwise(vectors [][]float32) (float64, error) {
	if len(vectors) <= 1 {
		return 1.0, nil
	}

	var sum float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sim, err := Cosine(vectors[i], vectors[j])
			if err != nil {
				return 0, err
			}
			sum += sim
			pairs++
		}
	}
	return sum / float64(pairs), nil
}
