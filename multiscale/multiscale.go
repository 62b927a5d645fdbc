package multiscale

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidDimension indicates an embedding dimension outside
// (1, components].
type ErrInvalidDimension struct {
	M          int
	Components int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid embedding dimension %d: must be in (1, %d]", e.M, e.Components)
}

// Embed builds the multiscale embedding from the leading m eigenpairs:
// columns 1..m-1 of the eigenvector matrix, each scaled by ev/(1-ev).
// Component 0, the trivial stationary mode, is always dropped. An
// eigenvalue of exactly 1 among the kept components produces infinities
// and indicates a disconnected similarity graph.
func Embed(values []float64, vectors *mat.Dense, m int) (*mat.Dense, error) {
	if m <= 1 || m > len(values) {
		return nil, &ErrInvalidDimension{M: m, Components: len(values)}
	}

	n, _ := vectors.Dims()
	embedding := mat.NewDense(n, m-1, nil)

	for j := 1; j < m; j++ {
		scale := values[j] / (1 - values[j])
		for i := 0; i < n; i++ {
			embedding.Set(i, j-1, vectors.At(i, j)*scale)
		}
	}

	return embedding, nil
}
