package kernel

import (
	"fmt"
	"sort"

	"github.com/hupe1980/diffmap/neighbors"
)

// ErrTooFewNeighbors indicates a graph row with fewer stored distances
// than the adaptive neighbor rank requires.
type ErrTooFewNeighbors struct {
	Row       int
	Stored    int
	AdaptiveK int
}

func (e *ErrTooFewNeighbors) Error() string {
	return fmt.Sprintf("row %d has %d stored neighbors, adaptive bandwidth needs %d", e.Row, e.Stored, e.AdaptiveK)
}

// AdaptiveK returns the neighbor rank used for bandwidth estimation:
// half the graph's neighbor count, rounded down.
func AdaptiveK(k int) int { return k / 2 }

// EstimateBandwidths computes the per-sample bandwidth sigma: for each
// row the adaptiveK-th smallest stored distance (1-indexed). A duplicate
// point yields sigma 0, which downstream kernel construction treats as
// full similarity rather than a division error.
func EstimateBandwidths(g *neighbors.Graph, adaptiveK int) ([]float64, error) {
	if adaptiveK < 1 {
		return nil, &ErrTooFewNeighbors{Row: -1, Stored: 0, AdaptiveK: adaptiveK}
	}

	n := g.NumSamples()
	sigma := make([]float64, n)
	dists := make([]float64, 0, g.K)

	for i := 0; i < n; i++ {
		row := g.Rows[i]
		if len(row) < adaptiveK {
			return nil, &ErrTooFewNeighbors{Row: i, Stored: len(row), AdaptiveK: adaptiveK}
		}

		dists = dists[:0]
		for _, e := range row {
			dists = append(dists, e.Distance)
		}
		sort.Float64s(dists)
		sigma[i] = dists[adaptiveK-1]
	}

	return sigma, nil
}
