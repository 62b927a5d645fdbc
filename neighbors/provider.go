package neighbors

import (
	"context"
	"fmt"
)

// Edge is a stored neighbor of a row: the neighbor's sample index and
// the distance to it in the provider's metric.
type Edge struct {
	Index    int
	Distance float64
}

// Graph is a k-nearest-neighbor graph over N samples. Row i holds i's
// neighbors ordered by ascending distance, self edge excluded. The graph
// is generally asymmetric: i listing j does not imply j listing i.
type Graph struct {
	K    int
	Rows [][]Edge
}

// NumSamples returns the number of rows in the graph.
func (g *Graph) NumSamples() int { return len(g.Rows) }

// Provider produces a k-nearest-neighbor graph for a sample set.
//
// Implementations must return exactly k edges per row with non-negative
// distances and the self edge removed, and must fail if fewer than k
// neighbors exist. The query phase must be safe to invoke concurrently
// for disjoint batches of rows.
type Provider interface {
	KNNGraph(ctx context.Context, data [][]float64, k int) (*Graph, error)
}

// ErrTooFewSamples indicates a dataset too small for the requested
// neighbor count.
type ErrTooFewSamples struct {
	Samples int
	K       int
}

func (e *ErrTooFewSamples) Error() string {
	return fmt.Sprintf("not enough samples for k=%d neighbors: have %d, need at least %d", e.K, e.Samples, e.K+1)
}

// Recall measures how well an approximate graph recovers the neighbors
// of an exact one: the mean fraction of true neighbor indices per row
// that the approximate graph also stores. Both graphs must cover the
// same sample set.
func Recall(exact, approx *Graph) float64 {
	n := exact.NumSamples()
	if n == 0 {
		return 0
	}

	var total float64
	for i := 0; i < n; i++ {
		truth := make(map[int]struct{}, len(exact.Rows[i]))
		for _, e := range exact.Rows[i] {
			truth[e.Index] = struct{}{}
		}
		if len(truth) == 0 {
			total++
			continue
		}
		hits := 0
		for _, e := range approx.Rows[i] {
			if _, ok := truth[e.Index]; ok {
				hits++
			}
		}
		total += float64(hits) / float64(len(truth))
	}

	return total / float64(n)
}
