package neighbors

import (
	"container/heap"
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/diffmap/distance"
)

// ExactOptions represents the options for configuring the exact provider.
type ExactOptions struct {
	// Jobs bounds the worker pool used for parallel queries.
	Jobs int
}

// Exact is a brute-force nearest-neighbor provider. It is the recall
// gold standard the approximate provider is measured against.
type Exact struct {
	metric distance.Metric
	fn     distance.Func
	opts   ExactOptions
}

// NewExact creates an exact provider for the given metric.
func NewExact(metric distance.Metric, optFns ...func(o *ExactOptions)) (*Exact, error) {
	opts := ExactOptions{
		Jobs: runtime.GOMAXPROCS(0),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Jobs < 1 {
		opts.Jobs = 1
	}

	fn, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	return &Exact{metric: metric, fn: fn, opts: opts}, nil
}

// KNNGraph computes the exact k-nearest-neighbor graph by scanning all
// pairs, one bounded max-heap per query row.
func (e *Exact) KNNGraph(ctx context.Context, data [][]float64, k int) (*Graph, error) {
	n := len(data)
	if n <= k {
		return nil, &ErrTooFewSamples{Samples: n, K: k}
	}

	g := &Graph{
		K:    k,
		Rows: make([][]Edge, n),
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(e.opts.Jobs)

	for i := 0; i < n; i++ {
		i := i
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			g.Rows[i] = e.queryRow(data, i, k)
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	return g, nil
}

// queryRow finds the k nearest neighbors of row i. The heap holds k+1
// candidates so the self match can be discarded afterwards.
func (e *Exact) queryRow(data [][]float64, i, k int) []Edge {
	top := &priorityQueue{Order: true}
	heap.Init(top)

	for j := range data {
		d := e.fn(data[i], data[j])

		if top.Len() < k+1 {
			heap.Push(top, &priorityQueueItem{Node: j, Distance: d})
			continue
		}

		if d < top.Top().Distance {
			heap.Pop(top)
			heap.Push(top, &priorityQueueItem{Node: j, Distance: d})
		}
	}

	return trimSelf(top.drain(), i, k)
}

// trimSelf converts ascending candidates into k edges, dropping the self
// match. With duplicate points the self match can be crowded out of the
// candidate set; the farthest candidate is dropped instead.
func trimSelf(items []*priorityQueueItem, self, k int) []Edge {
	edges := make([]Edge, 0, k)
	for _, it := range items {
		if it.Node == self {
			continue
		}
		if len(edges) == k {
			break
		}
		edges = append(edges, Edge{Index: it.Node, Distance: it.Distance})
	}
	return edges
}
