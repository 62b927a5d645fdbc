package kernel

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/diffmap/neighbors"
	"github.com/hupe1980/diffmap/sparse"
)

// wToBuilder re-adds every stored entry of w into a fresh n x n builder,
// used to pad a kernel with empty rows.
func wToBuilder(w *sparse.CSR, n int) *sparse.Builder {
	b := sparse.NewBuilder(n, n)
	rows, _ := w.Dims()
	for i := 0; i < rows; i++ {
		cols, vals := w.Row(i)
		for p, j := range cols {
			b.Add(i, j, vals[p])
		}
	}
	return b
}

// lineGraph is a tiny asymmetric neighbor graph over 4 points on a line
// at positions 0, 1, 3, 7 with k=2.
func lineGraph() *neighbors.Graph {
	return &neighbors.Graph{
		K: 2,
		Rows: [][]neighbors.Edge{
			{{Index: 1, Distance: 1}, {Index: 2, Distance: 3}},
			{{Index: 0, Distance: 1}, {Index: 2, Distance: 2}},
			{{Index: 1, Distance: 2}, {Index: 0, Distance: 3}},
			{{Index: 2, Distance: 4}, {Index: 1, Distance: 6}},
		},
	}
}

func TestAdaptiveK(t *testing.T) {
	assert.Equal(t, 15, AdaptiveK(30))
	assert.Equal(t, 5, AdaptiveK(10))
	assert.Equal(t, 5, AdaptiveK(11))
	assert.Equal(t, 1, AdaptiveK(2))
}

func TestEstimateBandwidths(t *testing.T) {
	g := lineGraph()

	sigma, err := EstimateBandwidths(g, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 2, 4}, sigma)

	sigma, err = EstimateBandwidths(g, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2, 3, 6}, sigma)
}

func TestEstimateBandwidthsUnsortedRows(t *testing.T) {
	// Row distances arrive in provider order; the estimator must sort.
	g := &neighbors.Graph{
		K: 3,
		Rows: [][]neighbors.Edge{
			{{Index: 1, Distance: 5}, {Index: 2, Distance: 1}, {Index: 3, Distance: 3}},
		},
	}

	sigma, err := EstimateBandwidths(g, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, sigma)
}

func TestEstimateBandwidthsTooFewNeighbors(t *testing.T) {
	g := &neighbors.Graph{
		K: 2,
		Rows: [][]neighbors.Edge{
			{{Index: 1, Distance: 1}, {Index: 2, Distance: 2}},
			{{Index: 0, Distance: 1}},
		},
	}

	_, err := EstimateBandwidths(g, 2)
	var tooFew *ErrTooFewNeighbors
	require.ErrorAs(t, err, &tooFew)
	assert.Equal(t, 1, tooFew.Row)
	assert.Equal(t, 1, tooFew.Stored)
	assert.Equal(t, 2, tooFew.AdaptiveK)
}

func TestEstimateBandwidthsDuplicatePoint(t *testing.T) {
	// A duplicate at distance 0 makes sigma 0 for adaptiveK=1.
	g := &neighbors.Graph{
		K: 2,
		Rows: [][]neighbors.Edge{
			{{Index: 1, Distance: 0}, {Index: 2, Distance: 2}},
			{{Index: 0, Distance: 0}, {Index: 2, Distance: 2}},
			{{Index: 0, Distance: 2}, {Index: 1, Distance: 2}},
		},
	}

	sigma, err := EstimateBandwidths(g, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 2}, sigma)
}

func TestBuildSymmetric(t *testing.T) {
	g := lineGraph()
	sigma, err := EstimateBandwidths(g, 1)
	require.NoError(t, err)

	w, err := Build(g, sigma)
	require.NoError(t, err)

	rows, cols := w.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 4, cols)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.Equal(t, w.At(i, j), w.At(j, i), "asymmetry at (%d,%d)", i, j)
			assert.GreaterOrEqual(t, w.At(i, j), 0.0)
		}
	}

	// Edge (0,1) is stored from both endpoints with sigma 1 on each
	// side, so the symmetrized weight is 2*exp(-1).
	assert.InDelta(t, 2*math.Exp(-1), w.At(0, 1), 1e-12)

	// Edge (3,2) only exists from 3's side: exp(-4/4) contributes once.
	assert.InDelta(t, math.Exp(-1), w.At(3, 2), 1e-12)
}

func TestBuildZeroBandwidth(t *testing.T) {
	g := &neighbors.Graph{
		K: 2,
		Rows: [][]neighbors.Edge{
			{{Index: 1, Distance: 0}, {Index: 2, Distance: 2}},
			{{Index: 0, Distance: 0}, {Index: 2, Distance: 2}},
			{{Index: 0, Distance: 2}, {Index: 1, Distance: 2}},
		},
	}
	sigma := []float64{0, 0, 2}

	w, err := Build(g, sigma)
	require.NoError(t, err)

	// Duplicates stay at full similarity from both sides.
	assert.InDelta(t, 2.0, w.At(0, 1), 1e-12)

	// No NaN anywhere, even with sigma 0 rows.
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.False(t, math.IsNaN(w.At(i, j)), "NaN at (%d,%d)", i, j)
		}
	}
}

func TestBuildIdempotent(t *testing.T) {
	g := lineGraph()
	sigma, err := EstimateBandwidths(g, 2)
	require.NoError(t, err)

	w1, err := Build(g, sigma)
	require.NoError(t, err)
	w2, err := Build(g, sigma)
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(w1, w2), "kernel construction not bit-identical")
}

func TestAnisotropicScale(t *testing.T) {
	g := lineGraph()
	sigma, _ := EstimateBandwidths(g, 1)
	w, err := Build(g, sigma)
	require.NoError(t, err)

	scaled := AnisotropicScale(w, 1)

	// Still symmetric after two-sided scaling.
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, scaled.At(i, j), scaled.At(j, i), 1e-15)
		}
	}

	// alpha=1 scales entry (i,j) by 1/(D_i*D_j).
	d := w.RowSums()
	assert.InDelta(t, w.At(0, 1)/(d[0]*d[1]), scaled.At(0, 1), 1e-12)

	// alpha 0 is a no-op returning the same matrix.
	assert.Same(t, w, AnisotropicScale(w, 0))
}

func TestMarkov(t *testing.T) {
	g := lineGraph()
	sigma, _ := EstimateBandwidths(g, 1)
	w, err := Build(g, sigma)
	require.NoError(t, err)

	op, isolated := Markov(AnisotropicScale(w, 1))
	assert.True(t, isolated.IsEmpty())

	for i, sum := range op.RowSums() {
		assert.InDelta(t, 1.0, sum, 1e-9, "row %d not stochastic", i)
	}
}

func TestMarkovIsolatedRows(t *testing.T) {
	// Row 2 has no stored entries at all.
	g := &neighbors.Graph{
		K: 1,
		Rows: [][]neighbors.Edge{
			{{Index: 1, Distance: 1}},
			{{Index: 0, Distance: 1}},
		},
	}
	sigma := []float64{1, 1}

	w, err := Build(g, sigma)
	require.NoError(t, err)

	// Force a zero-degree row by embedding the 2x2 kernel in a 3x3 one.
	b := wToBuilder(w, 3)
	padded := b.Build()

	op, isolated := Markov(padded)
	assert.Equal(t, uint64(1), isolated.GetCardinality())
	assert.True(t, isolated.Contains(2))

	sums := op.RowSums()
	assert.InDelta(t, 1.0, sums[0], 1e-9)
	assert.InDelta(t, 1.0, sums[1], 1e-9)
	assert.Zero(t, sums[2])
}
