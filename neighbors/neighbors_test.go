package neighbors

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/diffmap/distance"
)

func randomVectors(num, dim int, seed int64) [][]float64 {
	r := rand.New(rand.NewSource(seed))

	vectors := make([][]float64, num)
	for i := range vectors {
		vectors[i] = make([]float64, dim)
		for j := range vectors[i] {
			vectors[i][j] = r.Float64()
		}
	}

	return vectors
}

func TestExactKNNGraph(t *testing.T) {
	data := [][]float64{
		{0, 0},
		{1, 0},
		{0, 1},
		{10, 10},
	}

	e, err := NewExact(distance.Euclidean)
	require.NoError(t, err)

	g, err := e.KNNGraph(context.Background(), data, 2)
	require.NoError(t, err)

	require.Equal(t, 4, g.NumSamples())
	for i, row := range g.Rows {
		require.Len(t, row, 2, "row %d", i)
		for _, edge := range row {
			assert.NotEqual(t, i, edge.Index, "self edge in row %d", i)
			assert.GreaterOrEqual(t, edge.Distance, 0.0)
		}
		// Ascending distances.
		assert.LessOrEqual(t, row[0].Distance, row[1].Distance)
	}

	// Point 0's nearest neighbors are 1 and 2, both at distance 1.
	got := []int{g.Rows[0][0].Index, g.Rows[0][1].Index}
	assert.ElementsMatch(t, []int{1, 2}, got)

	// The outlier's nearest neighbors are the two closest cluster points,
	// (1,0) and (0,1), which tie at sqrt(181).
	got = []int{g.Rows[3][0].Index, g.Rows[3][1].Index}
	assert.ElementsMatch(t, []int{1, 2}, got)
}

func TestExactTooFewSamples(t *testing.T) {
	e, err := NewExact(distance.Euclidean)
	require.NoError(t, err)

	_, err = e.KNNGraph(context.Background(), randomVectors(5, 3, 1), 5)
	var tooFew *ErrTooFewSamples
	require.ErrorAs(t, err, &tooFew)
	assert.Equal(t, 5, tooFew.Samples)
	assert.Equal(t, 5, tooFew.K)
}

func TestExactUnsupportedMetric(t *testing.T) {
	_, err := NewExact(distance.Metric(42))
	var unknown *distance.ErrUnknownMetric
	require.ErrorAs(t, err, &unknown)
}

func TestExactDuplicatePoints(t *testing.T) {
	// Row 0 and 1 are identical; both must still get k edges and the
	// zero-distance edge to the twin must be stored.
	data := [][]float64{
		{1, 1},
		{1, 1},
		{2, 2},
		{3, 3},
	}

	e, err := NewExact(distance.Euclidean)
	require.NoError(t, err)

	g, err := e.KNNGraph(context.Background(), data, 2)
	require.NoError(t, err)

	require.Len(t, g.Rows[0], 2)
	assert.Equal(t, 1, g.Rows[0][0].Index)
	assert.Zero(t, g.Rows[0][0].Distance)
	assert.Equal(t, 0, g.Rows[1][0].Index)
	assert.Zero(t, g.Rows[1][0].Distance)
}

func TestExactCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := NewExact(distance.Euclidean)
	require.NoError(t, err)

	_, err = e.KNNGraph(ctx, randomVectors(100, 4, 1), 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHNSWKNNGraph(t *testing.T) {
	data := randomVectors(300, 8, 42)

	h, err := NewHNSW(distance.Euclidean)
	require.NoError(t, err)

	g, err := h.KNNGraph(context.Background(), data, 10)
	require.NoError(t, err)

	require.Equal(t, 300, g.NumSamples())
	for i, row := range g.Rows {
		assert.Len(t, row, 10, "row %d", i)
		for p, edge := range row {
			assert.NotEqual(t, i, edge.Index)
			if p > 0 {
				assert.GreaterOrEqual(t, edge.Distance, row[p-1].Distance)
			}
		}
	}
}

func TestHNSWRecall(t *testing.T) {
	data := randomVectors(500, 6, 7)
	k := 15

	exact, err := NewExact(distance.Euclidean)
	require.NoError(t, err)
	truth, err := exact.KNNGraph(context.Background(), data, k)
	require.NoError(t, err)

	h, err := NewHNSW(distance.Euclidean, func(p *ANNParams) {
		p.EFConstruction = 200
		p.EFSearch = 200
	})
	require.NoError(t, err)
	approx, err := h.KNNGraph(context.Background(), data, k)
	require.NoError(t, err)

	recall := Recall(truth, approx)
	assert.Greater(t, recall, 0.9, "recall %f too low", recall)
}

func TestRecallIdentical(t *testing.T) {
	g := &Graph{
		K: 2,
		Rows: [][]Edge{
			{{Index: 1, Distance: 1}, {Index: 2, Distance: 2}},
			{{Index: 0, Distance: 1}, {Index: 2, Distance: 3}},
			{{Index: 0, Distance: 2}, {Index: 1, Distance: 3}},
		},
	}
	assert.InDelta(t, 1.0, Recall(g, g), 1e-15)
}

func TestHNSWReusable(t *testing.T) {
	h, err := NewHNSW(distance.Euclidean)
	require.NoError(t, err)

	// Each call must index from scratch: stale nodes from a previous
	// call would surface as out-of-range neighbor indices.
	first := randomVectors(60, 4, 1)
	second := randomVectors(40, 4, 2)

	g1, err := h.KNNGraph(context.Background(), first, 8)
	require.NoError(t, err)
	require.Equal(t, 60, g1.NumSamples())

	g2, err := h.KNNGraph(context.Background(), second, 8)
	require.NoError(t, err)
	require.Equal(t, 40, g2.NumSamples())
	for i, row := range g2.Rows {
		for _, edge := range row {
			assert.Less(t, edge.Index, 40, "stale index in row %d", i)
		}
	}

	// Identical data builds an identical graph on every call.
	g3, err := h.KNNGraph(context.Background(), second, 8)
	require.NoError(t, err)
	assert.Equal(t, g2.Rows, g3.Rows)
}

func TestHNSWTooFewSamples(t *testing.T) {
	h, err := NewHNSW(distance.Euclidean)
	require.NoError(t, err)

	_, err = h.KNNGraph(context.Background(), randomVectors(3, 2, 1), 5)
	var tooFew *ErrTooFewSamples
	require.ErrorAs(t, err, &tooFew)
}
