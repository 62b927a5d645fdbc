package multiscale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestKneeRegressionBaseline(t *testing.T) {
	// Locked baseline: the knee of this spectrum sits at the start of
	// the large 7.5 -> 2 drop.
	values := []float64{10, 8, 7.5, 2, 1.8, 1.7, 1.6}

	m, ok := Knee(values, 1)
	require.True(t, ok)
	assert.Equal(t, 3, m)
}

func TestKneeDeterministic(t *testing.T) {
	values := []float64{10, 8, 7.5, 2, 1.8, 1.7, 1.6}

	first, ok := Knee(values, 1)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		m, ok := Knee(values, 1)
		require.True(t, ok)
		assert.Equal(t, first, m)
	}
}

func TestKneeDegenerateCurves(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"TooShort", []float64{5, 1}},
		{"Flat", []float64{3, 3, 3, 3, 3}},
		{"Empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Knee(tt.values, 1)
			assert.False(t, ok)
		})
	}
}

func TestKneeExponentialSpectrum(t *testing.T) {
	// A geometric spectrum has a clean early knee.
	values := make([]float64, 20)
	v := 1.0
	for i := range values {
		values[i] = v
		v *= 0.5
	}

	m, ok := Knee(values, 1)
	require.True(t, ok)
	assert.Greater(t, m, 1)
	assert.Less(t, m, 8)
}

func TestSelectComponentsFallback(t *testing.T) {
	// Concave decay has no confirmable knee: selection falls back to
	// the largest consecutive drop, here between indices 3 and 4.
	values := []float64{10, 9.9, 9.7, 9, 5, 1}
	assert.Equal(t, 4, SelectComponents(values, 1))

	// Two points only: no curve at all, fallback path with clamping.
	assert.Equal(t, 2, SelectComponents([]float64{5, 1}, 1))
}

func TestSelectComponentsTiedDrops(t *testing.T) {
	// Concave decay again, with the three largest consecutive drops
	// exactly tied (2.6 each). Tie resolution keeps the earliest drop;
	// locked as a regression baseline.
	values := []float64{10, 9.9, 9.6, 7, 4.4, 1.8}
	assert.Equal(t, 3, SelectComponents(values, 1))
}

func TestSelectComponentsWithinRange(t *testing.T) {
	values := []float64{1, 0.99, 0.97, 0.4, 0.39, 0.38, 0.37, 0.36}

	m := SelectComponents(values, 1)
	assert.Greater(t, m, 1)
	assert.LessOrEqual(t, m, len(values))
}

func TestEmbed(t *testing.T) {
	values := []float64{1, 0.5, 0.2}
	vectors := mat.NewDense(4, 3, []float64{
		1, 1, 2,
		1, 2, 4,
		1, 3, 6,
		1, 4, 8,
	})

	embedding, err := Embed(values, vectors, 3)
	require.NoError(t, err)

	rows, cols := embedding.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 2, cols)

	// Column 0 = eigenvector 1 * 0.5/0.5 = identical.
	// Column 1 = eigenvector 2 * 0.2/0.8 = quarter.
	for i := 0; i < 4; i++ {
		assert.InDelta(t, vectors.At(i, 1), embedding.At(i, 0), 1e-12)
		assert.InDelta(t, vectors.At(i, 2)*0.25, embedding.At(i, 1), 1e-12)
	}
}

func TestEmbedInvalidDimension(t *testing.T) {
	values := []float64{1, 0.5}
	vectors := mat.NewDense(2, 2, []float64{1, 1, 1, 1})

	for _, m := range []int{0, 1, 3} {
		_, err := Embed(values, vectors, m)
		var invalid *ErrInvalidDimension
		require.ErrorAs(t, err, &invalid, "m=%d", m)
	}
}
