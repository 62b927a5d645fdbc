package eigen

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/diffmap/sparse"
)

func diagOperator(values []float64) *sparse.CSR {
	n := len(values)
	b := sparse.NewBuilder(n, n)
	for i, v := range values {
		b.Add(i, i, v)
	}
	return b.Build()
}

func TestSolveDiagonal(t *testing.T) {
	diag := make([]float64, 40)
	for i := range diag {
		diag[i] = float64(len(diag) - i)
	}
	op := diagOperator(diag)

	values, vectors, err := Solve(op, 3)
	require.NoError(t, err)
	require.Len(t, values, 3)

	assert.InDelta(t, 40, values[0], 1e-6)
	assert.InDelta(t, 39, values[1], 1e-6)
	assert.InDelta(t, 38, values[2], 1e-6)

	n, _ := op.Dims()
	for c := 0; c < 3; c++ {
		// Unit norm.
		var nrm float64
		for i := 0; i < n; i++ {
			nrm += vectors.At(i, c) * vectors.At(i, c)
		}
		assert.InDelta(t, 1.0, math.Sqrt(nrm), 1e-9)

		// The dominant component sits on the matching diagonal entry;
		// the sign is solver-dependent.
		assert.InDelta(t, 1.0, math.Abs(vectors.At(c, c)), 1e-3)
	}
}

func TestSolveOrderingNonIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	n := 60
	b := sparse.NewBuilder(n, n)
	for i := 0; i < n; i++ {
		b.Add(i, i, rng.Float64())
		j := rng.Intn(n)
		v := 0.1 * rng.Float64()
		b.Add(i, j, v)
		b.Add(j, i, v)
	}
	op := b.Build()

	values, _, err := Solve(op, 8)
	require.NoError(t, err)

	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i-1], values[i], "eigenvalues out of order at %d", i)
	}
}

func TestSolveResidual(t *testing.T) {
	// Symmetric banded operator; check A*x ~ lambda*x for each pair.
	n := 80
	b := sparse.NewBuilder(n, n)
	for i := 0; i < n; i++ {
		b.Add(i, i, 2)
		if i+1 < n {
			b.Add(i, i+1, -1)
			b.Add(i+1, i, -1)
		}
	}
	op := b.Build()

	values, vectors, err := Solve(op, 5)
	require.NoError(t, err)

	x := make([]float64, n)
	ax := make([]float64, n)
	for c, lambda := range values {
		for i := range x {
			x[i] = vectors.At(i, c)
		}
		op.MulVecTo(ax, x)

		var residSq float64
		for i := range ax {
			d := ax[i] - lambda*x[i]
			residSq += d * d
		}
		assert.Less(t, math.Sqrt(residSq), 1e-3, "pair %d residual too large", c)
	}
}

func TestSolveDeterministic(t *testing.T) {
	diag := make([]float64, 50)
	for i := range diag {
		diag[i] = 1 / float64(i+1)
	}
	op := diagOperator(diag)

	v1, m1, err := Solve(op, 4)
	require.NoError(t, err)
	v2, m2, err := Solve(op, 4)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, m1.RawMatrix().Data, m2.RawMatrix().Data)
}

func TestSolveInvalidComponents(t *testing.T) {
	op := diagOperator([]float64{1, 2, 3})

	for _, k := range []int{0, 3, 10} {
		_, _, err := Solve(op, k)
		var invalid *ErrInvalidComponents
		require.ErrorAs(t, err, &invalid, "k=%d", k)
		assert.Equal(t, 3, invalid.Dimension)
	}
}

func TestSolveConvergenceError(t *testing.T) {
	rng := rand.New(rand.NewSource(9))

	n := 150
	b := sparse.NewBuilder(n, n)
	for i := 0; i < n; i++ {
		for c := 0; c < 5; c++ {
			b.Add(i, rng.Intn(n), rng.NormFloat64())
		}
	}
	op := b.Build()

	_, _, err := Solve(op, 10, func(o *Options) {
		o.Tolerance = 0 // unattainable
		o.MaxIterations = 2
	})

	var conv *ConvergenceError
	require.ErrorAs(t, err, &conv)
	assert.Equal(t, 2, conv.Iterations)
	assert.Len(t, conv.Values, 10)
	require.NotNil(t, conv.Vectors)
	rows, cols := conv.Vectors.Dims()
	assert.Equal(t, n, rows)
	assert.Equal(t, 10, cols)
	assert.Greater(t, conv.Residual, 0.0)
}
