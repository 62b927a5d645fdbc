package eigen

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// MulVecer is the operator access the solver needs: square dimensions
// and a matrix-vector product.
type MulVecer interface {
	Dims() (rows, cols int)
	MulVecTo(dst, x []float64)
}

// Options represents the options for configuring the solver.
type Options struct {
	// Tolerance is the relative residual bound for a Ritz pair to count
	// as converged.
	Tolerance float64

	// MaxIterations bounds the number of restart cycles. The solver
	// never hangs: when the budget is exhausted it returns the best
	// available approximation wrapped in a ConvergenceError.
	MaxIterations int

	// Seed feeds the deterministic start vector.
	Seed int64
}

// DefaultOptions mirrors the solver settings of the reference pipeline.
var DefaultOptions = Options{
	Tolerance:     1e-4,
	MaxIterations: 1000,
	Seed:          1,
}

// ErrInvalidComponents indicates a component request the operator cannot
// satisfy.
type ErrInvalidComponents struct {
	Requested int
	Dimension int
}

func (e *ErrInvalidComponents) Error() string {
	return fmt.Sprintf("cannot compute %d eigenpairs of a %dx%d operator", e.Requested, e.Dimension, e.Dimension)
}

// ConvergenceError reports that the iteration budget ran out before all
// requested Ritz pairs met the tolerance. It is recoverable: the best
// available eigenpairs are carried along so the caller can decide
// whether to keep them or retry with looser settings.
type ConvergenceError struct {
	Values     []float64
	Vectors    *mat.Dense
	Iterations int
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("eigensolver did not converge within %d iterations (best residual %.3e)", e.Iterations, e.Residual)
}

// Solve computes the k eigenvalues of largest magnitude of op and their
// eigenvectors. Returned values hold the real parts only, sorted
// descending; vectors are the matching unit-norm columns. On budget
// exhaustion the best approximation is returned together with a
// *ConvergenceError.
func Solve(op MulVecer, k int, optFns ...func(o *Options)) ([]float64, *mat.Dense, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxIterations < 1 {
		opts.MaxIterations = 1
	}

	n, cols := op.Dims()
	if n != cols || k < 1 || k >= n {
		return nil, nil, &ErrInvalidComponents{Requested: k, Dimension: n}
	}

	// Krylov subspace dimension: comfortably larger than k, capped by n.
	m := 2*k + 1
	if m < 20 {
		m = 20
	}
	if m > n {
		m = n
	}

	a := &arnoldi{op: op, n: n, m: m}

	rng := rand.New(rand.NewSource(opts.Seed))
	start := make([]float64, n)
	for i := range start {
		start[i] = rng.NormFloat64()
	}

	var (
		best         ritzSet
		bestResidual = math.Inf(1)
	)

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		breakdown := a.expand(start)

		set := a.ritzPairs(k)
		if set.maxResidual < bestResidual {
			best = set
			bestResidual = set.maxResidual
		}

		// A breakdown means the Krylov subspace became invariant: the
		// projected eigenpairs are exact for that subspace.
		if breakdown || set.maxResidual <= opts.Tolerance {
			values, vectors := a.extract(set)
			return values, vectors, nil
		}

		// Restart from a blend of the wanted Ritz directions.
		start = a.restartVector(set, rng)

		if iter == opts.MaxIterations {
			values, vectors := a.extract(best)
			return values, vectors, &ConvergenceError{
				Values:     values,
				Vectors:    vectors,
				Iterations: iter,
				Residual:   bestResidual,
			}
		}
	}

	// Unreachable: MaxIterations >= 1 always returns inside the loop.
	return nil, nil, &ErrInvalidComponents{Requested: k, Dimension: n}
}

// arnoldi holds the factorization workspace A*V_m = V_m*H_m + f*e_m'.
type arnoldi struct {
	op MulVecer
	n  int
	m  int

	v    [][]float64 // basis vectors, meff+1 rows of length n
	h    []float64   // (m+1) x m Hessenberg, row-major
	meff int         // effective subspace size after a breakdown
	ritz ritzSolution
}

type ritzSolution struct {
	values  []complex128
	vectors *mat.CDense
}

// ritzSet is the selection of k wanted Ritz pairs from one cycle.
type ritzSet struct {
	order       []int // indices into the ritz solution, wanted first
	k           int
	maxResidual float64
	v           [][]float64 // basis snapshot the vectors refer to
	sol         ritzSolution
	meff        int
}

// expand runs the Arnoldi process from the given start vector. Reports
// whether the recurrence broke down before reaching m vectors.
func (a *arnoldi) expand(start []float64) bool {
	a.v = make([][]float64, 0, a.m+1)
	a.h = make([]float64, (a.m+1)*a.m)

	v0 := make([]float64, a.n)
	copy(v0, start)
	normalize(v0)
	a.v = append(a.v, v0)

	breakdown := false
	a.meff = a.m

	w := make([]float64, a.n)
	for j := 0; j < a.m; j++ {
		a.op.MulVecTo(w, a.v[j])

		// Modified Gram-Schmidt with one reorthogonalization pass keeps
		// the basis orthonormal despite rounding.
		for pass := 0; pass < 2; pass++ {
			for i := 0; i <= j; i++ {
				c := dot(w, a.v[i])
				axpy(w, a.v[i], -c)
				a.h[i*a.m+j] += c
			}
		}

		beta := norm(w)
		a.h[(j+1)*a.m+j] = beta

		if beta <= 1e-12 {
			a.meff = j + 1
			breakdown = true
			break
		}

		next := make([]float64, a.n)
		for i := range w {
			next[i] = w[i] / beta
		}
		a.v = append(a.v, next)
	}

	a.solveProjected()

	return breakdown
}

// solveProjected computes the eigenpairs of the leading meff x meff
// block of H with a dense solver.
func (a *arnoldi) solveProjected() {
	meff := a.meff

	hm := mat.NewDense(meff, meff, nil)
	for i := 0; i < meff; i++ {
		for j := 0; j < meff; j++ {
			hm.Set(i, j, a.h[i*a.m+j])
		}
	}

	var eig mat.Eigen
	if ok := eig.Factorize(hm, mat.EigenRight); !ok {
		// Dense factorization of a small Hessenberg block failing means
		// the data is pathological; surface it as zero pairs and let the
		// residual check force a restart.
		a.ritz = ritzSolution{values: make([]complex128, meff), vectors: mat.NewCDense(meff, meff, nil)}
		return
	}

	vectors := &mat.CDense{}
	eig.VectorsTo(vectors)

	a.ritz = ritzSolution{values: eig.Values(nil), vectors: vectors}
}

// ritzPairs selects the k Ritz values of largest magnitude and computes
// the residual estimate |beta * y_last| for each.
func (a *arnoldi) ritzPairs(k int) ritzSet {
	meff := a.meff

	order := make([]int, meff)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return cmplx.Abs(a.ritz.values[order[x]]) > cmplx.Abs(a.ritz.values[order[y]])
	})

	if k > meff {
		k = meff
	}

	beta := a.h[meff*a.m+meff-1]

	set := ritzSet{order: order, k: k, v: a.v, sol: a.ritz, meff: meff}
	for _, idx := range order[:k] {
		y := a.ritz.vectors.At(meff-1, idx)
		resid := math.Abs(beta) * cmplx.Abs(y)
		scale := cmplx.Abs(a.ritz.values[idx])
		if scale < 1 {
			scale = 1
		}
		if r := resid / scale; r > set.maxResidual {
			set.maxResidual = r
		}
	}

	return set
}

// extract lifts the selected Ritz pairs into the original space,
// discards imaginary parts, sorts by eigenvalue descending (stable, so
// ties keep solver-return order) and unit-normalizes each vector.
func (a *arnoldi) extract(set ritzSet) ([]float64, *mat.Dense) {
	values := make([]float64, set.k)
	vectors := mat.NewDense(a.n, set.k, nil)

	col := make([]float64, a.n)
	for c, idx := range set.order[:set.k] {
		values[c] = real(set.sol.values[idx])

		for i := range col {
			col[i] = 0
		}
		for j := 0; j < set.meff; j++ {
			y := real(set.sol.vectors.At(j, idx))
			if y == 0 {
				continue
			}
			axpy(col, set.v[j], y)
		}
		vectors.SetCol(c, col)
	}

	// Descending by real part; stable keeps the magnitude-selection
	// order for ties.
	perm := make([]int, set.k)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(x, y int) bool { return values[perm[x]] > values[perm[y]] })

	sorted := make([]float64, set.k)
	sortedVecs := mat.NewDense(a.n, set.k, nil)
	for c, p := range perm {
		sorted[c] = values[p]
		for i := 0; i < a.n; i++ {
			col[i] = vectors.At(i, p)
		}
		normalize(col)
		sortedVecs.SetCol(c, col)
	}

	return sorted, sortedVecs
}

// restartVector blends the wanted Ritz directions into the next start
// vector. Falls back to a fresh random vector if the blend degenerates.
func (a *arnoldi) restartVector(set ritzSet, rng *rand.Rand) []float64 {
	next := make([]float64, a.n)

	for _, idx := range set.order[:set.k] {
		for j := 0; j < set.meff; j++ {
			y := real(set.sol.vectors.At(j, idx))
			if y == 0 {
				continue
			}
			axpy(next, set.v[j], y)
		}
	}

	if norm(next) <= 1e-12 {
		for i := range next {
			next[i] = rng.NormFloat64()
		}
	}

	return next
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(a []float64) float64 {
	return math.Sqrt(dot(a, a))
}

// axpy computes dst += alpha * x.
func axpy(dst, x []float64, alpha float64) {
	for i := range dst {
		dst[i] += alpha * x[i]
	}
}

// normalize scales a to unit norm; zero vectors are left untouched.
func normalize(a []float64) {
	n := norm(a)
	if n == 0 {
		return
	}
	for i := range a {
		a[i] /= n
	}
}
