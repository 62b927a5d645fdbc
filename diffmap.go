package diffmap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/diffmap/eigen"
	"github.com/hupe1980/diffmap/kernel"
	"github.com/hupe1980/diffmap/multiscale"
	"github.com/hupe1980/diffmap/neighbors"
)

// Diffusor runs the adaptive anisotropic diffusion-map pipeline. It is
// an immutable configuration holder: FitTransform keeps no state
// between calls and a single Diffusor may be reused freely.
type Diffusor struct {
	opts options
}

// New creates a Diffusor with the given options.
func New(optFns ...Option) *Diffusor {
	return &Diffusor{opts: applyOptions(optFns)}
}

// FitTransform computes the diffusion map of the sample set: neighbor
// graph, adaptive kernel, Markov operator, eigendecomposition and
// (unless disabled) the multiscale embedding.
//
// Configuration and input problems abort before any computation.
// Data-quality and convergence conditions do not abort; they are
// attached to the result as Warnings.
func (d *Diffusor) FitTransform(ctx context.Context, data [][]float64) (*Result, error) {
	o := d.opts

	if err := validateInput(data); err != nil {
		return nil, err
	}
	if err := validateConfig(o, len(data)); err != nil {
		return nil, err
	}

	provider, err := d.provider()
	if err != nil {
		return nil, translateError(err)
	}

	logger := o.logger.WithSamples(len(data)).WithNeighbors(o.nNeighbors).WithComponents(o.components)

	start := time.Now()
	g, err := provider.KNNGraph(ctx, data, o.nNeighbors)
	logger.LogNeighborSearch(ctx, len(data), o.nNeighbors, o.approximate, time.Since(start), err)
	o.metricsCollector.RecordNeighborSearch(time.Since(start), err)
	if err != nil {
		return nil, translateError(err)
	}

	res := &Result{}

	start = time.Now()
	sigma, err := kernel.EstimateBandwidths(g, kernel.AdaptiveK(o.nNeighbors))
	if err != nil {
		return nil, translateError(err)
	}
	if dup := zeroRows(sigma); !dup.IsEmpty() {
		res.Warnings = append(res.Warnings, Warning{
			Code:    WarningDuplicatePoints,
			Message: "adaptive bandwidth is zero for duplicate points",
			Rows:    dup,
		})
	}

	w, err := kernel.Build(g, sigma)
	if err != nil {
		return nil, translateError(err)
	}

	res.Kernel = kernel.AnisotropicScale(w, o.alpha)

	operator, isolated := kernel.Markov(res.Kernel)
	res.Operator = operator
	if !isolated.IsEmpty() {
		res.Warnings = append(res.Warnings, Warning{
			Code:    WarningIsolatedRows,
			Message: "samples without graph connectivity stay at zero",
			Rows:    isolated,
		})
	}

	logger.LogKernel(ctx, operator.NNZ(), o.alpha, time.Since(start))
	o.metricsCollector.RecordKernel(time.Since(start))

	start = time.Now()
	values, vectors, err := eigen.Solve(operator, o.components, func(eo *eigen.Options) {
		eo.Tolerance = o.eigenTolerance
		eo.MaxIterations = o.eigenMaxIterations
	})
	logger.LogEigen(ctx, o.components, time.Since(start), err)
	o.metricsCollector.RecordEigen(time.Since(start), err)
	if err != nil {
		var conv *eigen.ConvergenceError
		if !errors.As(err, &conv) {
			return nil, translateError(err)
		}
		// Best-available eigenpairs stay scientifically usable; carry
		// them with a warning and let the caller decide.
		values, vectors = conv.Values, conv.Vectors
		res.Warnings = append(res.Warnings, Warning{
			Code:    WarningConvergence,
			Message: conv.Error(),
		})
	}
	res.EigenValues = values
	res.EigenVectors = vectors

	m := o.fixedComponents
	if o.autoSelect {
		m = multiscale.SelectComponents(values, o.kneeSensitivity)
		logger.LogSelection(ctx, m, o.kneeSensitivity)
	}
	res.NumComponents = m
	o.metricsCollector.RecordSelection(m)

	if o.buildEmbedding {
		embedding, err := multiscale.Embed(values, vectors, m)
		if err != nil {
			return nil, translateError(err)
		}
		res.Embedding = embedding
	}

	return res, nil
}

// FitTransformMatrix runs FitTransform on the rows of a gonum matrix.
func (d *Diffusor) FitTransformMatrix(ctx context.Context, data mat.Matrix) (*Result, error) {
	if data == nil {
		return nil, &InputError{Reason: "nil matrix"}
	}

	r, c := data.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			rows[i][j] = data.At(i, j)
		}
	}

	return d.FitTransform(ctx, rows)
}

// provider resolves the neighbor graph backend: a caller-supplied
// override, or the built-in exact/approximate provider.
func (d *Diffusor) provider() (neighbors.Provider, error) {
	o := d.opts

	if o.provider != nil {
		return o.provider, nil
	}

	if o.approximate {
		return neighbors.NewHNSW(o.metric, func(p *neighbors.ANNParams) {
			*p = o.annParams
			p.Jobs = o.jobs
		})
	}

	return neighbors.NewExact(o.metric, func(eo *neighbors.ExactOptions) {
		eo.Jobs = o.jobs
	})
}

func validateInput(data [][]float64) error {
	if len(data) == 0 {
		return &InputError{Reason: "empty sample set"}
	}

	dim := len(data[0])
	if dim == 0 {
		return &InputError{Reason: "zero-dimensional samples"}
	}

	for i, row := range data {
		if len(row) != dim {
			return &InputError{Reason: fmt.Sprintf("inconsistent dimensions: row %d has %d features, expected %d", i, len(row), dim)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &InputError{Reason: fmt.Sprintf("non-finite value at (%d,%d)", i, j)}
			}
		}
	}

	return nil
}

func validateConfig(o options, n int) error {
	if o.metricErr != nil {
		return &ConfigError{Field: "metric", Reason: o.metricErr.Error(), cause: o.metricErr}
	}
	if o.nNeighbors < 2 {
		return &ConfigError{Field: "n_neighbors", Reason: "must be at least 2 for adaptive bandwidth estimation"}
	}
	if o.nNeighbors >= n {
		return &ConfigError{Field: "n_neighbors", Reason: fmt.Sprintf("k=%d requires more than %d samples", o.nNeighbors, n)}
	}
	if o.components < 2 {
		return &ConfigError{Field: "n_components", Reason: "must be at least 2"}
	}
	if o.components >= n {
		return &ConfigError{Field: "n_components", Reason: fmt.Sprintf("%d components requested for %d samples", o.components, n)}
	}
	if o.alpha < 0 {
		return &ConfigError{Field: "alpha", Reason: "must be non-negative"}
	}
	if o.kneeSensitivity <= 0 {
		return &ConfigError{Field: "knee_sensitivity", Reason: "must be positive"}
	}
	if !o.autoSelect {
		if o.fixedComponents <= 1 || o.fixedComponents > o.components {
			return &ConfigError{Field: "embedding_dimension", Reason: fmt.Sprintf("explicit dimension %d must be in (1, %d]", o.fixedComponents, o.components)}
		}
	}
	return nil
}

// zeroRows collects the indices with a zero entry.
func zeroRows(v []float64) *roaring.Bitmap {
	rows := roaring.New()
	for i, x := range v {
		if x == 0 {
			rows.Add(uint32(i))
		}
	}
	return rows
}
