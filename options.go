package diffmap

import (
	"runtime"

	"github.com/hupe1980/diffmap/distance"
	"github.com/hupe1980/diffmap/neighbors"
)

type options struct {
	components         int
	nNeighbors         int
	alpha              float64
	approximate        bool
	metric             distance.Metric
	metricErr          error
	annParams          neighbors.ANNParams
	jobs               int
	autoSelect         bool
	kneeSensitivity    float64
	fixedComponents    int
	buildEmbedding     bool
	provider           neighbors.Provider
	eigenTolerance     float64
	eigenMaxIterations int
	logger             *Logger
	metricsCollector   MetricsCollector
}

// Option configures a Diffusor.
type Option func(*options)

// WithComponents sets the number of eigenpairs to compute. Must stay
// below the sample count. Defaults to 100.
func WithComponents(c int) Option {
	return func(o *options) {
		o.components = c
	}
}

// WithNeighbors sets k for the neighbor graph. The adaptive kernel
// normalizes each sample's distances by the distance of its
// floor(k/2)-th neighbor. Defaults to 30.
func WithNeighbors(k int) Option {
	return func(o *options) {
		o.nNeighbors = k
	}
}

// WithAlpha sets the anisotropic correction strength. 0 disables the
// density correction; 1 (the default) fully removes sampling-density
// bias and suits normalized data.
func WithAlpha(alpha float64) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}

// WithApproximateSearch selects the approximate HNSW provider instead
// of exact brute force. Defaults to true.
func WithApproximateSearch(approximate bool) Option {
	return func(o *options) {
		o.approximate = approximate
	}
}

// WithMetric sets the distance metric for graph construction.
// Defaults to distance.Euclidean.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithMetricName sets the distance metric from a string alias such as
// "euclidean", "cosine" or "angular". Unknown names surface as a
// ConfigError when the pipeline runs.
func WithMetricName(name string) Option {
	return func(o *options) {
		m, err := distance.Parse(name)
		if err != nil {
			o.metricErr = err
			return
		}
		o.metric = m
	}
}

// WithANNParams forwards construction and query parameters to the
// approximate provider. They are opaque to the pipeline itself.
func WithANNParams(fn func(p *neighbors.ANNParams)) Option {
	return func(o *options) {
		fn(&o.annParams)
	}
}

// WithJobs bounds the worker pools of the parallel stages.
// Defaults to runtime.GOMAXPROCS(0).
func WithJobs(jobs int) Option {
	return func(o *options) {
		o.jobs = jobs
	}
}

// WithAutoSelect toggles automatic selection of the embedding dimension
// via knee detection on the eigenvalue spectrum. When disabled, the
// caller must supply the dimension with WithFixedComponents.
// Defaults to true.
func WithAutoSelect(auto bool) Option {
	return func(o *options) {
		o.autoSelect = auto
	}
}

// WithKneeSensitivity sets the sensitivity of the knee detector.
// Defaults to 1.
func WithKneeSensitivity(s float64) Option {
	return func(o *options) {
		o.kneeSensitivity = s
	}
}

// WithFixedComponents supplies the embedding dimension explicitly,
// bypassing knee detection.
func WithFixedComponents(m int) Option {
	return func(o *options) {
		o.fixedComponents = m
		o.autoSelect = false
	}
}

// WithEmbedding toggles construction of the multiscale embedding in
// the result. Defaults to true.
func WithEmbedding(build bool) Option {
	return func(o *options) {
		o.buildEmbedding = build
	}
}

// WithProvider overrides the neighbor graph provider entirely. The
// provider must honor the neighbors.Provider contract; metric and
// approximate-search options are ignored when set.
func WithProvider(p neighbors.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithEigenTolerance sets the eigensolver's relative residual
// tolerance. Defaults to 1e-4.
func WithEigenTolerance(tol float64) Option {
	return func(o *options) {
		o.eigenTolerance = tol
	}
}

// WithEigenMaxIterations bounds the eigensolver's restart cycles.
// Defaults to 1000.
func WithEigenMaxIterations(n int) Option {
	return func(o *options) {
		o.eigenMaxIterations = n
	}
}

// WithLogger configures structured logging for the pipeline stages.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// pipeline stages. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metricsCollector = mc
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		components:         100,
		nNeighbors:         30,
		alpha:              1,
		approximate:        true,
		metric:             distance.Euclidean,
		annParams:          neighbors.DefaultANNParams,
		jobs:               runtime.GOMAXPROCS(0),
		autoSelect:         true,
		kneeSensitivity:    1,
		buildEmbedding:     true,
		eigenTolerance:     1e-4,
		eigenMaxIterations: 1000,
		logger:             NoopLogger(),
		metricsCollector:   NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
