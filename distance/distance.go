package distance

import (
	"fmt"
	"math"
	"strings"
)

// Metric identifies the distance metric used for vector comparison.
type Metric int

const (
	Euclidean Metric = iota
	SqEuclidean
	Cosine
	Angular
	Manhattan
	Chebyshev
)

func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case SqEuclidean:
		return "sqeuclidean"
	case Cosine:
		return "cosine"
	case Angular:
		return "angular"
	case Manhattan:
		return "manhattan"
	case Chebyshev:
		return "chebyshev"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ErrUnknownMetric indicates a metric name or identifier with no
// registered distance function.
type ErrUnknownMetric struct {
	Name string
}

func (e *ErrUnknownMetric) Error() string {
	return fmt.Sprintf("unknown distance metric: %q", e.Name)
}

// aliases maps common metric names to Metric values.
var aliases = map[string]Metric{
	"euclidean":   Euclidean,
	"l2":          Euclidean,
	"sqeuclidean": SqEuclidean,
	"cosine":      Cosine,
	"angular":     Angular,
	"manhattan":   Manhattan,
	"l1":          Manhattan,
	"taxicab":     Manhattan,
	"chebyshev":   Chebyshev,
	"linf":        Chebyshev,
}

// Parse resolves a metric name to its Metric value.
func Parse(name string) (Metric, error) {
	m, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, &ErrUnknownMetric{Name: name}
	}
	return m, nil
}

// Func is a function type for distance calculation between two vectors.
// Implementations assume both vectors have the same length.
type Func func(a, b []float64) float64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case Euclidean:
		return L2, nil
	case SqEuclidean:
		return SquaredL2, nil
	case Cosine:
		return CosineDistance, nil
	case Angular:
		return AngularDistance, nil
	case Manhattan:
		return L1, nil
	case Chebyshev:
		return LInf, nil
	default:
		return nil, &ErrUnknownMetric{Name: m.String()}
	}
}

// SquaredL2 calculates the squared L2 (Euclidean) distance.
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// L2 calculates the L2 (Euclidean) distance.
func L2(a, b []float64) float64 {
	return math.Sqrt(SquaredL2(a, b))
}

// Dot calculates the dot product of two vectors.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// CosineDistance calculates 1 - cosine similarity. Zero vectors are at
// distance 1 from everything, including each other.
func CosineDistance(a, b []float64) float64 {
	na := Dot(a, a)
	nb := Dot(b, b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - Dot(a, b)/math.Sqrt(na*nb)
}

// AngularDistance calculates the angle between two vectors normalized to
// [0, 1]: acos(cosine similarity) / pi. Zero vectors are treated as
// orthogonal to everything.
func AngularDistance(a, b []float64) float64 {
	na := Dot(a, a)
	nb := Dot(b, b)
	if na == 0 || nb == 0 {
		return 0.5
	}
	cos := Dot(a, b) / math.Sqrt(na*nb)
	// Clamp against rounding drift before acos.
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) / math.Pi
}

// L1 calculates the Manhattan distance.
func L1(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// LInf calculates the Chebyshev distance.
func LInf(a, b []float64) float64 {
	var maxd float64
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > maxd {
			maxd = d
		}
	}
	return maxd
}
