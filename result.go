package diffmap

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/diffmap/sparse"
)

// WarningCode identifies a recoverable condition attached to a result.
type WarningCode int

const (
	// WarningIsolatedRows flags samples whose kernel row had zero
	// degree: the operator leaves them with an all-zero row and the
	// embedding carries no information for them.
	WarningIsolatedRows WarningCode = iota

	// WarningDuplicatePoints flags samples whose adaptive bandwidth
	// collapsed to zero because their nearest neighbors sit at
	// distance zero.
	WarningDuplicatePoints

	// WarningConvergence signals that the eigensolver exhausted its
	// iteration budget; the returned eigenpairs are the best available
	// approximation.
	WarningConvergence
)

func (c WarningCode) String() string {
	switch c {
	case WarningIsolatedRows:
		return "isolated_rows"
	case WarningDuplicatePoints:
		return "duplicate_points"
	case WarningConvergence:
		return "convergence"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// Warning is a data-quality or convergence condition the pipeline
// surfaced without aborting: partial diffusion maps remain usable and
// the caller decides how to react.
type Warning struct {
	Code    WarningCode
	Message string

	// Rows identifies the affected sample indices, nil when the
	// condition is not row-specific.
	Rows *roaring.Bitmap
}

func (w Warning) String() string {
	if w.Rows != nil {
		return fmt.Sprintf("%s: %s (%d rows)", w.Code, w.Message, w.Rows.GetCardinality())
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Result is the bundle produced by one pipeline invocation.
type Result struct {
	// Operator is the row-stochastic diffusion operator T.
	Operator *sparse.CSR

	// Kernel is the symmetric similarity kernel after anisotropic
	// correction, kept for diagnostics.
	Kernel *sparse.CSR

	// EigenValues holds the real parts of the leading eigenvalues of T,
	// sorted descending.
	EigenValues []float64

	// EigenVectors holds the matching unit-norm eigenvectors as
	// columns. Signs are solver-dependent.
	EigenVectors *mat.Dense

	// NumComponents is the selected embedding dimension m: automatic
	// knee detection or the caller's explicit choice.
	NumComponents int

	// Embedding is the N x (m-1) multiscale embedding, nil when its
	// construction was disabled.
	Embedding *mat.Dense

	// Warnings lists the recoverable conditions encountered.
	Warnings []Warning
}

// HasWarning reports whether a warning with the given code is attached.
func (r *Result) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
