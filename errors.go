package diffmap

import (
	"errors"
	"fmt"

	"github.com/hupe1980/diffmap/distance"
	"github.com/hupe1980/diffmap/kernel"
	"github.com/hupe1980/diffmap/multiscale"
	"github.com/hupe1980/diffmap/neighbors"
)

// ConfigError indicates a configuration the pipeline cannot run with.
// It is raised before any computation starts.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ConfigError struct {
	Field  string
	Reason string
	cause  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.cause }

// InputError indicates a malformed input matrix.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// translateError maps domain-package errors onto the facade taxonomy:
// anything stemming from parameters the caller controls surfaces as a
// ConfigError wrapping the original.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var unknownMetric *distance.ErrUnknownMetric
	if errors.As(err, &unknownMetric) {
		return &ConfigError{Field: "metric", Reason: unknownMetric.Error(), cause: err}
	}

	var tooFewSamples *neighbors.ErrTooFewSamples
	if errors.As(err, &tooFewSamples) {
		return &ConfigError{Field: "n_neighbors", Reason: tooFewSamples.Error(), cause: err}
	}

	var tooFewNeighbors *kernel.ErrTooFewNeighbors
	if errors.As(err, &tooFewNeighbors) {
		return &ConfigError{Field: "n_neighbors", Reason: tooFewNeighbors.Error(), cause: err}
	}

	var invalidDim *multiscale.ErrInvalidDimension
	if errors.As(err, &invalidDim) {
		return &ConfigError{Field: "embedding_dimension", Reason: invalidDim.Error(), cause: err}
	}

	return err
}
