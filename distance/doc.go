// Package distance provides the distance metrics used for neighbor graph
// construction.
//
// # Supported Metrics
//
//   - Euclidean: L2 distance (default)
//   - SqEuclidean: squared L2 distance
//   - Cosine: cosine distance (1 - cosine similarity)
//   - Angular: normalized angle between vectors
//   - Manhattan: L1 distance
//   - Chebyshev: L-infinity distance
//
// Metrics can be resolved from their common string aliases with Parse,
// e.g. "l2", "sqeuclidean", "cosine", "angular", "l1", "linf".
//
// # Usage
//
//	fn, err := distance.Provider(distance.Euclidean)
//	d := fn(a, b)
package distance
