// Package kernel turns a k-nearest-neighbor graph into the diffusion
// operator of an adaptive anisotropic diffusion map.
//
// The stages mirror the classic construction: per-sample adaptive
// bandwidths from the neighbor distances, an exponential similarity
// kernel symmetrized as W + Wt, an optional density correction
// controlled by alpha, and finally row normalization into a
// row-stochastic Markov operator.
//
// All stages are pure functions of their inputs: running a stage twice
// on the same input yields bit-identical output.
package kernel
