// Package multiscale selects how many diffusion components carry signal
// and rescales them into the final embedding.
//
// Component selection treats the eigenvalue spectrum as a convex
// decreasing curve and locates its knee: the index where marginal decay
// stops justifying further components. When no knee can be confirmed
// the selector falls back to the largest consecutive eigenvalue drop.
//
// The embedding scales each kept eigenvector by ev/(1-ev), which turns
// the diffusion-time-dependent components into a single multiscale
// distance: Euclidean distances between embedding rows approximate
// diffusion distances at all time scales at once.
package multiscale
