// Package diffmap computes adaptive anisotropic diffusion maps: a
// low-dimensional multiscale embedding of high-dimensional point data
// that preserves manifold geometry and local density variation.
//
// The pipeline builds a k-nearest-neighbor graph (exact brute force or
// approximate HNSW), normalizes distances by per-sample adaptive
// bandwidths, symmetrizes the exponential kernel, optionally applies an
// anisotropic density correction, row-normalizes into a Markov
// diffusion operator, extracts its leading eigenpairs with a sparse
// iterative solver, and selects the informative embedding dimension
// from the knee of the eigenvalue spectrum.
//
// # Quick Start
//
//	d := diffmap.New(
//	    diffmap.WithNeighbors(30),
//	    diffmap.WithComponents(100),
//	)
//	res, err := d.FitTransform(ctx, data)
//	if err != nil {
//	    // configuration or input problem, nothing was computed
//	}
//	embedding := res.Embedding          // N x (m-1) multiscale embedding
//	for _, w := range res.Warnings {    // data-quality conditions
//	    log.Println(w)
//	}
//
// Repeated calls are fully independent: the Diffusor keeps no state
// between invocations and owns no intermediate structure after a call
// returns.
//
// Eigenvector signs and the order of exactly tied eigenvalues are
// solver-dependent; callers must not rely on them.
package diffmap
