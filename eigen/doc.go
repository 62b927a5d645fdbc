// Package eigen computes the leading eigenpairs of a large sparse
// operator with a restarted Arnoldi iteration.
//
// The operator is only accessed through matrix-vector products, so the
// method suits the diffusion operator: large, sparse, non-symmetric,
// with only a handful of leading modes of interest. The small projected
// Hessenberg problem is solved densely with gonum's mat.Eigen.
//
// Eigenvalues are returned as real parts sorted descending; tie order
// beyond the sort key and eigenvector signs are implementation-defined
// and callers must not rely on them.
package eigen
