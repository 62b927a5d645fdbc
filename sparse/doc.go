// Package sparse implements a compressed sparse row (CSR) matrix with the
// small set of operations the diffusion pipeline needs: coordinate-format
// assembly, transpose, addition, diagonal scaling, row sums and
// matrix-vector products. All operations are O(nnz) and allocate fresh
// matrices; nothing mutates its receiver.
package sparse
