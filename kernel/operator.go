package kernel

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/diffmap/sparse"
)

// Markov row-normalizes the kernel into the diffusion operator
// T = diag(1/D) K. Rows with nonzero degree sum to exactly 1; rows with
// zero degree stay all-zero and are reported as isolated so callers can
// flag them as a data-quality condition instead of silently accepting
// them.
func Markov(k *sparse.CSR) (*sparse.CSR, *roaring.Bitmap) {
	isolated := roaring.New()

	d := k.RowSums()
	for i, v := range d {
		if v != 0 {
			d[i] = 1 / v
		} else {
			isolated.Add(uint32(i))
		}
	}

	return k.ScaleRows(d), isolated
}
