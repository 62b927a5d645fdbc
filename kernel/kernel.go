package kernel

import (
	"math"

	"github.com/hupe1980/diffmap/neighbors"
	"github.com/hupe1980/diffmap/sparse"
)

// Build converts the neighbor graph into the symmetric similarity
// kernel W + Wt, where W holds exp(-d/sigma_i) for every stored edge
// (i, j, d). A zero bandwidth keeps zero-distance duplicates at full
// similarity 1 instead of producing NaN. Symmetrization means an edge
// detected from either endpoint contributes to both.
func Build(g *neighbors.Graph, sigma []float64) (*sparse.CSR, error) {
	n := g.NumSamples()

	b := sparse.NewBuilder(n, n)
	for i := 0; i < n; i++ {
		for _, e := range g.Rows[i] {
			b.Add(i, e.Index, math.Exp(-normalizedDistance(e.Distance, sigma[i])))
		}
	}

	w := b.Build()

	return w.Plus(w.Transpose())
}

// normalizedDistance scales a raw edge distance by the row bandwidth.
// sigma 0 means the row collapses onto duplicates; those edges stay at
// normalized distance 0.
func normalizedDistance(d, sigma float64) float64 {
	if sigma == 0 {
		return 0
	}
	return d / sigma
}

// AnisotropicScale applies the density correction of strength alpha:
// degrees D are raised to -alpha where nonzero and the kernel is scaled
// on both sides, suppressing the influence of high-density regions.
// alpha <= 0 disables the correction and returns the kernel unchanged.
func AnisotropicScale(k *sparse.CSR, alpha float64) *sparse.CSR {
	if alpha <= 0 {
		return k
	}

	d := k.RowSums()
	for i, v := range d {
		if v != 0 {
			d[i] = math.Pow(v, -alpha)
		}
	}

	return k.ScaleSym(d)
}
