package sparse

import (
	"fmt"
	"sort"
)

// CSR is a sparse matrix in compressed sparse row format. The stored
// pattern is canonical: within each row, column indices are strictly
// ascending and duplicate-free. Stored entries may hold the value zero;
// they still count as part of the pattern.
type CSR struct {
	rows, cols int

	// RowPtr has length rows+1; row i occupies the half-open range
	// [RowPtr[i], RowPtr[i+1]) of ColInd and Data.
	RowPtr []int
	ColInd []int
	Data   []float64
}

// ErrShapeMismatch indicates two matrices with incompatible dimensions.
type ErrShapeMismatch struct {
	ARows, ACols int
	BRows, BCols int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch: %dx%d vs %dx%d", e.ARows, e.ACols, e.BRows, e.BCols)
}

// Builder accumulates coordinate-format triplets for CSR assembly.
// Triplets may arrive in any order; duplicates are summed on Build.
type Builder struct {
	rows, cols int
	is, js     []int
	vs         []float64
}

// NewBuilder creates a Builder for a rows x cols matrix.
func NewBuilder(rows, cols int) *Builder {
	return &Builder{rows: rows, cols: cols}
}

// Add records the triplet (i, j, v). Indices are trusted; callers own
// bounds checking because the pipeline generates them from graph rows.
func (b *Builder) Add(i, j int, v float64) {
	b.is = append(b.is, i)
	b.js = append(b.js, j)
	b.vs = append(b.vs, v)
}

// Len returns the number of accumulated triplets.
func (b *Builder) Len() int { return len(b.vs) }

// Build assembles the canonical CSR matrix: triplets bucketed by row,
// sorted by column, duplicates summed.
func (b *Builder) Build() *CSR {
	m := &CSR{
		rows:   b.rows,
		cols:   b.cols,
		RowPtr: make([]int, b.rows+1),
	}

	counts := make([]int, b.rows)
	for _, i := range b.is {
		counts[i]++
	}
	for i, c := range counts {
		m.RowPtr[i+1] = m.RowPtr[i] + c
	}

	nnz := len(b.vs)
	m.ColInd = make([]int, nnz)
	m.Data = make([]float64, nnz)

	next := make([]int, b.rows)
	copy(next, m.RowPtr[:b.rows])
	for t := 0; t < nnz; t++ {
		i := b.is[t]
		p := next[i]
		m.ColInd[p] = b.js[t]
		m.Data[p] = b.vs[t]
		next[i]++
	}

	// Canonicalize each row: sort by column, merge duplicates.
	w := 0
	rowStart := 0
	for i := 0; i < b.rows; i++ {
		lo, hi := m.RowPtr[i], m.RowPtr[i+1]
		row := rowSorter{cols: m.ColInd[lo:hi], vals: m.Data[lo:hi]}
		sort.Sort(row)

		rowStart = w
		for p := lo; p < hi; p++ {
			if w > rowStart && m.ColInd[p] == m.ColInd[w-1] {
				m.Data[w-1] += m.Data[p]
				continue
			}
			m.ColInd[w] = m.ColInd[p]
			m.Data[w] = m.Data[p]
			w++
		}
		m.RowPtr[i] = rowStart
	}
	m.RowPtr[b.rows] = w
	m.ColInd = m.ColInd[:w]
	m.Data = m.Data[:w]

	return m
}

type rowSorter struct {
	cols []int
	vals []float64
}

func (r rowSorter) Len() int           { return len(r.cols) }
func (r rowSorter) Less(i, j int) bool { return r.cols[i] < r.cols[j] }
func (r rowSorter) Swap(i, j int) {
	r.cols[i], r.cols[j] = r.cols[j], r.cols[i]
	r.vals[i], r.vals[j] = r.vals[j], r.vals[i]
}

// Dims returns the matrix dimensions.
func (m *CSR) Dims() (rows, cols int) { return m.rows, m.cols }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.Data) }

// Row returns the stored column indices and values of row i. The slices
// alias internal storage and must not be modified.
func (m *CSR) Row(i int) (cols []int, vals []float64) {
	lo, hi := m.RowPtr[i], m.RowPtr[i+1]
	return m.ColInd[lo:hi], m.Data[lo:hi]
}

// At returns the value at (i, j), zero if the entry is not stored.
func (m *CSR) At(i, j int) float64 {
	cols, vals := m.Row(i)
	p := sort.SearchInts(cols, j)
	if p < len(cols) && cols[p] == j {
		return vals[p]
	}
	return 0
}

// Clone returns a deep copy.
func (m *CSR) Clone() *CSR {
	c := &CSR{
		rows:   m.rows,
		cols:   m.cols,
		RowPtr: make([]int, len(m.RowPtr)),
		ColInd: make([]int, len(m.ColInd)),
		Data:   make([]float64, len(m.Data)),
	}
	copy(c.RowPtr, m.RowPtr)
	copy(c.ColInd, m.ColInd)
	copy(c.Data, m.Data)
	return c
}

// Transpose returns the transposed matrix in canonical CSR form.
func (m *CSR) Transpose() *CSR {
	t := &CSR{
		rows:   m.cols,
		cols:   m.rows,
		RowPtr: make([]int, m.cols+1),
		ColInd: make([]int, m.NNZ()),
		Data:   make([]float64, m.NNZ()),
	}

	for _, j := range m.ColInd {
		t.RowPtr[j+1]++
	}
	for j := 0; j < m.cols; j++ {
		t.RowPtr[j+1] += t.RowPtr[j]
	}

	next := make([]int, m.cols)
	copy(next, t.RowPtr[:m.cols])
	for i := 0; i < m.rows; i++ {
		for p := m.RowPtr[i]; p < m.RowPtr[i+1]; p++ {
			j := m.ColInd[p]
			q := next[j]
			t.ColInd[q] = i
			t.Data[q] = m.Data[p]
			next[j]++
		}
	}

	return t
}

// Plus returns m + other. The result pattern is the union of both
// patterns, so structurally symmetric sums (A + At) keep mirrored
// entries even when values cancel.
func (m *CSR) Plus(other *CSR) (*CSR, error) {
	if m.rows != other.rows || m.cols != other.cols {
		return nil, &ErrShapeMismatch{ARows: m.rows, ACols: m.cols, BRows: other.rows, BCols: other.cols}
	}

	s := &CSR{
		rows:   m.rows,
		cols:   m.cols,
		RowPtr: make([]int, m.rows+1),
		ColInd: make([]int, 0, m.NNZ()+other.NNZ()),
		Data:   make([]float64, 0, m.NNZ()+other.NNZ()),
	}

	for i := 0; i < m.rows; i++ {
		ac, av := m.Row(i)
		bc, bv := other.Row(i)
		pa, pb := 0, 0
		for pa < len(ac) || pb < len(bc) {
			switch {
			case pb == len(bc) || (pa < len(ac) && ac[pa] < bc[pb]):
				s.ColInd = append(s.ColInd, ac[pa])
				s.Data = append(s.Data, av[pa])
				pa++
			case pa == len(ac) || bc[pb] < ac[pa]:
				s.ColInd = append(s.ColInd, bc[pb])
				s.Data = append(s.Data, bv[pb])
				pb++
			default:
				s.ColInd = append(s.ColInd, ac[pa])
				s.Data = append(s.Data, av[pa]+bv[pb])
				pa++
				pb++
			}
		}
		s.RowPtr[i+1] = len(s.ColInd)
	}

	return s, nil
}

// RowSums returns the per-row sum of stored values.
func (m *CSR) RowSums() []float64 {
	sums := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		for p := m.RowPtr[i]; p < m.RowPtr[i+1]; p++ {
			sums[i] += m.Data[p]
		}
	}
	return sums
}

// ScaleRows returns diag(d) * m.
func (m *CSR) ScaleRows(d []float64) *CSR {
	s := m.Clone()
	for i := 0; i < s.rows; i++ {
		for p := s.RowPtr[i]; p < s.RowPtr[i+1]; p++ {
			s.Data[p] *= d[i]
		}
	}
	return s
}

// ScaleSym returns diag(d) * m * diag(d).
func (m *CSR) ScaleSym(d []float64) *CSR {
	s := m.Clone()
	for i := 0; i < s.rows; i++ {
		for p := s.RowPtr[i]; p < s.RowPtr[i+1]; p++ {
			s.Data[p] *= d[i] * d[s.ColInd[p]]
		}
	}
	return s
}

// MulVecTo computes dst = m * x. dst must have length rows and x length
// cols; dst is overwritten.
func (m *CSR) MulVecTo(dst, x []float64) {
	for i := 0; i < m.rows; i++ {
		var sum float64
		for p := m.RowPtr[i]; p < m.RowPtr[i+1]; p++ {
			sum += m.Data[p] * x[m.ColInd[p]]
		}
		dst[i] = sum
	}
}
