// Package concept encodes article concept tags into a sparse presence matrix.
package concept

import (
	"errors"
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
)

// Encoding errors.
var (
	ErrUnknownConcept = errors.New("concept not in vocabulary")
	ErrRowMismatch    = errors.New("row count does not match matrix")
)

// Vocabulary is the sorted set of concept IDs seen in a corpus and their
// dense column indices. It is immutable once built.
type Vocabulary struct {
	ids   []int64
	index map[int64]int
}

// BuildVocabulary collects every distinct concept ID from the parsed rows,
// sorts them ascending and assigns column indices 0..K-1.
// It only reads parsed.
func BuildVocabulary(parsed [][]int64) *Vocabulary {
	seen := make(map[int64]struct{})
	for _, row := range parsed {
		for _, id := range row {
			seen[id] = struct{}{}
		}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	index := make(map[int64]int, len(ids))
	for col, id := range ids {
		index[id] = col
	}
	return &Vocabulary{ids: ids, index: index}
}

// Size returns the number of distinct concepts (K).
func (v *Vocabulary) Size() int {
	return len(v.ids)
}

// Column returns the column index of a concept ID.
func (v *Vocabulary) Column(id int64) (int, bool) {
	col, ok := v.index[id]
	return col, ok
}

// ConceptAt returns the concept ID stored at a column.
func (v *Vocabulary) ConceptAt(col int) int64 {
	return v.ids[col]
}

// sortedIDs returns a copy of the sorted concept IDs.
func (v *Vocabulary) sortedIDs() []int64 {
	out := make([]int64, len(v.ids))
	copy(out, v.ids)
	return out
}

// Matrix is an N×K boolean presence matrix: cell (i, j) is set iff article i
// carries concept j. Only the compressed row structure is kept; a set cell
// has no stored value.
type Matrix struct {
	rows, cols int
	indptr     []int   // len rows+1; nil when rows or cols is zero
	ind        []int32 // column indices, ascending within each row
}

// Encode scatters every parsed row into COO triplets using the vocabulary's
// fixed column mapping, then compresses once to CSR and keeps its structure.
// A concept repeated within one row sets its cell once.
func Encode(vocab *Vocabulary, parsed [][]int64) (*Matrix, error) {
	n, k := len(parsed), vocab.Size()
	m := &Matrix{rows: n, cols: k}
	if n == 0 || k == 0 {
		return m, nil
	}

	var rowIdx, colIdx []int
	for i, row := range parsed {
		set := make(map[int]struct{}, len(row))
		for _, id := range row {
			col, ok := vocab.Column(id)
			if !ok {
				return nil, fmt.Errorf("row %d: %w: %d", i, ErrUnknownConcept, id)
			}
			if _, dup := set[col]; dup {
				continue
			}
			set[col] = struct{}{}
			rowIdx = append(rowIdx, i)
			colIdx = append(colIdx, col)
		}
	}

	data := make([]float64, len(rowIdx))
	for i := range data {
		data[i] = 1
	}
	raw := sparse.NewCOO(n, k, rowIdx, colIdx, data).ToCSR().RawMatrix()

	m.indptr = make([]int, len(raw.Indptr))
	copy(m.indptr, raw.Indptr)
	m.ind = make([]int32, len(raw.Ind))
	for i, j := range raw.Ind {
		m.ind[i] = int32(j)
	}
	for i := 0; i < n; i++ {
		row := m.ind[m.indptr[i]:m.indptr[i+1]]
		sort.Slice(row, func(a, b int) bool { return row[a] < row[b] })
	}
	return m, nil
}

// Dims returns the matrix shape (articles, concepts).
func (m *Matrix) Dims() (int, int) {
	return m.rows, m.cols
}

// NNZ returns the number of set cells.
func (m *Matrix) NNZ() int {
	return len(m.ind)
}

// Has reports whether article i carries concept column j.
func (m *Matrix) Has(i, j int) bool {
	if m.indptr == nil {
		return false
	}
	row := m.ind[m.indptr[i]:m.indptr[i+1]]
	p := sort.Search(len(row), func(x int) bool { return int(row[x]) >= j })
	return p < len(row) && int(row[p]) == j
}

// DoNonZero calls fn for every set cell in row-major order.
func (m *Matrix) DoNonZero(fn func(i, j int)) {
	if m.indptr == nil {
		return
	}
	for i := 0; i < m.rows; i++ {
		for _, j := range m.ind[m.indptr[i]:m.indptr[i+1]] {
			fn(i, int(j))
		}
	}
}

// MulDense computes A·B where B is a K×p dense row-major slice, writing the
// N×p result into dst (row-major). dst must have length N·p.
func (m *Matrix) MulDense(dst, b []float64, p int) {
	for i := range dst {
		dst[i] = 0
	}
	m.DoNonZero(func(i, j int) {
		out := dst[i*p : (i+1)*p]
		in := b[j*p : (j+1)*p]
		for c := range out {
			out[c] += in[c]
		}
	})
}

// MulTransDense computes Aᵀ·B where B is an N×p dense row-major slice,
// writing the K×p result into dst (row-major). dst must have length K·p.
func (m *Matrix) MulTransDense(dst, b []float64, p int) {
	for i := range dst {
		dst[i] = 0
	}
	m.DoNonZero(func(i, j int) {
		out := dst[j*p : (j+1)*p]
		in := b[i*p : (i+1)*p]
		for c := range out {
			out[c] += in[c]
		}
	})
}

// RowConcepts returns the concept IDs set in row i, ordered by column.
func (m *Matrix) RowConcepts(vocab *Vocabulary, i int) []int64 {
	if m.indptr == nil {
		return nil
	}
	var ids []int64
	for _, j := range m.ind[m.indptr[i]:m.indptr[i+1]] {
		ids = append(ids, vocab.ConceptAt(int(j)))
	}
	return ids
}

// CheckRows returns ErrRowMismatch unless the matrix has exactly n rows.
func (m *Matrix) CheckRows(n int) error {
	if m.rows != n {
		return fmt.Errorf("%w: matrix has %d rows, want %d", ErrRowMismatch, m.rows, n)
	}
	return nil
}
