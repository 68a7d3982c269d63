package reduce

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/jiekaitao/litmap/internal/concept"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// randomPresence builds a rows×cols concept matrix where each cell is set
// with probability density.
func randomPresence(t *testing.T, rows, cols int, density float64, seed uint64) (*concept.Matrix, *mat.Dense) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	parsed := make([][]int64, rows)
	dense := mat.NewDense(rows, cols, nil)
	for i := range parsed {
		parsed[i] = []int64{}
		for j := 0; j < cols; j++ {
			if rng.Float64() < density {
				parsed[i] = append(parsed[i], int64(j))
				dense.Set(i, j, 1)
			}
		}
	}
	// Every column must appear so the vocabulary maps concept j to column j.
	for j := 0; j < cols; j++ {
		parsed[j%rows] = append(parsed[j%rows], int64(j))
		dense.Set(j%rows, j, 1)
	}
	m, err := concept.Encode(concept.BuildVocabulary(parsed), parsed)
	require.NoError(t, err)
	return m, dense
}

func exactSingularValues(t *testing.T, a mat.Matrix) []float64 {
	t.Helper()
	var svd mat.SVD
	require.True(t, svd.Factorize(a, mat.SVDNone))
	return svd.Values(nil)
}

func TestTruncatedSVD_ExactWhenSubspaceIsFull(t *testing.T) {
	m, dense := randomPresence(t, 8, 6, 0.4, 1)

	svd := TruncatedSVD{Components: 3, Oversamples: 10, Seed: 42}
	dec, err := svd.FitTransform(m)
	require.NoError(t, err)

	rows, cols := dec.Transformed.Dims()
	assert.Equal(t, 8, rows)
	assert.Equal(t, 3, cols)

	want := exactSingularValues(t, dense)
	for j := 0; j < 3; j++ {
		assert.InDelta(t, want[j], dec.SingularValues[j], 1e-9, "singular value %d", j)
		col := mat.Col(nil, j, dec.Transformed)
		assert.InDelta(t, want[j], floats.Norm(col, 2), 1e-9, "column %d norm", j)
	}
}

func TestTruncatedSVD_RandomizedApproximation(t *testing.T) {
	m, dense := randomPresence(t, 40, 30, 0.3, 7)

	dec, err := TruncatedSVD{Components: 3, Oversamples: 5, Seed: 42}.FitTransform(m)
	require.NoError(t, err)

	want := exactSingularValues(t, dense)
	assert.InEpsilon(t, want[0], dec.SingularValues[0], 1e-3)
	for j := 0; j < 3; j++ {
		assert.LessOrEqual(t, dec.SingularValues[j], want[j]+1e-9)
	}
	for _, v := range dec.Transformed.RawMatrix().Data {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestTruncatedSVD_Deterministic(t *testing.T) {
	m, _ := randomPresence(t, 25, 20, 0.2, 3)
	svd := TruncatedSVD{Components: 4, Oversamples: 3, Seed: 42}

	a, err := svd.FitTransform(m)
	require.NoError(t, err)
	b, err := svd.FitTransform(m)
	require.NoError(t, err)

	assert.Equal(t, a.Transformed.RawMatrix().Data, b.Transformed.RawMatrix().Data)
}

func TestTruncatedSVD_Errors(t *testing.T) {
	m, _ := randomPresence(t, 5, 4, 0.5, 1)

	tests := []struct {
		name string
		svd  TruncatedSVD
		want error
	}{
		{"components equal features", TruncatedSVD{Components: 4}, ErrDimensionTooLarge},
		{"components exceed samples", TruncatedSVD{Components: 5}, ErrDimensionTooLarge},
		{"default components on tiny matrix", DefaultTruncatedSVD(), ErrDimensionTooLarge},
		{"zero components", TruncatedSVD{Components: 0}, ErrInvalidConfig},
		{"negative oversamples", TruncatedSVD{Components: 1, Oversamples: -1}, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svd.FitTransform(m)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTruncatedSVD_EmptyVocabulary(t *testing.T) {
	parsed := [][]int64{{}, {}}
	m, err := concept.Encode(concept.BuildVocabulary(parsed), parsed)
	require.NoError(t, err)

	_, err = TruncatedSVD{Components: 1}.FitTransform(m)
	assert.ErrorIs(t, err, ErrDimensionTooLarge)
}

func TestOrthonormalize(t *testing.T) {
	// Third column is the sum of the first two.
	m := []float64{
		1, 0, 1,
		1, 1, 2,
		0, 1, 1,
		2, 0, 2,
	}
	orthonormalize(m, 4, 3)
	q := mat.NewDense(4, 3, m)

	for a := 0; a < 2; a++ {
		ca := mat.Col(nil, a, q)
		assert.InDelta(t, 1, floats.Norm(ca, 2), 1e-12)
		for b := a + 1; b < 3; b++ {
			assert.InDelta(t, 0, floats.Dot(ca, mat.Col(nil, b, q)), 1e-12)
		}
	}
	assert.InDelta(t, 0, floats.Norm(mat.Col(nil, 2, q), 2), 1e-12)
}
