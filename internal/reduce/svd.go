package reduce

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Default TruncatedSVD settings.
const (
	DefaultComponents  = 50
	DefaultSVDSeed     = 42
	DefaultOversamples = 10
)

// TruncatedSVD reduces a sparse matrix to its top singular directions using a
// seeded randomized range finder (Halko, Martinsson & Tropp 2011).
type TruncatedSVD struct {
	Components      int    // Output dimensionality R
	Oversamples     int    // Extra random directions sampled beyond R
	PowerIterations int    // Subspace iterations; 0 picks 7 for small R, else 4
	Seed            uint64 // Seed for the Gaussian test matrix
}

// Decomposition is the result of TruncatedSVD.FitTransform.
type Decomposition struct {
	Transformed    *mat.Dense // N×R projection U·Σ
	SingularValues []float64  // Top R singular values, descending
}

// DefaultTruncatedSVD returns the standard Stage A configuration.
func DefaultTruncatedSVD() TruncatedSVD {
	return TruncatedSVD{
		Components:  DefaultComponents,
		Oversamples: DefaultOversamples,
		Seed:        DefaultSVDSeed,
	}
}

// FitTransform returns the N×R projection of a onto its top R right singular
// vectors. R must be smaller than both dimensions of a.
func (s TruncatedSVD) FitTransform(a SparseMatrix) (*Decomposition, error) {
	n, k := a.Dims()
	r := s.Components
	if r < 1 {
		return nil, fmt.Errorf("%w: components must be positive, got %d", ErrInvalidConfig, r)
	}
	if s.Oversamples < 0 {
		return nil, fmt.Errorf("%w: oversamples must not be negative, got %d", ErrInvalidConfig, s.Oversamples)
	}
	if r >= k || r >= n {
		return nil, fmt.Errorf("%w: %d components for a %d×%d matrix", ErrDimensionTooLarge, r, n, k)
	}

	p := min(r+s.Oversamples, n, k)
	iters := s.PowerIterations
	if iters <= 0 {
		iters = 4
		if float64(r) < 0.1*float64(min(n, k)) {
			iters = 7
		}
	}

	rng := newRand(s.Seed)
	omega := make([]float64, k*p)
	for i := range omega {
		omega[i] = rng.NormFloat64()
	}

	// Range finder: Y = A·Ω, refined by normalised power iterations.
	y := make([]float64, n*p)
	z := make([]float64, k*p)
	a.MulDense(y, omega, p)
	for it := 0; it < iters; it++ {
		orthonormalize(y, n, p)
		a.MulTransDense(z, y, p)
		orthonormalize(z, k, p)
		a.MulDense(y, z, p)
	}
	orthonormalize(y, n, p)

	// Bᵀ = Aᵀ·Q is k×p; factorising it avoids forming A densely.
	a.MulTransDense(z, y, p)
	bt := mat.NewDense(k, p, z)

	var svd mat.SVD
	if ok := svd.Factorize(bt, mat.SVDThin); !ok {
		return nil, ErrFactorization
	}
	var right, left mat.Dense
	svd.UTo(&right) // k×p: right singular vectors of B
	svd.VTo(&left)  // p×p: left singular vectors of B
	values := svd.Values(nil)

	var u mat.Dense
	u.Mul(mat.NewDense(n, p, y), &left)

	out := mat.NewDense(n, r, nil)
	for j := 0; j < r; j++ {
		sign := columnSign(&right, j)
		for i := 0; i < n; i++ {
			out.Set(i, j, sign*u.At(i, j)*values[j])
		}
	}

	return &Decomposition{
		Transformed:    out,
		SingularValues: values[:r],
	}, nil
}

// orthonormalize replaces the columns of a rows×cols row-major matrix with an
// orthonormal basis of their span (modified Gram-Schmidt, two passes).
// Columns that are numerically dependent on earlier ones become zero.
func orthonormalize(m []float64, rows, cols int) {
	colv := make([][]float64, cols)
	for j := range colv {
		c := make([]float64, rows)
		for i := 0; i < rows; i++ {
			c[i] = m[i*cols+j]
		}
		colv[j] = c
	}

	for j, v := range colv {
		before := floats.Norm(v, 2)
		for pass := 0; pass < 2; pass++ {
			for q := 0; q < j; q++ {
				floats.AddScaled(v, -floats.Dot(colv[q], v), colv[q])
			}
		}
		norm := floats.Norm(v, 2)
		if norm == 0 || norm <= 1e-10*before {
			for i := range v {
				v[i] = 0
			}
			continue
		}
		floats.Scale(1/norm, v)
	}

	for j, c := range colv {
		for i := 0; i < rows; i++ {
			m[i*cols+j] = c[i]
		}
	}
}

// columnSign returns -1 when the largest-magnitude entry of column j is
// negative, making singular vector signs deterministic.
func columnSign(m mat.Matrix, j int) float64 {
	rows, _ := m.Dims()
	best, bestAbs := 0.0, -1.0
	for i := 0; i < rows; i++ {
		v := m.At(i, j)
		if a := math.Abs(v); a > bestAbs {
			best, bestAbs = v, a
		}
	}
	if best < 0 {
		return -1
	}
	return 1
}
