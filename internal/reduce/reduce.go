// Package reduce implements the two dimensionality-reduction stages: a
// randomized truncated SVD for the sparse concept matrix and t-SNE for the
// final 2-D layout.
package reduce

import (
	"errors"
	"math/rand/v2"
)

// Configuration errors. Both stages refuse to run rather than silently
// changing their output shape.
var (
	ErrInvalidConfig      = errors.New("invalid reduction config")
	ErrDimensionTooLarge  = errors.New("requested dimensionality exceeds available features or samples")
	ErrPerplexityTooLarge = errors.New("perplexity must be less than the number of samples")
	ErrFactorization      = errors.New("matrix factorization did not converge")
)

// SparseMatrix is the sparse input of TruncatedSVD. Products use row-major
// dense slices so the sparse operand is never densified.
type SparseMatrix interface {
	Dims() (rows, cols int)
	// MulDense writes A·B (rows×p) into dst for a cols×p matrix b.
	MulDense(dst, b []float64, p int)
	// MulTransDense writes Aᵀ·B (cols×p) into dst for a rows×p matrix b.
	MulTransDense(dst, b []float64, p int)
}

// Progress describes one t-SNE optimisation step.
type Progress struct {
	Iteration    int     `json:"iteration"` // 1-based
	Total        int     `json:"total"`
	KLDivergence float64 `json:"kl_divergence"`
	GradientNorm float64 `json:"gradient_norm"`
	Exaggerated  bool    `json:"exaggerated"`
}

// ProgressReporter receives t-SNE progress updates.
type ProgressReporter interface {
	// OnProgress is called after every optimisation step.
	OnProgress(p Progress)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(p Progress)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(p Progress) {
	f(p)
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
