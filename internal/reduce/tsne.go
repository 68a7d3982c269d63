package reduce

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Default TSNE settings.
const (
	DefaultDimensions        = 2
	DefaultPerplexity        = 20.0
	DefaultIterations        = 300
	DefaultTSNESeed          = 1000
	DefaultEarlyExaggeration = 12.0

	InitPCA    = "pca"
	InitRandom = "random"
)

// Optimiser schedule.
const (
	explorationIterations = 250
	explorationMomentum   = 0.5
	finalMomentum         = 0.8
	minGain               = 0.01
	minGradNorm           = 1e-7
	initScale             = 1e-4
	machineEpsilon        = 2.220446049250313e-16
)

// TSNE embeds points in a low-dimensional space with t-distributed
// stochastic neighbour embedding (van der Maaten & Hinton 2008).
//
// Input affinities use the 3·perplexity nearest neighbours of each point.
// The gradient is exact: repulsive forces are summed over all pairs without
// materialising the N×N similarity matrix. Each iteration costs
// O(N²·Dimensions) and the neighbour search makes O(N²) distance evaluations,
// so corpora in the tens of thousands of articles take minutes to hours.
type TSNE struct {
	Dimensions        int
	Perplexity        float64
	Iterations        int
	EarlyExaggeration float64
	LearningRate      float64 // 0 selects max(N/EarlyExaggeration/4, 50)
	Init              string  // InitPCA or InitRandom
	Seed              uint64

	// Progress, if set, is called after every optimisation step.
	Progress ProgressReporter
}

// Layout is the result of TSNE.FitTransform.
type Layout struct {
	Embedding    *mat.Dense // N×Dimensions
	KLDivergence float64    // Final KL(P‖Q)
	Iterations   int        // Steps actually run
	MeanSigma    float64    // Mean Gaussian bandwidth of the input affinities
}

// DefaultTSNE returns the standard Stage B configuration.
func DefaultTSNE() TSNE {
	return TSNE{
		Dimensions:        DefaultDimensions,
		Perplexity:        DefaultPerplexity,
		Iterations:        DefaultIterations,
		EarlyExaggeration: DefaultEarlyExaggeration,
		Init:              InitPCA,
		Seed:              DefaultTSNESeed,
	}
}

func (t TSNE) validate(n int) error {
	switch {
	case t.Dimensions < 1:
		return fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidConfig, t.Dimensions)
	case t.Perplexity <= 0:
		return fmt.Errorf("%w: perplexity must be positive, got %g", ErrInvalidConfig, t.Perplexity)
	case t.Iterations < 1:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, t.Iterations)
	case t.EarlyExaggeration < 1:
		return fmt.Errorf("%w: early exaggeration must be at least 1, got %g", ErrInvalidConfig, t.EarlyExaggeration)
	case t.LearningRate < 0:
		return fmt.Errorf("%w: learning rate must not be negative, got %g", ErrInvalidConfig, t.LearningRate)
	case t.Init != "" && t.Init != InitPCA && t.Init != InitRandom:
		return fmt.Errorf("%w: init must be %q or %q, got %q", ErrInvalidConfig, InitPCA, InitRandom, t.Init)
	case t.Perplexity >= float64(n):
		return fmt.Errorf("%w: perplexity %g with %d samples", ErrPerplexityTooLarge, t.Perplexity, n)
	}
	return nil
}

// FitTransform embeds the rows of x.
func (t TSNE) FitTransform(x mat.Matrix) (*Layout, error) {
	n, _ := x.Dims()
	if err := t.validate(n); err != nil {
		return nil, err
	}

	k := min(n-1, int(3*t.Perplexity+1))
	nbrs := nearestNeighbors(x, k)
	cond, meanSigma := conditionalProbabilities(nbrs, t.Perplexity)
	p := jointProbabilities(nbrs, cond)

	y := t.initialize(x)

	lr := t.LearningRate
	if lr == 0 {
		lr = math.Max(float64(n)/t.EarlyExaggeration/4, 50)
	}

	o := &optimizer{
		p:    p,
		y:    y,
		n:    n,
		dims: t.Dimensions,
		grad: make([]float64, len(y)),
	}

	explore := min(explorationIterations, t.Iterations)
	it, kl := o.run(0, explore, t.Iterations, t.EarlyExaggeration, explorationMomentum, lr, t.Progress)
	if it == explore && explore < t.Iterations {
		it, kl = o.run(it, t.Iterations, t.Iterations, 1, finalMomentum, lr, t.Progress)
	}

	return &Layout{
		Embedding:    mat.NewDense(n, t.Dimensions, y),
		KLDivergence: kl,
		Iterations:   it,
		MeanSigma:    meanSigma,
	}, nil
}

// initialize returns the starting layout as an N×Dimensions row-major slice.
func (t TSNE) initialize(x mat.Matrix) []float64 {
	n, _ := x.Dims()
	if t.Init != InitRandom {
		if y, ok := pcaInit(x, t.Dimensions); ok {
			return y
		}
	}
	rng := newRand(t.Seed)
	y := make([]float64, n*t.Dimensions)
	for i := range y {
		y[i] = initScale * rng.NormFloat64()
	}
	return y
}

// pcaInit projects the centred rows of x onto their top principal axes and
// rescales so the first axis has standard deviation 1e-4. It reports false
// when the projection is degenerate.
func pcaInit(x mat.Matrix, dims int) ([]float64, bool) {
	n, d := x.Dims()
	if d < dims || n < 2 {
		return nil, false
	}

	centred := mat.DenseCopyOf(x)
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, centred)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centred.Set(i, j, col[i]-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centred, mat.SVDThin); !ok {
		return nil, false
	}
	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)
	if _, uc := u.Dims(); uc < dims {
		return nil, false
	}

	y := make([]float64, n*dims)
	for j := 0; j < dims; j++ {
		sign := columnSign(&u, j)
		for i := 0; i < n; i++ {
			y[i*dims+j] = sign * u.At(i, j) * values[j]
		}
	}

	first := make([]float64, n)
	for i := range first {
		first[i] = y[i*dims]
	}
	std := stat.StdDev(first, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, false
	}
	for i := range y {
		y[i] = y[i] / std * initScale
	}
	return y, true
}

// optimizer holds the gradient-descent state shared by both phases.
type optimizer struct {
	p    *sparse.CSR
	y    []float64
	n    int
	dims int
	grad []float64
}

// run performs steps [from, to) with fresh momentum and gain state and returns
// the number of completed steps and the last KL divergence. It stops early
// when the gradient norm falls below minGradNorm.
func (o *optimizer) run(from, to, total int, exaggeration, momentum, lr float64, progress ProgressReporter) (int, float64) {
	update := make([]float64, len(o.y))
	gains := make([]float64, len(o.y))
	for i := range gains {
		gains[i] = 1
	}

	kl := math.NaN()
	for it := from; it < to; it++ {
		kl = o.gradient(exaggeration)

		var norm float64
		for e, g := range o.grad {
			if update[e]*g < 0 {
				gains[e] += 0.2
			} else {
				gains[e] *= 0.8
			}
			gains[e] = math.Max(gains[e], minGain)
			g *= gains[e]
			norm += g * g
			update[e] = momentum*update[e] - lr*g
			o.y[e] += update[e]
		}
		norm = math.Sqrt(norm)

		if progress != nil {
			progress.OnProgress(Progress{
				Iteration:    it + 1,
				Total:        total,
				KLDivergence: kl,
				GradientNorm: norm,
				Exaggerated:  exaggeration != 1,
			})
		}
		if norm < minGradNorm {
			return it + 1, kl
		}
	}
	return to, kl
}

// gradient fills o.grad with ∂KL/∂y for the current layout and returns
// KL(P‖Q), with P scaled by exaggeration.
func (o *optimizer) gradient(exaggeration float64) float64 {
	n, dims, y := o.n, o.dims, o.y
	for i := range o.grad {
		o.grad[i] = 0
	}

	// Repulsion over all pairs: Σ_j w_ij² (y_i − y_j), with w_ij = 1/(1+‖y_i−y_j‖²).
	rep := make([]float64, len(y))
	var z float64
	for i := 0; i < n; i++ {
		yi := y[i*dims : (i+1)*dims]
		for j := i + 1; j < n; j++ {
			yj := y[j*dims : (j+1)*dims]
			w := 1 / (1 + sqDist(yi, yj))
			z += 2 * w
			w2 := w * w
			for c := 0; c < dims; c++ {
				f := w2 * (yi[c] - yj[c])
				rep[i*dims+c] += f
				rep[j*dims+c] -= f
			}
		}
	}
	z = math.Max(z, machineEpsilon)

	// Attraction over the sparse neighbour graph.
	var kl float64
	o.p.DoNonZero(func(i, j int, pij float64) {
		yi := y[i*dims : (i+1)*dims]
		yj := y[j*dims : (j+1)*dims]
		w := 1 / (1 + sqDist(yi, yj))
		pe := exaggeration * pij
		for c := 0; c < dims; c++ {
			o.grad[i*dims+c] += pe * w * (yi[c] - yj[c])
		}
		q := w / z
		kl += pe * math.Log(math.Max(pe, machineEpsilon)/math.Max(q, machineEpsilon))
	})

	for e := range o.grad {
		o.grad[e] = 4 * (o.grad[e] - rep[e]/z)
	}
	return kl
}

func sqDist(a, b []float64) float64 {
	var s float64
	for c := range a {
		d := a[c] - b[c]
		s += d * d
	}
	return s
}
