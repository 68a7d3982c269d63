package reduce

import (
	"container/heap"
	"math"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

const (
	perplexityTolerance = 1e-5
	perplexitySteps     = 100
	minProbability      = 1e-8
)

// neighbor is one entry of a k-nearest-neighbour list.
type neighbor struct {
	index int
	dist  float64 // squared Euclidean distance
}

// closer orders neighbours by distance, then by row index.
func closer(a, b neighbor) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.index < b.index
}

// neighborHeap is a max-heap on closer: the root is the farthest kept neighbour.
type neighborHeap []neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(a, b int) bool { return closer(h[b], h[a]) }
func (h neighborHeap) Swap(a, b int)      { h[a], h[b] = h[b], h[a] }
func (h *neighborHeap) Push(x any)        { *h = append(*h, x.(neighbor)) }

func (h *neighborHeap) Pop() any {
	old := *h
	nb := old[len(old)-1]
	*h = old[:len(old)-1]
	return nb
}

// nearestNeighbors returns, for every row of x, its k nearest other rows by
// squared Euclidean distance, closest first. Ties are broken by row index.
// Each row keeps a bounded heap of k candidates, so a row costs O(N log k).
func nearestNeighbors(x mat.Matrix, k int) [][]neighbor {
	n, d := x.Dims()
	out := make([][]neighbor, n)
	if k <= 0 {
		return out
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}

	h := make(neighborHeap, 0, k)
	for i := 0; i < n; i++ {
		h = h[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			var dist float64
			for c := 0; c < d; c++ {
				diff := rows[i][c] - rows[j][c]
				dist += diff * diff
			}
			nb := neighbor{index: j, dist: dist}
			switch {
			case len(h) < k:
				heap.Push(&h, nb)
			case closer(nb, h[0]):
				h[0] = nb
				heap.Fix(&h, 0)
			}
		}
		row := append([]neighbor(nil), h...)
		sort.Slice(row, func(a, b int) bool { return closer(row[a], row[b]) })
		out[i] = row
	}
	return out
}

// conditionalProbabilities finds, for each row, the Gaussian precision whose
// conditional distribution over its neighbours has the requested perplexity.
// It returns p(j|i) aligned with nbrs and the mean bandwidth sqrt(1/beta).
func conditionalProbabilities(nbrs [][]neighbor, perplexity float64) ([][]float64, float64) {
	desired := math.Log(perplexity)
	cond := make([][]float64, len(nbrs))
	var sigmaSum float64

	for i, row := range nbrs {
		p := make([]float64, len(row))
		beta := 1.0
		betaMin, betaMax := math.Inf(-1), math.Inf(1)

		for step := 0; step < perplexitySteps; step++ {
			var sumP float64
			for j, nb := range row {
				p[j] = math.Exp(-nb.dist * beta)
				sumP += p[j]
			}
			if sumP == 0 {
				sumP = minProbability
			}
			var sumDistP float64
			for j, nb := range row {
				p[j] /= sumP
				sumDistP += nb.dist * p[j]
			}

			entropy := math.Log(sumP) + beta*sumDistP
			diff := entropy - desired
			if math.Abs(diff) <= perplexityTolerance {
				break
			}
			if diff > 0 {
				betaMin = beta
				if math.IsInf(betaMax, 1) {
					beta *= 2
				} else {
					beta = (beta + betaMax) / 2
				}
			} else {
				betaMax = beta
				if math.IsInf(betaMin, -1) {
					beta /= 2
				} else {
					beta = (beta + betaMin) / 2
				}
			}
		}

		cond[i] = p
		sigmaSum += math.Sqrt(1 / beta)
	}

	meanSigma := 0.0
	if len(nbrs) > 0 {
		meanSigma = sigmaSum / float64(len(nbrs))
	}
	return cond, meanSigma
}

// jointProbabilities symmetrises conditional probabilities into the joint
// distribution P = (P + Pᵀ) / sum, stored as an N×N CSR matrix with columns
// sorted within each row.
func jointProbabilities(nbrs [][]neighbor, cond [][]float64) *sparse.CSR {
	n := len(nbrs)
	acc := make([]map[int]float64, n)
	for i := range acc {
		acc[i] = make(map[int]float64)
	}
	var total float64
	for i, row := range nbrs {
		for j, nb := range row {
			v := cond[i][j]
			acc[i][nb.index] += v
			acc[nb.index][i] += v
			total += 2 * v
		}
	}
	total = math.Max(total, machineEpsilon)

	indptr := make([]int, n+1)
	var ind []int
	var data []float64
	for i, m := range acc {
		cols := make([]int, 0, len(m))
		for j := range m {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		for _, j := range cols {
			ind = append(ind, j)
			data = append(data, m[j]/total)
		}
		indptr[i+1] = len(ind)
	}
	return sparse.NewCSR(n, n, indptr, ind, data)
}
