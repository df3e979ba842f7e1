// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

// Implements eigendecomposition of the Hermitian correlation matrix and
// the MDL estimate of the signal-subspace dimension.

package goaim

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// EigenDecomposition pairs the eigenvalues of a Hermitian correlation
// matrix, sorted descending, with unit-norm eigenvector columns. It is a
// derived artifact of one matrix instance; consumers that share it must
// not reuse it after the matrix is rebuilt.
type EigenDecomposition struct {
	Values  []float64   // Real eigenvalues, non-increasing
	Vectors *mat.CDense // N x N, column i pairs with Values[i]
}

// EigHermitian eigendecomposes an N x N Hermitian matrix through the real
// symmetric 2N x 2N embedding [[Re R, -Im R], [Im R, Re R]], whose
// spectrum is that of R with every eigenvalue doubled and whose
// eigenvector pairs [x; y] map to the complex eigenvector x + iy. One
// vector is taken per pair; within an exactly degenerate pair every real
// combination maps to a complex multiple of the same eigenvector, so the
// choice does not matter.
func EigHermitian(r *mat.CDense) (*EigenDecomposition, error) {
	n, c := r.Dims()
	if n != c || n == 0 {
		return nil, fmt.Errorf("%w: correlation matrix must be square, got %d x %d", ErrConfiguration, n, c)
	}

	emb := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			re := real(r.At(i, j))
			im := imag(r.At(i, j))
			emb.SetSym(i, j, re)
			emb.SetSym(i+n, j+n, re)
			// Hermitian R has Im R(i,i) = 0, so only off-diagonal
			// entries carry the antisymmetric block
			if i != j {
				emb.SetSym(i, j+n, -im)
				emb.SetSym(j, i+n, im)
			}
		}
	}

	var es mat.EigenSym
	if !es.Factorize(emb, true) {
		return nil, fmt.Errorf("%w: eigendecomposition of %d x %d embedding failed", ErrNumerical, 2*n, 2*n)
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// Ascending from the solver; reorder descending and keep one column
	// of each duplicated pair
	order := make([]int, 2*n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return vals[order[a]] > vals[order[b]] })

	out := &EigenDecomposition{
		Values:  make([]float64, n),
		Vectors: mat.NewCDense(n, n, nil),
	}
	for k := 0; k < n; k++ {
		col := order[2*k]
		out.Values[k] = vals[col]
		for i := 0; i < n; i++ {
			out.Vectors.Set(i, k, complex(vecs.At(i, col), vecs.At(i+n, col)))
		}
	}
	return out, nil
}

// EstimateSubspaceDimension returns the MDL estimate of the number of
// coherent eigen-components in R, together with the full decomposition so
// detection and DOA can reuse it instead of re-decomposing.
//
// For each candidate dimension d the trailing N-d eigenvalues are scored
// with the MDL criterion: the log-likelihood term compares their geometric
// and arithmetic means and the penalty term is d(2N-d) log(samples)/2. The
// dimension with the smallest score wins. d = N leaves no noise
// eigenvalues to score, so candidates run over [1, N-1].
func EstimateSubspaceDimension(r *mat.CDense, sampleCount int) (int, *EigenDecomposition, error) {
	n, _ := r.Dims()
	if n < 2 {
		return 0, nil, fmt.Errorf("%w: need at least 2 antennas, got %d", ErrConfiguration, n)
	}
	if sampleCount <= 1 {
		return 0, nil, fmt.Errorf("%w: sample count must be > 1, got %d", ErrConfiguration, sampleCount)
	}

	eig, err := EigHermitian(r)
	if err != nil {
		return 0, nil, err
	}
	dim := mdlDimension(eig.Values, sampleCount)
	PrintD(1, "subspace: MDL dimension=%d (N=%d, samples=%d)\n", dim, n, sampleCount)
	return dim, eig, nil
}

func mdlDimension(eigenvalues []float64, samples int) int {
	n := len(eigenvalues)

	// Estimated matrices are positive semi-definite; clamp roundoff
	// negatives before the logarithms
	floor := EIG_LOG_FLOOR * math.Max(eigenvalues[0], 1)
	ev := make([]float64, n)
	for i, v := range eigenvalues {
		ev[i] = math.Max(v, floor)
	}

	best := 1
	bestScore := math.Inf(1)
	for d := 1; d < n; d++ {
		m := n - d
		sumLog := 0.0
		sum := 0.0
		for _, v := range ev[d:] {
			sumLog += math.Log(v)
			sum += v
		}
		geo := sumLog / float64(m)
		arith := math.Log(sum / float64(m))
		term1 := -float64(samples) * float64(m) * (geo - arith)
		term2 := float64(d*(2*n-d)) * math.Log(float64(samples)) / 2
		if score := term1 + term2; score < bestScore {
			bestScore = score
			best = d
		}
	}
	return best
}
