// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

// Implements Cyclic-MUSIC direction-of-arrival estimation: the steering
// vector of each scan angle is projected onto the noise subspace of the
// correlation matrix, and directions whose steering vectors are nearly
// orthogonal to it show up as sharp peaks of the pseudo-spectrum.

package goaim

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// DOASpectrum maps each scanned angle [deg] to a non-negative pseudo-power.
// A fresh spectrum is produced per scan and never mutated afterwards.
type DOASpectrum struct {
	Angles []float64
	Power  []float64
}

// Peak returns the angle and power of the spectrum maximum.
func (s *DOASpectrum) Peak() (angle, power float64) {
	idx := 0
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > s.Power[idx] {
			idx = i
		}
	}
	return s.Angles[idx], s.Power[idx]
}

// EstimateDOA scans the candidate angles [deg] against the noise subspace
// of R. elementPositions are the array element positions in wavelengths,
// one per antenna; numSources is the assumed signal-subspace dimension.
// The spectrum value at each angle is 1/||P_n a(theta)|| with P_n the
// noise-subspace projector. Angles are evaluated on a worker pool, and the
// scan stops early when ctx is cancelled.
func EstimateDOA(ctx context.Context, r *mat.CDense, numSources int, elementPositions, scanAngles []float64) (*DOASpectrum, error) {
	n, _ := r.Dims()
	if len(elementPositions) != n {
		return nil, fmt.Errorf("%w: %d element positions for %d antennas", ErrConfiguration, len(elementPositions), n)
	}
	if numSources < 1 || numSources > n-1 {
		return nil, fmt.Errorf("%w: source count %d must be in [1, %d]", ErrConfiguration, numSources, n-1)
	}
	if len(scanAngles) == 0 {
		return nil, fmt.Errorf("%w: empty scan grid", ErrConfiguration)
	}

	eig, err := EigHermitian(r)
	if err != nil {
		return nil, err
	}
	return doaScan(ctx, eig, numSources, elementPositions, scanAngles)
}

// EstimateDOAFromEigen is EstimateDOA over a decomposition already
// computed for the same matrix, so the detector and the DOA stage share
// one solve.
func EstimateDOAFromEigen(ctx context.Context, eig *EigenDecomposition, numSources int, elementPositions, scanAngles []float64) (*DOASpectrum, error) {
	n := len(eig.Values)
	if len(elementPositions) != n {
		return nil, fmt.Errorf("%w: %d element positions for %d antennas", ErrConfiguration, len(elementPositions), n)
	}
	if numSources < 1 || numSources > n-1 {
		return nil, fmt.Errorf("%w: source count %d must be in [1, %d]", ErrConfiguration, numSources, n-1)
	}
	if len(scanAngles) == 0 {
		return nil, fmt.Errorf("%w: empty scan grid", ErrConfiguration)
	}
	return doaScan(ctx, eig, numSources, elementPositions, scanAngles)
}

func doaScan(ctx context.Context, eig *EigenDecomposition, numSources int, positions, scanAngles []float64) (*DOASpectrum, error) {
	n := len(eig.Values)

	// Noise projector P_n = I - Vs Vs^H from the signal eigenvectors.
	// Projecting with P_n instead of an explicit noise basis keeps the
	// scan well defined even when the noise eigenvalues are degenerate.
	vs := signalColumns(eig.Vectors, numSources)
	pn, err := complementProjector(vs, n)
	if err != nil {
		return nil, err
	}

	spec := &DOASpectrum{
		Angles: append([]float64(nil), scanAngles...),
		Power:  make([]float64, len(scanAngles)),
	}

	// Each angle is independent; chunk the grid across the CPUs
	workers := runtime.NumCPU()
	if workers > len(scanAngles) {
		workers = len(scanAngles)
	}
	var wg sync.WaitGroup
	next := make(chan int)
	go func() {
		defer close(next)
		for i := range scanAngles {
			select {
			case next <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := make([]complex128, n)
			proj := make([]complex128, n)
			for i := range next {
				steer(a, positions, scanAngles[i])
				// proj = P_n a
				for row := 0; row < n; row++ {
					var s complex128
					for col := 0; col < n; col++ {
						s += pn.At(row, col) * a[col]
					}
					proj[row] = s
				}
				norm := 0.0
				for _, v := range proj {
					norm += real(v)*real(v) + imag(v)*imag(v)
				}
				spec.Power[i] = 1 / math.Max(math.Sqrt(norm), MUSIC_NORM_FLOOR)
			}
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return spec, nil
}

// steer fills a with the plane-wave steering vector
// exp(j 2 pi pos sin(theta)) for positions in wavelengths.
func steer(a []complex128, positions []float64, angleDeg float64) {
	s := math.Sin(ToRad(angleDeg))
	for i, p := range positions {
		a[i] = cmplx.Exp(complex(0, 2*PI*p*s))
	}
}

// signalColumns returns the first k eigenvector columns as an N x k matrix.
func signalColumns(vectors *mat.CDense, k int) *mat.CDense {
	n, _ := vectors.Dims()
	vs := mat.NewCDense(n, k, nil)
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			vs.Set(i, j, vectors.At(i, j))
		}
	}
	return vs
}
