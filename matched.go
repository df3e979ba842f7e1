// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

// Implements the matched filter front end of the jamming pipeline:
// FFT-based convolution/cross-correlation and a two-pass correlation
// against a phase-corrected reference template.

package goaim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Convolve computes the full linear convolution of x and h via the FFT.
// The result has length len(x)+len(h)-1.
func Convolve(x, h []float64) []float64 {
	n := len(x) + len(h) - 1
	fft := fourier.NewCmplxFFT(n)

	xc := make([]complex128, n)
	hc := make([]complex128, n)
	for i, v := range x {
		xc[i] = complex(v, 0)
	}
	for i, v := range h {
		hc[i] = complex(v, 0)
	}

	X := fft.Coefficients(nil, xc)
	H := fft.Coefficients(nil, hc)
	for i := range X {
		X[i] *= H[i]
	}

	// Sequence is unnormalized; divide by the transform length
	seq := fft.Sequence(nil, X)
	out := make([]float64, n)
	for i := range out {
		out[i] = real(seq[i]) / float64(n)
	}
	return out
}

// CrossCorrelate computes the full cross-correlation of x against h,
// i.e. the convolution of x with the time-reversed h. The zero-lag
// element sits at index len(h)-1.
func CrossCorrelate(x, h []float64) []float64 {
	hr := make([]float64, len(h))
	for i, v := range h {
		hr[len(h)-1-i] = v
	}
	return Convolve(x, hr)
}

// MatchedFilter correlates signal against template in two passes.
// The template is normalized to unit energy, the lag of the strongest
// correlation is measured against the zero-lag center, the template is
// phase-corrected by that offset (circular shift, which is the phase
// correction for the periodic templates used here), and the signal is
// re-correlated with the corrected template. The central window of the
// second response is returned, so the output length always equals
// len(signal).
func MatchedFilter(signal, template []float64) ([]float64, error) {
	n := len(signal)
	m := len(template)
	if m == 0 || n < m {
		return nil, fmt.Errorf("%w: len(signal)=%d must be >= len(template)=%d > 0",
			ErrConfiguration, n, m)
	}

	// Normalize the template to unit energy
	e := Energy(template)
	if e == 0 {
		return nil, fmt.Errorf("%w: template has zero energy", ErrConfiguration)
	}
	t := make([]float64, m)
	s := 1.0 / math.Sqrt(e)
	for i, v := range template {
		t[i] = v * s
	}

	// First pass: locate the lag of the strongest correlation
	c1 := CrossCorrelate(signal, t)
	center := m - 1
	offset := MaxAbsIdx(c1) - center
	PrintD(2, "matched filter: peak offset=%d\n", offset)

	// Phase-corrected template: circular shift by the measured offset
	t2 := make([]float64, m)
	for i := range t2 {
		t2[i] = t[((i+offset)%m+m)%m]
	}

	// Second pass with the corrected template; keep the central window
	c2 := CrossCorrelate(signal, t2)
	start := (m - 1) / 2
	out := make([]float64, n)
	copy(out, c2[start:start+n])
	return out, nil
}
