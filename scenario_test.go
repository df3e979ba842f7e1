// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

package goaim

import (
	"math"
	"math/cmplx"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Shared synthetic array scenarios for the spoofing-side tests. All
// generators take an explicit random source so every test is reproducible.

func ulaPositions(n int) []float64 {
	pos := make([]float64, n)
	for i := range pos {
		pos[i] = float64(i) * HALF_WL_SPACING
	}
	return pos
}

// addPlaneWaveTest adds a BPSK plane wave from angleDeg with the given
// amplitude to an antennas x samples snapshot matrix.
func addPlaneWaveTest(rng *rand.Rand, snaps *mat.CDense, positions []float64, angleDeg, amp float64) {
	_, samples := snaps.Dims()
	s := math.Sin(ToRad(angleDeg))
	for t := 0; t < samples; t++ {
		sym := complex(amp, 0)
		if rng.Intn(2) == 0 {
			sym = -sym
		}
		for i, p := range positions {
			phase := cmplx.Exp(complex(0, 2*PI*p*s))
			snaps.Set(i, t, snaps.At(i, t)+sym*phase)
		}
	}
}

// addNoiseTest adds circular complex noise of total power sigma2.
func addNoiseTest(rng *rand.Rand, snaps *mat.CDense, sigma2 float64) {
	n, samples := snaps.Dims()
	s := math.Sqrt(sigma2 / 2)
	for i := 0; i < n; i++ {
		for t := 0; t < samples; t++ {
			w := complex(rng.NormFloat64()*s, rng.NormFloat64()*s)
			snaps.Set(i, t, snaps.At(i, t)+w)
		}
	}
}

// arrayCorrelation builds the zero-delay correlation matrix of a scenario
// with the given sources (angle, amplitude pairs) and noise power.
func arrayCorrelation(rng *rand.Rand, positions []float64, samples int, angles, amps []float64, sigma2 float64) *mat.CDense {
	snaps := mat.NewCDense(len(positions), samples, nil)
	for i := range angles {
		addPlaneWaveTest(rng, snaps, positions, angles[i], amps[i])
	}
	if sigma2 > 0 {
		addNoiseTest(rng, snaps, sigma2)
	}
	blockSize := 256
	numBlocks := samples / blockSize
	r, err := EstimateCyclicCorrelation(snaps, blockSize, numBlocks, 0)
	if err != nil {
		panic(err)
	}
	return r
}
