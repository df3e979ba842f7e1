// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

package goaim

import (
	"errors"
	"math/cmplx"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func randomSnapshots(rng *rand.Rand, antennas, samples int) *mat.CDense {
	s := mat.NewCDense(antennas, samples, nil)
	for i := 0; i < antennas; i++ {
		for t := 0; t < samples; t++ {
			s.Set(i, t, complex(rng.NormFloat64(), rng.NormFloat64()))
		}
	}
	return s
}

func TestCyclicCorrelationHermitian(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	snaps := randomSnapshots(rng, 4, 512)

	for _, delay := range []int{0, 1, 13} {
		r, err := EstimateCyclicCorrelation(snaps, 64, 8, delay)
		if err != nil {
			t.Fatalf("delay %d: %v", delay, err)
		}
		n, c := r.Dims()
		if n != 4 || c != 4 {
			t.Fatalf("delay %d: matrix is %d x %d, want 4 x 4", delay, n, c)
		}
		for i := 0; i < n; i++ {
			if imag(r.At(i, i)) != 0 {
				t.Errorf("delay %d: diagonal (%d,%d) has imaginary part %g", delay, i, i, imag(r.At(i, i)))
			}
			for j := 0; j < n; j++ {
				if r.At(i, j) != cmplx.Conj(r.At(j, i)) {
					t.Errorf("delay %d: entry (%d,%d) breaks Hermitian symmetry", delay, i, j)
				}
			}
		}
	}
}

func TestCyclicCorrelationZeroDelayIsCovariance(t *testing.T) {
	// With zero cyclic delay the estimator reduces to the averaged
	// sample covariance, so the diagonal carries per-antenna power
	rng := rand.New(rand.NewSource(3))
	snaps := randomSnapshots(rng, 3, 4096)

	r, err := EstimateCyclicCorrelation(snaps, 256, 16, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		// Unit-variance complex noise has power 2 (1 per component)
		if p := real(r.At(i, i)); p < 1.7 || p > 2.3 {
			t.Errorf("antenna %d power = %g, want about 2", i, p)
		}
	}
}

func TestCyclicCorrelationErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	snaps := randomSnapshots(rng, 4, 100)

	if _, err := EstimateCyclicCorrelation(snaps, 64, 8, 0); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("100 samples for 8x64: got %v, want ErrInsufficientData", err)
	}
	if _, err := EstimateCyclicCorrelation(snaps, 0, 8, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("zero block size: got %v, want ErrConfiguration", err)
	}
	if _, err := EstimateCyclicCorrelation(snaps, 50, 2, 50); !errors.Is(err, ErrConfiguration) {
		t.Errorf("delay out of block: got %v, want ErrConfiguration", err)
	}
}
