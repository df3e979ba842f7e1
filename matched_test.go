// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

package goaim

import (
	"errors"
	"math"
	"testing"
)

func TestConvolveImpulse(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	h := []float64{0, 1} // Delayed unit impulse

	out := Convolve(x, h)
	if len(out) != len(x)+len(h)-1 {
		t.Fatalf("expected length %d, got %d", len(x)+len(h)-1, len(out))
	}
	want := []float64{0, 1, 2, 3, 4}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Errorf("out[%d] = %g, want %g", i, out[i], want[i])
		}
	}
}

func TestCrossCorrelateZeroLag(t *testing.T) {
	x := []float64{1, -2, 3}
	// Zero lag of xcorr(x, x) is the energy of x, at index len(x)-1
	c := CrossCorrelate(x, x)
	if math.Abs(c[len(x)-1]-Energy(x)) > 1e-9 {
		t.Errorf("zero-lag correlation = %g, want %g", c[len(x)-1], Energy(x))
	}
}

func TestMatchedFilterLengthPreservation(t *testing.T) {
	n := 300
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Sin(2 * PI * float64(i) / 16)
	}
	for _, m := range []int{1, 7, 64, 299, 300} {
		template := make([]float64, m)
		for i := range template {
			template[i] = math.Cos(2 * PI * float64(i) / 8)
		}
		out, err := MatchedFilter(signal, template)
		if err != nil {
			t.Fatalf("template len %d: %v", m, err)
		}
		if len(out) != n {
			t.Errorf("template len %d: output length %d, want %d", m, len(out), n)
		}
	}
}

func TestMatchedFilterEnhancesMatchingWaveform(t *testing.T) {
	const (
		n = 256
		m = 64
		f = 1.0 / 16 // Whole periods over both signal and template
	)
	template := make([]float64, m)
	for i := range template {
		template[i] = math.Sin(2 * PI * f * float64(i))
	}
	matching := make([]float64, n)
	other := make([]float64, n)
	for i := range matching {
		matching[i] = math.Sin(2*PI*f*float64(i) + 0.7) // Phase offset the filter must absorb
		other[i] = math.Sin(2 * PI * (1.0 / 8) * float64(i))
	}

	outMatch, err := MatchedFilter(matching, template)
	if err != nil {
		t.Fatal(err)
	}
	outOther, err := MatchedFilter(other, template)
	if err != nil {
		t.Fatal(err)
	}

	peakMatch := math.Abs(outMatch[MaxAbsIdx(outMatch)])
	peakOther := math.Abs(outOther[MaxAbsIdx(outOther)])
	if peakMatch < 3*peakOther {
		t.Errorf("matching waveform peak %g not clearly above mismatched peak %g", peakMatch, peakOther)
	}
}

func TestMatchedFilterRejectsBadInput(t *testing.T) {
	if _, err := MatchedFilter([]float64{1, 2}, []float64{1, 2, 3}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("short signal: got %v, want ErrConfiguration", err)
	}
	if _, err := MatchedFilter([]float64{1, 2, 3}, []float64{0, 0}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("zero-energy template: got %v, want ErrConfiguration", err)
	}
}
