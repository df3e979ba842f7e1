// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

// Implements the back half of the jamming pipeline: twin-chirp delay and
// frequency estimation, atomic dictionary construction, and one-shot
// projection-based suppression.

package goaim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// EstimateJammingParameters converts two peak-index sequences, detected
// against reference chirps of rates rate1 and rate2, into delay and
// frequency estimates of the interferer components.
//
// Peaks are paired positionally. When the lists differ in length the
// longer one is truncated to the shorter and the number of discarded
// peaks is returned in dropped; the caller decides whether to treat the
// mismatch as a degraded estimate. No correspondence beyond positional
// pairing is attempted.
func EstimateJammingParameters(peaks1, peaks2 []int, rate1, rate2 float64) (delays, freqs []float64, dropped int, err error) {
	if rate1 == rate2 {
		return nil, nil, 0, fmt.Errorf("%w: chirp rates must differ, got %g for both", ErrConfiguration, rate1)
	}

	n := len(peaks1)
	if len(peaks2) < n {
		n = len(peaks2)
	}
	dropped = len(peaks1) + len(peaks2) - 2*n
	if dropped > 0 {
		PrintD(1, "jamming estimator: peak count mismatch (%d vs %d), %d peaks dropped\n",
			len(peaks1), len(peaks2), dropped)
	}

	delays = make([]float64, n)
	freqs = make([]float64, n)
	dr := rate2 - rate1
	for i := 0; i < n; i++ {
		p1 := float64(peaks1[i])
		p2 := float64(peaks2[i])
		delays[i] = (rate2*p2 - rate1*p1) / dr
		freqs[i] = rate1 * rate2 * (p2 - p1) / dr
	}
	return delays, freqs, dropped, nil
}

// Dictionary holds one oscillatory atom per estimated interferer
// component, stacked as rows of a k x sampleCount matrix. Atoms are pure
// functions of their (delay, frequency) parameters.
type Dictionary struct {
	Atoms       *mat.Dense // k x n, each row unit-norm
	Delays      []float64  // [samples]
	Frequencies []float64  // [cycles/sample]
}

// NumAtoms returns the number of atoms in the dictionary.
func (d *Dictionary) NumAtoms() int {
	r, _ := d.Atoms.Dims()
	return r
}

// Len returns the sample count each atom spans.
func (d *Dictionary) Len() int {
	_, c := d.Atoms.Dims()
	return c
}

// BuildAtomicDictionary synthesizes one sine atom per (delay, frequency)
// pair, atom(t) = sin(2*pi*f*(t-d)), over sampleCount samples. Each atom
// is normalized to unit norm so that the projection in SuppressJamming
// removes exactly the component energy along the atom.
func BuildAtomicDictionary(delays, freqs []float64, sampleCount int) (*Dictionary, error) {
	if len(delays) != len(freqs) {
		return nil, fmt.Errorf("%w: %d delays vs %d frequencies", ErrConfiguration, len(delays), len(freqs))
	}
	if len(delays) == 0 {
		return nil, fmt.Errorf("%w: dictionary needs at least one (delay, frequency) pair", ErrConfiguration)
	}
	if sampleCount <= 0 {
		return nil, fmt.Errorf("%w: sample count must be > 0, got %d", ErrConfiguration, sampleCount)
	}

	k := len(delays)
	atoms := mat.NewDense(k, sampleCount, nil)
	for i := 0; i < k; i++ {
		e := 0.0
		for t := 0; t < sampleCount; t++ {
			v := math.Sin(2 * PI * freqs[i] * (float64(t) - delays[i]))
			atoms.Set(i, t, v)
			e += v * v
		}
		if e == 0 {
			return nil, fmt.Errorf("%w: atom %d (delay=%g, freq=%g) is identically zero",
				ErrNumerical, i, delays[i], freqs[i])
		}
		s := 1.0 / math.Sqrt(e)
		for t := 0; t < sampleCount; t++ {
			atoms.Set(i, t, atoms.At(i, t)*s)
		}
	}

	d := &Dictionary{
		Atoms:       atoms,
		Delays:      append([]float64(nil), delays...),
		Frequencies: append([]float64(nil), freqs...),
	}
	return d, nil
}

// SuppressJamming projects the signal onto the dictionary atoms and
// subtracts the back-projection: clean = x - D^T (D x). The removal is
// one-shot and non-orthogonalized; when atoms overlap, the subtraction is
// approximate and some interference energy can remain. That residual is a
// property of the decomposition, not a defect.
func SuppressJamming(signal []float64, dict *Dictionary) ([]float64, error) {
	if dict == nil || dict.Atoms == nil {
		return nil, fmt.Errorf("%w: nil dictionary", ErrConfiguration)
	}
	if dict.Len() != len(signal) {
		return nil, fmt.Errorf("%w: dictionary atoms span %d samples, signal has %d",
			ErrConfiguration, dict.Len(), len(signal))
	}

	x := mat.NewVecDense(len(signal), append([]float64(nil), signal...))

	var proj mat.VecDense
	proj.MulVec(dict.Atoms, x)

	var back mat.VecDense
	back.MulVec(dict.Atoms.T(), &proj)

	clean := make([]float64, len(signal))
	for i := range clean {
		clean[i] = signal[i] - back.AtVec(i)
	}
	PrintD(2, "suppression: energy %.4g -> %.4g over %d atoms\n",
		Energy(signal), Energy(clean), dict.NumAtoms())
	return clean, nil
}
