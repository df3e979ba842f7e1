// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

package goaim

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCCETNullCase(t *testing.T) {
	// A single coherent source in isotropic noise must stay below the
	// threshold at p_fa = 1e-4 across repeated noise draws
	cfg := DetectorConfig{
		FalseAlarmProbability: 1e-4,
		Policy:                DimEigThreshold,
		EigThreshold:          0.25,
	}
	for seed := int64(0); seed < 5; seed++ {
		rng := rand.New(rand.NewSource(100 + seed))
		r := arrayCorrelation(rng, ulaPositions(8), 4096, []float64{30}, []float64{0.7}, 1.0)

		res, err := DetectSpoofing(r, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if res.Spoofed {
			t.Errorf("seed %d: false alarm, T_sse=%g eta=%g d=%d", seed, res.Statistic, res.Threshold, res.Dimension)
		}
	}
}

func TestCCETDetectionCase(t *testing.T) {
	// Two coherent sources of comparable power simulate spoofing and
	// must break the eigenvalue line fit
	cfg := DetectorConfig{
		FalseAlarmProbability: 1e-4,
		Policy:                DimEigThreshold,
		EigThreshold:          0.25,
	}
	for seed := int64(0); seed < 5; seed++ {
		rng := rand.New(rand.NewSource(200 + seed))
		r := arrayCorrelation(rng, ulaPositions(8), 4096,
			[]float64{30, -20}, []float64{1.4, 1.4}, 1.0)

		res, err := DetectSpoofing(r, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Spoofed {
			t.Errorf("seed %d: missed detection, T_sse=%g eta=%g d=%d", seed, res.Statistic, res.Threshold, res.Dimension)
		}
	}
}

func TestCCETMDLPolicy(t *testing.T) {
	// Under MDL sizing a clean single-source matrix gets dimension 1,
	// whose line fit is exact, so the statistic is zero
	rng := rand.New(rand.NewSource(5))
	samples := 4096
	r := arrayCorrelation(rng, ulaPositions(8), samples, []float64{10}, []float64{1.0}, 0.1)

	res, err := DetectSpoofing(r, DetectorConfig{
		FalseAlarmProbability: 1e-4,
		Policy:                DimMDL,
		SampleCount:           samples,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Dimension != 1 {
		t.Errorf("dimension = %d, want 1", res.Dimension)
	}
	if res.Statistic != 0 {
		t.Errorf("statistic = %g, want 0 for an exact fit", res.Statistic)
	}
	if res.Spoofed {
		t.Error("single source flagged as spoofed under MDL sizing")
	}
}

func TestCCETDefaultConfigScenario(t *testing.T) {
	// The shipped defaults must flag a spoofer of the demo scenario's
	// strength and stay quiet when only the authentic source is present
	cfg := DefaultConfig()
	dcfg := DetectorConfig{
		FalseAlarmProbability: cfg.Spoofing.FalseAlarmProbability,
		Policy:                DimEigThreshold,
		EigThreshold:          cfg.Spoofing.EigThreshold,
	}
	total := cfg.Spoofing.BlockSize * cfg.Spoofing.NumBlocks
	positions := cfg.Array.ElementPositions()

	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		r := arrayCorrelation(rng, positions, total,
			[]float64{30, -20}, []float64{0.7, 1.4}, 1.0)
		res, err := DetectSpoofing(r, dcfg)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Spoofed {
			t.Errorf("seed %d: spoofer missed with default thresholds, T_sse=%g eta=%g d=%d",
				seed, res.Statistic, res.Threshold, res.Dimension)
		}

		rng = rand.New(rand.NewSource(seed))
		clean := arrayCorrelation(rng, positions, total,
			[]float64{30}, []float64{0.7}, 1.0)
		res, err = DetectSpoofing(clean, dcfg)
		if err != nil {
			t.Fatal(err)
		}
		if res.Spoofed {
			t.Errorf("seed %d: false alarm with default thresholds, T_sse=%g eta=%g d=%d",
				seed, res.Statistic, res.Threshold, res.Dimension)
		}
	}
}

func TestCCETReusesDecomposition(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	r := arrayCorrelation(rng, ulaPositions(8), 4096,
		[]float64{30, -20}, []float64{1.4, 1.4}, 1.0)

	eig, err := EigHermitian(r)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DetectorConfig{
		FalseAlarmProbability: 1e-4,
		Policy:                DimEigThreshold,
		EigThreshold:          0.25,
	}
	direct, err := DetectSpoofing(r, cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Eig = eig
	shared, err := DetectSpoofing(r, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if direct.Statistic != shared.Statistic || direct.Threshold != shared.Threshold {
		t.Errorf("shared decomposition changed the result: %+v vs %+v", direct, shared)
	}
}

func TestCCETConfigErrors(t *testing.T) {
	r := mat.NewCDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		r.Set(i, i, 1)
	}
	if _, err := DetectSpoofing(r, DetectorConfig{FalseAlarmProbability: 0}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("p_fa 0: got %v, want ErrConfiguration", err)
	}
	if _, err := DetectSpoofing(r, DetectorConfig{FalseAlarmProbability: 1e-4, Policy: DimEigThreshold}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("missing eigenvalue threshold: got %v, want ErrConfiguration", err)
	}
	if _, err := DetectSpoofing(r, DetectorConfig{FalseAlarmProbability: 1e-4, Policy: DimMDL, SampleCount: 0}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("MDL without sample count: got %v, want ErrConfiguration", err)
	}
}
