// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

// Implements the cyclic correlation eigenvalue test (CCET) for spoofing
// presence. Under the no-spoofing hypothesis the principal eigenvalues of
// the cyclic correlation matrix decay near-linearly; an extra coherent
// component injected by a spoofer breaks the linearity and inflates the
// sum of squared line-fit errors.

package goaim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DimensionPolicy selects how the detector sizes its working subspace.
type DimensionPolicy int

const (
	// DimMDL sizes the subspace with the MDL criterion.
	DimMDL DimensionPolicy = iota
	// DimEigThreshold counts eigenvalues above EigThreshold.
	DimEigThreshold
)

// DetectorConfig parametrizes DetectSpoofing.
type DetectorConfig struct {
	FalseAlarmProbability float64         `yaml:"false_alarm_probability"`
	Policy                DimensionPolicy `yaml:"-"`
	// EigThreshold is the eigenvalue cutoff for DimEigThreshold. It is
	// scale-dependent, so it is configuration, never a built-in constant.
	EigThreshold float64 `yaml:"eig_threshold"`
	// SampleCount feeds the MDL criterion under DimMDL.
	SampleCount int `yaml:"-"`
	// Eig optionally carries a decomposition already computed for this
	// matrix, so detection, sizing and DOA share one solve.
	Eig *EigenDecomposition `yaml:"-"`
}

// DetectionResult reports one CCET decision.
type DetectionResult struct {
	Spoofed   bool    // Statistic > Threshold
	Statistic float64 // T_sse, squared residual of the eigenvalue line fit
	Threshold float64 // Chi-squared quantile at 1 - p_fa with Dimension dof
	Dimension int     // Working subspace dimension used for the fit
}

// DetectSpoofing runs the CCET on R: fit an ordinary least squares line to
// the first d descending eigenvalues, compare the squared residual T_sse
// against the chi-squared quantile at probability 1-p_fa with d degrees of
// freedom, and declare spoofing when the residual exceeds it.
func DetectSpoofing(r *mat.CDense, cfg DetectorConfig) (DetectionResult, error) {
	var res DetectionResult
	if cfg.FalseAlarmProbability <= 0 || cfg.FalseAlarmProbability >= 1 {
		return res, fmt.Errorf("%w: false alarm probability must be in (0, 1), got %g",
			ErrConfiguration, cfg.FalseAlarmProbability)
	}

	n, _ := r.Dims()
	eig := cfg.Eig
	var err error

	var d int
	switch cfg.Policy {
	case DimMDL:
		if eig == nil {
			d, eig, err = EstimateSubspaceDimension(r, cfg.SampleCount)
			if err != nil {
				return res, err
			}
		} else {
			if cfg.SampleCount <= 1 {
				return res, fmt.Errorf("%w: MDL policy needs sample count > 1, got %d",
					ErrConfiguration, cfg.SampleCount)
			}
			d = mdlDimension(eig.Values, cfg.SampleCount)
		}
	case DimEigThreshold:
		if cfg.EigThreshold <= 0 {
			return res, fmt.Errorf("%w: eigenvalue threshold must be > 0, got %g",
				ErrConfiguration, cfg.EigThreshold)
		}
		if eig == nil {
			eig, err = EigHermitian(r)
			if err != nil {
				return res, err
			}
		}
		for _, v := range eig.Values {
			if v > cfg.EigThreshold {
				d++
			}
		}
		// Keep the working dimension inside [1, N-1]
		if d < 1 {
			d = 1
		}
		if d > n-1 {
			d = n - 1
		}
	default:
		return res, fmt.Errorf("%w: unknown dimension policy %d", ErrConfiguration, cfg.Policy)
	}

	res.Dimension = d
	res.Statistic = lineFitSSE(eig.Values[:d])
	res.Threshold = distuv.ChiSquared{K: float64(d)}.Quantile(1 - cfg.FalseAlarmProbability)
	res.Spoofed = res.Statistic > res.Threshold
	PrintD(1, "ccet: d=%d T_sse=%.4g eta=%.4g spoofed=%v\n", d, res.Statistic, res.Threshold, res.Spoofed)
	return res, nil
}

// lineFitSSE fits y = a + b*i over i = 1..d by ordinary least squares and
// returns the sum of squared residuals. A line through one or two points
// is exact, so the residual is zero.
func lineFitSSE(values []float64) float64 {
	d := len(values)
	if d < 3 {
		return 0
	}
	xs := make([]float64, d)
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	sse := 0.0
	for i, v := range values {
		sse += SQ(v - (alpha + beta*xs[i]))
	}
	return sse
}
