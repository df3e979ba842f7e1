// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

// Implements the sliding-window CFAR detector used on the chirp
// correlation responses of the jamming pipeline.

package goaim

import "fmt"

// CFARConfig controls how the adaptive threshold is formed at each cell.
type CFARConfig struct {
	GuardCells     int     `yaml:"guard_cells"`     // Guard band half-width on each side of the cell under test
	ReferenceCells int     `yaml:"reference_cells"` // Reference cells taken immediately outside the guard band, per side
	ScalingFactor  float64 `yaml:"scaling_factor"`  // Threshold = ScalingFactor x local noise estimate
}

func (c CFARConfig) validate() error {
	if c.GuardCells < 0 {
		return fmt.Errorf("%w: guard cells must be >= 0, got %d", ErrConfiguration, c.GuardCells)
	}
	if c.ReferenceCells <= 0 {
		return fmt.Errorf("%w: reference cells must be > 0, got %d", ErrConfiguration, c.ReferenceCells)
	}
	if c.ScalingFactor <= 0 {
		return fmt.Errorf("%w: scaling factor must be > 0, got %g", ErrConfiguration, c.ScalingFactor)
	}
	return nil
}

// DynamicCFAR evaluates every cell that has guard+reference cells on both
// sides. The local noise estimate is the median of the reference set (the
// cell under test and the guard band are excluded), which keeps a nearby
// detection from raising the threshold. It returns the detected indices
// and, parallel to them, the thresholds in force at those cells. Cells
// within GuardCells+ReferenceCells of either end carry no decision at all;
// that edge strip is excluded by design.
func DynamicCFAR(signal []float64, cfg CFARConfig) ([]int, []float64, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	margin := cfg.GuardCells + cfg.ReferenceCells
	if len(signal) < 2*margin+1 {
		return nil, nil, fmt.Errorf("%w: need at least %d samples for guard=%d reference=%d, got %d",
			ErrInsufficientData, 2*margin+1, cfg.GuardCells, cfg.ReferenceCells, len(signal))
	}

	var indices []int
	var thresholds []float64
	ref := make([]float64, 0, 2*cfg.ReferenceCells)
	for i := margin; i < len(signal)-margin; i++ {
		ref = ref[:0]
		ref = append(ref, signal[i-margin:i-cfg.GuardCells]...)
		ref = append(ref, signal[i+cfg.GuardCells+1:i+margin+1]...)

		thr := cfg.ScalingFactor * Median(ref)
		if signal[i] > thr {
			indices = append(indices, i)
			thresholds = append(thresholds, thr)
		}
	}
	PrintD(2, "cfar: %d detections over %d evaluated cells\n", len(indices), len(signal)-2*margin)
	return indices, thresholds, nil
}
