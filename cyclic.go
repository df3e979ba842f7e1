// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

// Implements block-averaged estimation of the cyclic correlation matrix
// from multi-antenna snapshots.

package goaim

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// EstimateCyclicCorrelation builds the N x N cyclic correlation matrix of
// an antennas x samples snapshot matrix. For each of numBlocks blocks of
// blockSize samples, the block Y and its cyclically delayed copy Yd
// (shifted by delay samples within the block) contribute
// (Y Yd^H + Yd Y^H) / (2 blockSize); the contributions are averaged over
// the blocks. Only the upper triangle is accumulated and the lower is its
// conjugate mirror, so the result is exactly Hermitian, not approximately.
func EstimateCyclicCorrelation(snapshots *mat.CDense, blockSize, numBlocks, delay int) (*mat.CDense, error) {
	n, total := snapshots.Dims()
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 antennas, got %d", ErrConfiguration, n)
	}
	if blockSize <= 0 || numBlocks <= 0 {
		return nil, fmt.Errorf("%w: block size %d and block count %d must be > 0",
			ErrConfiguration, blockSize, numBlocks)
	}
	if delay < 0 || delay >= blockSize {
		return nil, fmt.Errorf("%w: cyclic delay %d must be in [0, %d)", ErrConfiguration, delay, blockSize)
	}
	if total < blockSize*numBlocks {
		return nil, fmt.Errorf("%w: %d samples available, %d blocks of %d requested",
			ErrInsufficientData, total, numBlocks, blockSize)
	}

	r := mat.NewCDense(n, n, nil)
	norm := complex(2*float64(blockSize)*float64(numBlocks), 0)
	for g := 0; g < numBlocks; g++ {
		base := g * blockSize
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				var s complex128
				for t := 0; t < blockSize; t++ {
					td := base + (t+delay)%blockSize
					s += snapshots.At(i, base+t)*cmplx.Conj(snapshots.At(j, td)) +
						snapshots.At(i, td)*cmplx.Conj(snapshots.At(j, base+t))
				}
				r.Set(i, j, r.At(i, j)+s/norm)
			}
		}
	}
	for i := 0; i < n; i++ {
		// The diagonal came out real by construction; mirror the rest
		for j := i + 1; j < n; j++ {
			r.Set(j, i, cmplx.Conj(r.At(i, j)))
		}
	}
	return r, nil
}
