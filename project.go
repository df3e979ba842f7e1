// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

// Implements spoofing removal by null-space projection: the subspace
// spanned by the spoofing eigenvectors is zeroed while its orthogonal
// complement passes through unchanged.

package goaim

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// MitigateSpoofing builds the orthogonal-complement projector
// P = I - V V^H for the spoofing eigenvector set V (N x k columns) and
// returns the mitigated matrix P R P^H. P is idempotent, so applying the
// mitigation twice changes nothing beyond roundoff.
func MitigateSpoofing(r *mat.CDense, spoofingVecs *mat.CDense) (*mat.CDense, error) {
	n, c := r.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: correlation matrix must be square, got %d x %d", ErrConfiguration, n, c)
	}
	p, err := complementProjector(spoofingVecs, n)
	if err != nil {
		return nil, err
	}
	return mulCH(mulC(p, r), p), nil
}

// ProjectSnapshots applies the same complement projector to raw snapshot
// columns (antennas x samples), yielding mitigated time-domain signals.
func ProjectSnapshots(snapshots *mat.CDense, spoofingVecs *mat.CDense) (*mat.CDense, error) {
	n, _ := snapshots.Dims()
	p, err := complementProjector(spoofingVecs, n)
	if err != nil {
		return nil, err
	}
	return mulC(p, snapshots), nil
}

// mulC returns the product a b of two complex matrices.
func mulC(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	_, bc := b.Dims()
	out := mat.NewCDense(ar, bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < bc; j++ {
			var s complex128
			for k := 0; k < ac; k++ {
				s += a.At(i, k) * b.At(k, j)
			}
			out.Set(i, j, s)
		}
	}
	return out
}

// mulCH returns the product a b^H of two complex matrices.
func mulCH(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, _ := b.Dims()
	out := mat.NewCDense(ar, br, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < br; j++ {
			var s complex128
			for k := 0; k < ac; k++ {
				s += a.At(i, k) * cmplx.Conj(b.At(j, k))
			}
			out.Set(i, j, s)
		}
	}
	return out
}

// complementProjector returns P = I - V V^H over an orthonormalized copy
// of the columns of v. Orthonormalizing first (modified Gram-Schmidt)
// keeps P idempotent even when the caller passes nearly dependent
// eigenvectors.
func complementProjector(v *mat.CDense, n int) (*mat.CDense, error) {
	rows, k := v.Dims()
	if rows != n {
		return nil, fmt.Errorf("%w: eigenvectors have %d rows, expected %d", ErrConfiguration, rows, n)
	}
	if k < 1 || k > n-1 {
		return nil, fmt.Errorf("%w: subspace dimension %d must be in [1, %d]", ErrConfiguration, k, n-1)
	}

	q := mat.NewCDense(n, k, nil)
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			q.Set(i, j, v.At(i, j))
		}
	}
	for j := 0; j < k; j++ {
		for l := 0; l < j; l++ {
			var dot complex128
			for i := 0; i < n; i++ {
				dot += cmplx.Conj(q.At(i, l)) * q.At(i, j)
			}
			for i := 0; i < n; i++ {
				q.Set(i, j, q.At(i, j)-dot*q.At(i, l))
			}
		}
		norm := 0.0
		for i := 0; i < n; i++ {
			norm += SQ(real(q.At(i, j))) + SQ(imag(q.At(i, j)))
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			return nil, fmt.Errorf("%w: spoofing eigenvector %d is dependent on the others", ErrNumerical, j)
		}
		s := complex(1/norm, 0)
		for i := 0; i < n; i++ {
			q.Set(i, j, q.At(i, j)*s)
		}
	}

	p := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s complex128
			for l := 0; l < k; l++ {
				s += q.At(i, l) * cmplx.Conj(q.At(j, l))
			}
			if i == j {
				p.Set(i, j, 1-s)
			} else {
				p.Set(i, j, -s)
			}
		}
	}
	return p, nil
}
