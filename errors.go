// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

package goaim

import "errors"

// Error taxonomy. Callers branch with errors.Is; every stage wraps these
// with fmt.Errorf("...: %w", ...) so the failing parameter is named.
var (
	// ErrConfiguration marks parameters that can never succeed
	// (equal chirp rates, non-positive window sizes, bad dimensions).
	// Retrying with the same input is pointless.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInsufficientData marks sample counts too small for the
	// requested block or reference windows.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNumerical marks unrecoverable numerical failures
	// (eigendecomposition did not converge, singular matrix).
	ErrNumerical = errors.New("numerical failure")
)
