// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

package goaim

const (
	PI  = 3.1415926535897932 // Pi
	C   = 2.99792458e8       // Speed of light [m/s]
	L1  = 1575420000.0       // GPS L1 frequency [Hz]
	WL1 = C / L1             // GPS L1 wavelength [m]

	// Default element spacing of a uniform linear array [wavelengths]
	HALF_WL_SPACING = 0.5

	// Eigenvalues below this fraction of the largest one are clamped
	// before taking logarithms in the MDL criterion
	EIG_LOG_FLOOR = 1e-12

	// Steering-vector projections below this norm are clamped when
	// forming the MUSIC pseudo-spectrum
	MUSIC_NORM_FLOOR = 1e-18
)
