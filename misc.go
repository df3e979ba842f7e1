// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

package goaim

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// ------------------------------------
// Mini functions
// ------------------------------------

func SQ(x float64) float64 {
	return x * x
}

func ToDeg(rad float64) float64 {
	return rad / PI * 180.0
}

func ToRad(deg float64) float64 {
	return deg / 180.0 * PI
}

// Median of a data set (the input is not modified)
func Median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	s := make([]float64, n)
	copy(s, data)
	slices.Sort(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Index of the element with the largest absolute value
func MaxAbsIdx(data []float64) int {
	idx := 0
	max := math.Abs(data[0])
	for i := 1; i < len(data); i++ {
		if a := math.Abs(data[i]); a > max {
			max = a
			idx = i
		}
	}
	return idx
}

// Total energy of a sample series
func Energy(data []float64) float64 {
	e := 0.0
	for _, v := range data {
		e += v * v
	}
	return e
}

// ------------------------------------
// Debug print function
// ------------------------------------

func PrintMat(X mat.Matrix) {
	r, c := X.Dims()
	fmt.Fprintf(os.Stderr, "(%d x %d)\n", r, c)
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	fmt.Fprintf(os.Stderr, "%v\n", fa)
}

func PrintA(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format, a...)
}

func PrintAIf(cond bool, format string, a ...any) {
	if cond {
		PrintA(format, a...)
	}
}

// Debug display level
var DBG_ int

// Debug display
func PrintD(v int, format string, a ...any) {
	PrintAIf(DBG_ >= v, format, a...)
}

func PrintE(err error) {
	fmt.Fprintf(os.Stderr, "err=%s\n", err.Error())
}
