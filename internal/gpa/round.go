package gpa

import (
	"math"
	"math/big"
	"strconv"
)

// Round2 rounds x to two decimal places, half away from zero, using the exact
// binary value of x. 0.125 becomes 0.13 while 2.675 (stored as 2.67499...)
// becomes 2.67, the same digits a browser prints for toFixed(2).
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) >= 1e15 {
		return x
	}

	scaled := new(big.Float).SetPrec(128).SetFloat64(x)
	scaled.Mul(scaled, big.NewFloat(100))
	negative := scaled.Sign() < 0
	scaled.Abs(scaled)

	whole, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(128).SetInt(whole)
	frac.Sub(scaled, frac)
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		whole.Add(whole, big.NewInt(1))
	}
	if negative {
		whole.Neg(whole)
	}
	return float64(whole.Int64()) / 100
}

// FormatGPA renders x with exactly two decimals after Round2.
func FormatGPA(x float64) string {
	return strconv.FormatFloat(Round2(x), 'f', 2, 64)
}
