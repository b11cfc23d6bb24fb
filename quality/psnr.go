// Package quality measures how much embedding disturbed a carrier
package quality

import (
	"math"

	"steg/stego"
)

// CalculatePSNR returns the peak signal-to-noise ratio in dB between two
// carriers of equal length, comparing whole sample units of the given layout.
// Identical carriers give +Inf; mismatched or empty inputs give 0.
func CalculatePSNR(original, stegoData []byte, layout stego.Layout) float64 {
	if len(original) != len(stegoData) || layout.Validate() != nil {
		return 0.0
	}

	units := stego.CapacityBits(len(original), layout.SampleWidth)
	if units == 0 {
		return 0.0
	}

	var mse float64
	for i := 0; i < units; i++ {
		off := i * layout.SampleWidth
		diff := unitValue(original[off:off+layout.SampleWidth], layout) -
			unitValue(stegoData[off:off+layout.SampleWidth], layout)
		mse += diff * diff
	}
	mse /= float64(units)

	// If MSE is 0, signals are identical
	if mse == 0 {
		return math.Inf(1)
	}

	// PSNR = 20 * log10(MAX_SIGNAL_VALUE / sqrt(MSE))
	maxSignalValue := math.Exp2(float64(8*layout.SampleWidth)) - 1
	return 20 * math.Log10(maxSignalValue/math.Sqrt(mse))
}

// unitValue reads a sample unit as an unsigned integer, treating the byte that
// holds the LSB slot as least significant.
func unitValue(unit []byte, layout stego.Layout) float64 {
	var v float64
	if layout.LSBOffset == 0 {
		for k := len(unit) - 1; k >= 0; k-- {
			v = v*256 + float64(unit[k])
		}
		return v
	}
	for _, b := range unit {
		v = v*256 + float64(b)
	}
	return v
}

// ValidatePSNR reports whether psnr reaches minDB. A minDB of zero or less
// disables the check.
func ValidatePSNR(psnr, minDB float64) bool {
	return minDB <= 0 || psnr >= minDB
}
