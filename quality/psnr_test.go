package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"steg/stego"
)

func TestCalculatePSNRIdentical(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	require.True(t, math.IsInf(CalculatePSNR(data, data, stego.ByteLayout), 1))
}

func TestCalculatePSNRMismatch(t *testing.T) {
	require.Zero(t, CalculatePSNR([]byte{1}, []byte{1, 2}, stego.ByteLayout))
	require.Zero(t, CalculatePSNR(nil, nil, stego.ByteLayout))
	require.Zero(t, CalculatePSNR([]byte{1, 2}, []byte{1, 2}, stego.Layout{}))
}

func TestCalculatePSNRSingleLSB(t *testing.T) {
	orig := make([]byte, 100)
	mod := make([]byte, 100)
	for i := range mod {
		mod[i] = 1
	}
	// MSE 1 -> 20*log10(255)
	require.InDelta(t, 20*math.Log10(255), CalculatePSNR(orig, mod, stego.ByteLayout), 1e-9)
}

func TestCalculatePSNRWideUnits(t *testing.T) {
	orig := []byte{0x00, 0x10, 0x00, 0x20}
	le := []byte{0x01, 0x10, 0x00, 0x20}
	be := []byte{0x00, 0x11, 0x00, 0x20}

	want := 20 * math.Log10(65535/math.Sqrt(0.5))
	require.InDelta(t, want, CalculatePSNR(orig, le, stego.Layout{SampleWidth: 2}), 1e-9)
	require.InDelta(t, want, CalculatePSNR(orig, be, stego.Layout{SampleWidth: 2, LSBOffset: 1}), 1e-9)
}

func TestValidatePSNR(t *testing.T) {
	require.True(t, ValidatePSNR(math.Inf(1), 30))
	require.True(t, ValidatePSNR(45, 30))
	require.False(t, ValidatePSNR(20, 30))
	require.True(t, ValidatePSNR(20, 0))
	require.True(t, ValidatePSNR(0, -1))
}
