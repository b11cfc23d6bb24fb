package stego

import "fmt"

// Layout describes how a carrier's bytes group into sample units.
type Layout struct {
	// SampleWidth is the number of bytes in one sample unit.
	SampleWidth int
	// LSBOffset is the index, within a unit, of the byte whose bit 0 is the
	// unit's LSB slot. Little-endian PCM uses 0, big-endian image channels use
	// SampleWidth-1.
	LSBOffset int
}

// ByteLayout is the layout of carriers with one slot per byte.
var ByteLayout = Layout{SampleWidth: 1}

// Validate checks that l addresses a byte inside its unit.
func (l Layout) Validate() error {
	if l.SampleWidth < 1 {
		return fmt.Errorf("sample width must be positive, got %d", l.SampleWidth)
	}
	if l.LSBOffset < 0 || l.LSBOffset >= l.SampleWidth {
		return fmt.Errorf("lsb offset %d outside sample unit of %d bytes", l.LSBOffset, l.SampleWidth)
	}
	return nil
}

func (l Layout) String() string {
	return fmt.Sprintf("{width:%d lsb:%d}", l.SampleWidth, l.LSBOffset)
}

// Mode is a carrier pixel or sample mode as reported by a carrier provider.
type Mode int

const (
	ModeUnknown   Mode = iota
	ModeBilevel        // 1 bit per pixel
	ModeChannel8       // 8-bit image channels
	ModeChannel16      // 16-bit big-endian image channels
	ModeInt32          // 32-bit little-endian integer image channels
	ModeFloat32        // 32-bit little-endian float image channels
	ModePCM8           // 8-bit PCM
	ModePCM16          // 16-bit little-endian PCM
	ModePCM24          // 24-bit little-endian PCM
	ModePCM32          // 32-bit little-endian PCM
)

func (m Mode) String() string {
	switch m {
	case ModeBilevel:
		return "bilevel"
	case ModeChannel8:
		return "channel8"
	case ModeChannel16:
		return "channel16"
	case ModeInt32:
		return "int32"
	case ModeFloat32:
		return "float32"
	case ModePCM8:
		return "pcm8"
	case ModePCM16:
		return "pcm16"
	case ModePCM24:
		return "pcm24"
	case ModePCM32:
		return "pcm32"
	default:
		return "unknown"
	}
}

// LayoutForMode returns the sample layout used for m. Bilevel and unknown
// modes fail with an *UnsupportedCarrierError.
func LayoutForMode(m Mode) (Layout, error) {
	switch m {
	case ModeChannel8, ModePCM8:
		return ByteLayout, nil
	case ModeChannel16:
		return Layout{SampleWidth: 2, LSBOffset: 1}, nil
	case ModeInt32, ModeFloat32, ModePCM32:
		return Layout{SampleWidth: 4}, nil
	case ModePCM16:
		return Layout{SampleWidth: 2}, nil
	case ModePCM24:
		return Layout{SampleWidth: 3}, nil
	case ModeBilevel:
		return Layout{}, &UnsupportedCarrierError{Mode: m.String(), Reason: "1-bit carriers cannot host LSB embedding"}
	default:
		return Layout{}, &UnsupportedCarrierError{Mode: m.String()}
	}
}

// PCMMode maps a PCM bit depth to its mode.
func PCMMode(bitDepth int) Mode {
	switch bitDepth {
	case 8:
		return ModePCM8
	case 16:
		return ModePCM16
	case 24:
		return ModePCM24
	case 32:
		return ModePCM32
	default:
		return ModeUnknown
	}
}
