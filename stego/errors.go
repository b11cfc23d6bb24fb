package stego

import "fmt"

// CapacityError is returned when a framed message does not fit the carrier's
// LSB slots. It is raised before the carrier is touched.
type CapacityError struct {
	RequiredBits  uint64
	AvailableBits uint64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("message does not fit carrier: %d bits required, %d bits available",
		e.RequiredBits, e.AvailableBits)
}

// FramingError is returned when the recovered bitstream was not produced by
// this codec, or the carrier was altered after hiding.
type FramingError struct {
	DeclaredBits  uint64
	AvailableBits uint64
	Reason        string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("invalid framing: %s (declared %d bits, %d bits available)",
		e.Reason, e.DeclaredBits, e.AvailableBits)
}

// UnsupportedCarrierError is returned during pre-flight for carrier modes that
// cannot be assigned a sample width.
type UnsupportedCarrierError struct {
	Mode   string
	Reason string
}

func (e *UnsupportedCarrierError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unsupported carrier mode %q", e.Mode)
	}
	return fmt.Sprintf("unsupported carrier mode %q: %s", e.Mode, e.Reason)
}
