// Package stego hides byte messages in the least-significant bits of carrier
// sample units and recovers them.
package stego

import (
	"fmt"
)

// CapacityBits returns the number of LSB slots in a carrier of totalBytes
// split into units of sampleWidth bytes.
func CapacityBits(totalBytes, sampleWidth int) int {
	if sampleWidth < 1 || totalBytes < 0 {
		return 0
	}
	return totalBytes / sampleWidth
}

// MaxMessageBytes returns the largest message that fits slots LSB slots once
// the header is accounted for.
func MaxMessageBytes(slots int) int {
	if slots < HeaderBits {
		return 0
	}
	return (slots - HeaderBits) / 8
}

// Engine overlays bits onto, and reads them from, the LSB slot of each sample
// unit of a carrier. It holds no state between calls.
type Engine struct {
	layout Layout
}

// NewEngine returns an Engine for carriers grouped by layout.
func NewEngine(layout Layout) (*Engine, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	return &Engine{layout: layout}, nil
}

// Capacity returns the number of LSB slots in carrier.
func (e *Engine) Capacity(carrier []byte) int {
	return CapacityBits(len(carrier), e.layout.SampleWidth)
}

// Embed returns a copy of carrier whose first len(bits) sample units carry
// bits in their LSB slot. Every other bit is preserved. The input is never
// modified; if bits do not fit, a *CapacityError is returned and no copy is made.
func (e *Engine) Embed(carrier []byte, bits []byte) ([]byte, error) {
	capacity := e.Capacity(carrier)
	if len(bits) > capacity {
		return nil, &CapacityError{RequiredBits: uint64(len(bits)), AvailableBits: uint64(capacity)}
	}

	stego := make([]byte, len(carrier))
	copy(stego, carrier)

	pos := e.layout.LSBOffset
	for _, bit := range bits {
		stego[pos] = (stego[pos] &^ 1) | (bit & 1)
		pos += e.layout.SampleWidth
	}
	return stego, nil
}

// Extract returns a lazy source over the LSB slots of carrier, in carrier
// order. carrier must not be modified while the source is being read.
func (e *Engine) Extract(carrier []byte) BitSource {
	return &lsbSource{
		carrier: carrier,
		layout:  e.layout,
		units:   e.Capacity(carrier),
	}
}

type lsbSource struct {
	carrier []byte
	layout  Layout
	units   int
	next    int
}

func (s *lsbSource) Next() (byte, bool) {
	if s.next >= s.units {
		return 0, false
	}
	b := s.carrier[s.next*s.layout.SampleWidth+s.layout.LSBOffset] & 1
	s.next++
	return b, true
}

func (s *lsbSource) Len() int {
	return s.units
}
