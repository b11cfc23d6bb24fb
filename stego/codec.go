package stego

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Codec composes a Framer with an Engine per call.
type Codec struct {
	framer *Framer
	log    zerolog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithByteOrder sets the header byte order. Big-endian is the default.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *Codec) {
		c.framer = NewFramer(order)
	}
}

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Codec) {
		c.log = l
	}
}

// NewCodec returns a Codec with a big-endian header and no logging unless
// overridden by opts.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		framer: NewFramer(binary.BigEndian),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Framer returns the codec's framer.
func (c *Codec) Framer() *Framer {
	return c.framer
}

// Fits reports whether a message of messageLen bytes fits a carrier of
// carrierLen bytes grouped by layout.
func (c *Codec) Fits(carrierLen int, layout Layout, messageLen int) bool {
	return FramedBits(messageLen) <= uint64(CapacityBits(carrierLen, layout.SampleWidth))
}

// Conceal frames message and embeds it into a copy of carrier.
func (c *Codec) Conceal(carrier []byte, layout Layout, message []byte) ([]byte, error) {
	engine, err := NewEngine(layout)
	if err != nil {
		return nil, err
	}

	required, available := FramedBits(len(message)), uint64(engine.Capacity(carrier))
	if required > available {
		return nil, &CapacityError{RequiredBits: required, AvailableBits: available}
	}

	bits := c.framer.Encode(message)
	c.log.Debug().
		Int("message_bytes", len(message)).
		Uint64("framed_bits", required).
		Uint64("capacity_bits", available).
		Stringer("layout", layout).
		Msg("embedding framed message")

	return engine.Embed(carrier, bits)
}

// Reveal extracts and unframes a message from carrier.
func (c *Codec) Reveal(carrier []byte, layout Layout) ([]byte, error) {
	engine, err := NewEngine(layout)
	if err != nil {
		return nil, err
	}

	src := engine.Extract(carrier)
	c.log.Debug().
		Int("capacity_bits", src.Len()).
		Stringer("layout", layout).
		Msg("extracting framed message")

	message, err := c.framer.Decode(src)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Int("message_bytes", len(message)).Msg("recovered message")
	return message, nil
}

// ParseByteOrder maps "big", "little" or "native" to a byte order. "native"
// reproduces hosts that wrote the header in their own byte order.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "big", "be", "big-endian":
		return binary.BigEndian, nil
	case "little", "le", "little-endian":
		return binary.LittleEndian, nil
	case "native":
		return binary.NativeEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order %q", s)
	}
}
