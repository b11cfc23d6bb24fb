package stego

import (
	"encoding/binary"
)

// HeaderBits is the width of the bit-length header preceding every payload.
const HeaderBits = 64

// Framer turns messages into self-delimiting bitstreams and back.
//
// A framed bitstream is a 64-bit unsigned header holding the payload length in
// bits, followed by the payload. Header bytes follow the configured byte order
// and every byte is decomposed MSB first.
type Framer struct {
	order binary.ByteOrder
}

// NewFramer returns a Framer using order for the header. A nil order means
// big-endian.
func NewFramer(order binary.ByteOrder) *Framer {
	if order == nil {
		order = binary.BigEndian
	}
	return &Framer{order: order}
}

// ByteOrder returns the header byte order.
func (f *Framer) ByteOrder() binary.ByteOrder {
	return f.order
}

// FramedBits returns the framed length in bits of a message of n bytes.
func FramedBits(n int) uint64 {
	return HeaderBits + uint64(n)*8
}

// Encode frames message into exactly 64 + 8*len(message) bits, one bit per
// byte of the returned slice.
func (f *Framer) Encode(message []byte) []byte {
	var header [HeaderBits / 8]byte
	f.order.PutUint64(header[:], uint64(len(message))*8)

	bits := make([]byte, 0, FramedBits(len(message)))
	bits = bytesToBits(bits, header[:])
	return bytesToBits(bits, message)
}

// Decode reads a framed message from src. It fails with a *FramingError when
// the header declares more bits than src has left, or a length that is not a
// whole number of bytes.
func (f *Framer) Decode(src BitSource) ([]byte, error) {
	available := uint64(src.Len())
	if available < HeaderBits {
		return nil, &FramingError{
			AvailableBits: available,
			Reason:        "carrier too short for header",
		}
	}

	var header [HeaderBits / 8]byte
	for i := range header {
		b, ok := readByte(src)
		if !ok {
			return nil, &FramingError{AvailableBits: available, Reason: "carrier ended inside header"}
		}
		header[i] = b
	}
	n := f.order.Uint64(header[:])

	if available-HeaderBits < n {
		return nil, &FramingError{
			DeclaredBits:  n,
			AvailableBits: available - HeaderBits,
			Reason:        "declared length exceeds carrier",
		}
	}
	if n%8 != 0 {
		return nil, &FramingError{
			DeclaredBits:  n,
			AvailableBits: available - HeaderBits,
			Reason:        "declared length is not a whole number of bytes",
		}
	}

	message := make([]byte, n/8)
	for i := range message {
		b, ok := readByte(src)
		if !ok {
			return nil, &FramingError{
				DeclaredBits:  n,
				AvailableBits: available - HeaderBits,
				Reason:        "carrier ended inside payload",
			}
		}
		message[i] = b
	}
	return message, nil
}
