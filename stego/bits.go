package stego

// BitSource yields bits one at a time. Len reports the total number of bits
// the source can produce, including the ones already read.
type BitSource interface {
	Next() (bit byte, ok bool)
	Len() int
}

type sliceSource struct {
	bits []byte
	pos  int
}

// NewSliceSource wraps an already materialized bit slice.
func NewSliceSource(bits []byte) BitSource {
	return &sliceSource{bits: bits}
}

func (s *sliceSource) Next() (byte, bool) {
	if s.pos >= len(s.bits) {
		return 0, false
	}
	b := s.bits[s.pos] & 1
	s.pos++
	return b, true
}

func (s *sliceSource) Len() int {
	return len(s.bits)
}

// bytesToBits appends the bits of data to dst, MSB first within each byte.
func bytesToBits(dst, data []byte) []byte {
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			dst = append(dst, (b>>i)&1)
		}
	}
	return dst
}

// readByte pulls eight bits from src and packs them MSB first.
func readByte(src BitSource) (byte, bool) {
	var b byte
	for j := 0; j < 8; j++ {
		bit, ok := src.Next()
		if !ok {
			return 0, false
		}
		b = (b << 1) | bit
	}
	return b, true
}
