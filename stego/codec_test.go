package stego

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCodecLolBalls(t *testing.T) {
	req := require.New(t)

	c := NewCodec()
	carrier := randomCarrier(t, 1000, 42)
	msg := []byte("lol balls")

	req.True(c.Fits(len(carrier), ByteLayout, len(msg)))

	out, err := c.Conceal(carrier, ByteLayout, msg)
	req.NoError(err)

	changed := 0
	for i := range out {
		if out[i] != carrier[i] {
			req.Less(i, 136, "byte %d outside framed range changed", i)
			req.Equal(carrier[i]^1, out[i])
			changed++
		}
	}
	req.LessOrEqual(changed, 136)

	got, err := c.Reveal(out, ByteLayout)
	req.NoError(err)
	req.Equal(msg, got)
}

func TestCodecRoundTrip(t *testing.T) {
	layouts := []Layout{ByteLayout, {SampleWidth: 2}, {SampleWidth: 2, LSBOffset: 1}, {SampleWidth: 3}, {SampleWidth: 4}}
	messages := [][]byte{
		nil,
		[]byte("x"),
		[]byte("hello, carrier"),
		{0, 0, 0, 0, 0, 0, 0, 0},
		bytes.Repeat([]byte{0xFF, 0x00}, 40),
	}
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		c := NewCodec(WithByteOrder(order))
		for _, layout := range layouts {
			for i, msg := range messages {
				t.Run(fmt.Sprintf("%s/%s/%d", order, layout, i), func(t *testing.T) {
					carrier := randomCarrier(t, int(FramedBits(len(msg)))*layout.SampleWidth+5, int64(i))
					out, err := c.Conceal(carrier, layout, msg)
					require.NoError(t, err)

					got, err := c.Reveal(out, layout)
					require.NoError(t, err)
					require.Equal(t, len(msg), len(got))
					if len(msg) > 0 {
						require.Equal(t, msg, got)
					}
				})
			}
		}
	}
}

func TestCodecEmptyMessage(t *testing.T) {
	req := require.New(t)

	c := NewCodec()
	carrier := randomCarrier(t, 64, 3)
	out, err := c.Conceal(carrier, ByteLayout, []byte{})
	req.NoError(err)

	got, err := c.Reveal(out, ByteLayout)
	req.NoError(err)
	req.Empty(got)
}

func TestCodecCapacityBoundary(t *testing.T) {
	req := require.New(t)

	c := NewCodec()
	msg := []byte("boundary")
	exact := int(FramedBits(len(msg)))

	carrier := randomCarrier(t, exact, 5)
	out, err := c.Conceal(carrier, ByteLayout, msg)
	req.NoError(err)
	got, err := c.Reveal(out, ByteLayout)
	req.NoError(err)
	req.Equal(msg, got)

	short := carrier[:exact-1]
	orig := bytes.Clone(short)
	_, err = c.Conceal(short, ByteLayout, msg)
	var cerr *CapacityError
	req.ErrorAs(err, &cerr)
	req.EqualValues(exact, cerr.RequiredBits)
	req.EqualValues(exact-1, cerr.AvailableBits)
	req.Equal(orig, short)
	req.False(c.Fits(len(short), ByteLayout, len(msg)))
}

func TestCodecMultiByteCapacityBoundary(t *testing.T) {
	req := require.New(t)

	c := NewCodec()
	layout := Layout{SampleWidth: 3}
	msg := []byte("abc")
	exact := int(FramedBits(len(msg)))

	_, err := c.Conceal(make([]byte, exact*3), layout, msg)
	req.NoError(err)

	// One byte short drops the final unit.
	_, err = c.Conceal(make([]byte, exact*3-1), layout, msg)
	var cerr *CapacityError
	req.ErrorAs(err, &cerr)
}

func TestCodecRevealAdversarialHeader(t *testing.T) {
	req := require.New(t)

	// LSBs spell a header declaring 1<<40 bits in a 200 slot carrier.
	carrier := make([]byte, 200)
	var h [8]byte
	binary.BigEndian.PutUint64(h[:], 1<<40)
	for i, bit := range bytesToBits(nil, h[:]) {
		carrier[i] = 0xF0 | bit
	}

	_, err := NewCodec().Reveal(carrier, ByteLayout)
	var ferr *FramingError
	req.ErrorAs(err, &ferr)
	req.EqualValues(1<<40, ferr.DeclaredBits)
	req.EqualValues(136, ferr.AvailableBits)
}

func TestCodecRevealAllZeroLSBs(t *testing.T) {
	// A zero header decodes to an empty message rather than a framing error.
	got, err := NewCodec().Reveal(make([]byte, 128), ByteLayout)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCodecRevealTinyCarrier(t *testing.T) {
	_, err := NewCodec().Reveal(make([]byte, 63), ByteLayout)
	var ferr *FramingError
	require.ErrorAs(t, err, &ferr)

	_, err = NewCodec().Reveal(make([]byte, 64*2-1), Layout{SampleWidth: 2})
	require.ErrorAs(t, err, &ferr)
}

func TestCodecRevealIdempotent(t *testing.T) {
	req := require.New(t)

	c := NewCodec()
	out, err := c.Conceal(randomCarrier(t, 500, 9), ByteLayout, []byte("twice"))
	req.NoError(err)
	snapshot := bytes.Clone(out)

	first, err := c.Reveal(out, ByteLayout)
	req.NoError(err)
	second, err := c.Reveal(out, ByteLayout)
	req.NoError(err)
	req.Equal(first, second)
	req.Equal(snapshot, out)
}

func TestCodecByteOrderMismatch(t *testing.T) {
	out, err := NewCodec(WithByteOrder(binary.LittleEndian)).Conceal(randomCarrier(t, 400, 1), ByteLayout, []byte("le"))
	require.NoError(t, err)

	// 16 bits little-endian reads back as 16<<56 big-endian.
	_, err = NewCodec().Reveal(out, ByteLayout)
	var ferr *FramingError
	require.True(t, errors.As(err, &ferr))
}

func TestCodecInvalidLayout(t *testing.T) {
	_, err := NewCodec().Conceal(make([]byte, 100), Layout{}, nil)
	require.Error(t, err)
	_, err = NewCodec().Reveal(make([]byte, 100), Layout{SampleWidth: 1, LSBOffset: 1})
	require.Error(t, err)
}

func TestCodecConcurrentCarriers(t *testing.T) {
	c := NewCodec(WithLogger(zerolog.Nop()))

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			msg := []byte(fmt.Sprintf("message %d", i))
			carrier := randomCarrier(t, 1024, int64(i))
			out, err := c.Conceal(carrier, ByteLayout, msg)
			if err != nil {
				return err
			}
			got, err := c.Reveal(out, ByteLayout)
			if err != nil {
				return err
			}
			if !bytes.Equal(got, msg) {
				return fmt.Errorf("carrier %d: got %q", i, got)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestParseByteOrder(t *testing.T) {
	tests := map[string]binary.ByteOrder{
		"":       binary.BigEndian,
		"big":    binary.BigEndian,
		"LITTLE": binary.LittleEndian,
		"le":     binary.LittleEndian,
		"native": binary.NativeEndian,
	}
	for in, want := range tests {
		got, err := ParseByteOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseByteOrder("middle")
	require.Error(t, err)
}

func TestLayoutForMode(t *testing.T) {
	tests := []struct {
		mode Mode
		want Layout
	}{
		{ModeChannel8, Layout{SampleWidth: 1}},
		{ModeChannel16, Layout{SampleWidth: 2, LSBOffset: 1}},
		{ModeInt32, Layout{SampleWidth: 4}},
		{ModeFloat32, Layout{SampleWidth: 4}},
		{ModePCM8, Layout{SampleWidth: 1}},
		{ModePCM16, Layout{SampleWidth: 2}},
		{ModePCM24, Layout{SampleWidth: 3}},
		{ModePCM32, Layout{SampleWidth: 4}},
	}
	for _, tt := range tests {
		got, err := LayoutForMode(tt.mode)
		require.NoError(t, err, tt.mode.String())
		require.Equal(t, tt.want, got, tt.mode.String())
	}

	for _, m := range []Mode{ModeBilevel, ModeUnknown} {
		_, err := LayoutForMode(m)
		var uerr *UnsupportedCarrierError
		require.ErrorAs(t, err, &uerr, m.String())
		require.Equal(t, m.String(), uerr.Mode)
	}

	require.Equal(t, ModePCM24, PCMMode(24))
	require.Equal(t, ModeUnknown, PCMMode(12))
}
