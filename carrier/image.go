package carrier

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"steg/stego"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// plane addresses the channels of a packed pixel buffer. Sample units are
// taken row by row, pixel by pixel, and the first keep channels of each pixel.
type plane struct {
	pix       []uint8
	stride    int
	rect      image.Rectangle
	channels  int
	chanBytes int
	keep      int
}

func (p plane) rowBytes() int {
	return p.rect.Dx() * p.channels * p.chanBytes
}

func (p plane) sampleLen() int {
	return p.rect.Dx() * p.rect.Dy() * p.keep * p.chanBytes
}

// gather copies the carried channels out of pix.
func (p plane) gather() []byte {
	samples := make([]byte, 0, p.sampleLen())
	pixBytes := p.channels * p.chanBytes
	keepBytes := p.keep * p.chanBytes
	for y := 0; y < p.rect.Dy(); y++ {
		row := p.pix[y*p.stride : y*p.stride+p.rowBytes()]
		if keepBytes == pixBytes {
			samples = append(samples, row...)
			continue
		}
		for x := 0; x < len(row); x += pixBytes {
			samples = append(samples, row[x:x+keepBytes]...)
		}
	}
	return samples
}

// scatter writes samples back over the carried channels of dst, which must
// have the same geometry as p.pix.
func (p plane) scatter(dst, samples []byte) {
	pixBytes := p.channels * p.chanBytes
	keepBytes := p.keep * p.chanBytes
	n := 0
	for y := 0; y < p.rect.Dy(); y++ {
		row := dst[y*p.stride : y*p.stride+p.rowBytes()]
		for x := 0; x < len(row); x += pixBytes {
			n += copy(row[x:x+keepBytes], samples[n:n+keepBytes])
		}
	}
}

func channelsKept(channels int, hasAlpha, includeAlpha bool) int {
	if hasAlpha && !includeAlpha {
		return channels - 1
	}
	return channels
}

func loadImage(data []byte, format string, opts Options) (*Carrier, error) {
	if format == FormatPNG && pngBitDepth(data) == 1 {
		return nil, unsupportedBilevel("1-bit PNG")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}

	c := &Carrier{
		Format:       format,
		OutputFormat: imageOutput(format, opts),
		Width:        img.Bounds().Dx(),
		Height:       img.Bounds().Dy(),
		Lossy:        format == FormatJPEG,
	}

	var (
		p       plane
		withPix func(pix []uint8) image.Image
	)

	switch m := img.(type) {
	case *image.Gray:
		c.Mode = stego.ModeChannel8
		p = plane{pix: m.Pix, stride: m.Stride, rect: m.Rect, channels: 1, chanBytes: 1, keep: 1}
		withPix = func(pix []uint8) image.Image { cp := *m; cp.Pix = pix; return &cp }
	case *image.Gray16:
		c.Mode = stego.ModeChannel16
		p = plane{pix: m.Pix, stride: m.Stride, rect: m.Rect, channels: 1, chanBytes: 2, keep: 1}
		withPix = func(pix []uint8) image.Image { cp := *m; cp.Pix = pix; return &cp }
	case *image.Paletted:
		if len(m.Palette) <= 2 {
			return nil, unsupportedBilevel("palette of two colours or fewer")
		}
		palette := m.Palette
		if len(palette)%2 != 0 {
			// Flipping the LSB of the highest index must stay in range.
			palette = append(append(color.Palette(nil), palette...), palette[len(palette)-1])
		}
		c.Mode = stego.ModeChannel8
		p = plane{pix: m.Pix, stride: m.Stride, rect: m.Rect, channels: 1, chanBytes: 1, keep: 1}
		withPix = func(pix []uint8) image.Image { cp := *m; cp.Pix, cp.Palette = pix, palette; return &cp }
	case *image.RGBA64:
		n := asNRGBA64(m)
		c.Mode = stego.ModeChannel16
		p = plane{pix: n.Pix, stride: n.Stride, rect: n.Rect, channels: 4, chanBytes: 2, keep: channelsKept(4, true, opts.IncludeAlpha)}
		withPix = func(pix []uint8) image.Image { cp := *n; cp.Pix = pix; return &cp }
	case *image.NRGBA64:
		c.Mode = stego.ModeChannel16
		p = plane{pix: m.Pix, stride: m.Stride, rect: m.Rect, channels: 4, chanBytes: 2, keep: channelsKept(4, true, opts.IncludeAlpha)}
		withPix = func(pix []uint8) image.Image { cp := *m; cp.Pix = pix; return &cp }
	default:
		switch img.(type) {
		case *image.YCbCr, *image.NYCbCrA:
			c.Lossy = c.Lossy || format == FormatWebP
		}
		n := asNRGBA(img)
		c.Mode = stego.ModeChannel8
		p = plane{pix: n.Pix, stride: n.Stride, rect: n.Rect, channels: 4, chanBytes: 1, keep: channelsKept(4, true, opts.IncludeAlpha)}
		withPix = func(pix []uint8) image.Image { cp := *n; cp.Pix = pix; return &cp }
	}

	layout, err := stego.LayoutForMode(c.Mode)
	if err != nil {
		return nil, err
	}
	c.Layout = layout
	c.Samples = p.gather()

	output := c.OutputFormat
	c.encode = func(w io.Writer, samples []byte) error {
		pix := make([]uint8, len(p.pix))
		copy(pix, p.pix)
		p.scatter(pix, samples)
		return encodeImage(w, withPix(pix), output)
	}
	return c, nil
}

// asNRGBA reinterprets opaque RGBA images in place and converts everything
// else. Premultiplied and straight alpha agree when alpha is opaque.
func asNRGBA(img image.Image) *image.NRGBA {
	switch m := img.(type) {
	case *image.NRGBA:
		return m
	case *image.RGBA:
		if m.Opaque() {
			return &image.NRGBA{Pix: m.Pix, Stride: m.Stride, Rect: m.Rect}
		}
	}
	dst := image.NewNRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}

func asNRGBA64(m *image.RGBA64) *image.NRGBA64 {
	if m.Opaque() {
		return &image.NRGBA64{Pix: m.Pix, Stride: m.Stride, Rect: m.Rect}
	}
	dst := image.NewNRGBA64(m.Bounds())
	draw.Draw(dst, dst.Bounds(), m, m.Bounds().Min, draw.Src)
	return dst
}

func imageOutput(format string, opts Options) string {
	if opts.ImageOutput != "" {
		return opts.ImageOutput
	}
	if format == FormatTIFF {
		return FormatTIFF
	}
	return FormatPNG
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatTIFF:
		if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return fmt.Errorf("failed to encode TIFF: %w", err)
		}
	default:
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		if err := encoder.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode PNG: %w", err)
		}
	}
	return nil
}

// pngBitDepth reads the bit depth from the IHDR chunk, or 0 if data is not a
// PNG.
func pngBitDepth(data []byte) int {
	if len(data) < 26 || string(data[:8]) != pngSignature || string(data[12:16]) != "IHDR" {
		return 0
	}
	return int(data[24])
}

func unsupportedBilevel(reason string) error {
	return &stego.UnsupportedCarrierError{Mode: stego.ModeBilevel.String(), Reason: reason}
}
