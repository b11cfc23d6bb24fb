// Package carrier loads images and audio clips as flat sample buffers for the
// stego engine and writes modified buffers back out losslessly.
package carrier

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"steg/models"
	"steg/stego"
)

// Supported source formats.
const (
	FormatPNG  = "png"
	FormatGIF  = "gif"
	FormatJPEG = "jpeg"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
	FormatWebP = "webp"
	FormatWAV  = "wav"
	FormatMP3  = "mp3"
)

var ErrLengthMismatch = errors.New("sample buffer length does not match carrier")

// Options controls how carriers are loaded and written.
type Options struct {
	// IncludeAlpha carries the alpha channel of images in the sample buffer.
	IncludeAlpha bool
	// ImageOutput is "png" or "tiff". Empty keeps TIFF sources as TIFF and
	// writes everything else as PNG.
	ImageOutput string
}

// Validate checks the option values.
func (o Options) Validate() error {
	switch o.ImageOutput {
	case "", FormatPNG, FormatTIFF:
		return nil
	default:
		return fmt.Errorf("invalid image output format %q; expected png or tiff", o.ImageOutput)
	}
}

// Carrier is a decoded image or audio clip. Samples is owned by the caller
// once returned; Encode never retains the buffer passed to it.
type Carrier struct {
	Format       string
	OutputFormat string
	Mode         stego.Mode
	Layout       stego.Layout
	Samples      []byte
	// Lossy is set when the source format discards data, so a message
	// concealed in it survives only in the lossless output.
	Lossy  bool
	Width  int
	Height int
	Audio  *models.AudioMetadata

	encode func(w io.Writer, samples []byte) error
}

// Capacity returns the number of LSB slots in the carrier.
func (c *Carrier) Capacity() int {
	return stego.CapacityBits(len(c.Samples), c.Layout.SampleWidth)
}

// Encode writes the carrier with samples in place of its original sample
// buffer, in OutputFormat.
func (c *Carrier) Encode(w io.Writer, samples []byte) error {
	if len(samples) != len(c.Samples) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, len(samples), len(c.Samples))
	}
	return c.encode(w, samples)
}

// Info summarizes the carrier for API responses.
func (c *Carrier) Info() *models.CarrierInfo {
	return &models.CarrierInfo{
		Format:       c.Format,
		OutputFormat: c.OutputFormat,
		Mode:         c.Mode.String(),
		SampleWidth:  c.Layout.SampleWidth,
		Lossy:        c.Lossy,
		Width:        c.Width,
		Height:       c.Height,
		Audio:        c.Audio,
	}
}

// OutputName derives the stego file name for a source named name.
func (c *Carrier) OutputName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "carrier"
	}
	return fmt.Sprintf("%s_stego.%s", base, c.OutputFormat)
}

// ContentType returns the MIME type of the output format.
func (c *Carrier) ContentType() string {
	switch c.OutputFormat {
	case FormatTIFF:
		return "image/tiff"
	case FormatWAV:
		return "audio/wav"
	default:
		return "image/png"
	}
}

// Load decodes data into a carrier. name is only used as a format hint when
// the content cannot be sniffed.
func Load(data []byte, name string, opts Options) (*Carrier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	format := Detect(data, name)
	switch format {
	case FormatPNG, FormatGIF, FormatJPEG, FormatBMP, FormatTIFF, FormatWebP:
		return loadImage(data, format, opts)
	case FormatWAV:
		return loadWAV(data)
	case FormatMP3:
		return loadMP3(data)
	default:
		return nil, &stego.UnsupportedCarrierError{
			Mode:   mimetype.Detect(data).String(),
			Reason: "not a supported image or audio format",
		}
	}
}

// Detect returns the carrier format of data, falling back to the extension
// of name. It returns "" when neither identifies a supported format.
func Detect(data []byte, name string) string {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("image/png"):
		return FormatPNG
	case mtype.Is("image/gif"):
		return FormatGIF
	case mtype.Is("image/jpeg"):
		return FormatJPEG
	case mtype.Is("image/bmp"):
		return FormatBMP
	case mtype.Is("image/tiff"):
		return FormatTIFF
	case mtype.Is("image/webp"):
		return FormatWebP
	case mtype.Is("audio/wav"):
		return FormatWAV
	case mtype.Is("audio/mpeg"):
		return FormatMP3
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return FormatPNG
	case ".gif":
		return FormatGIF
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".bmp":
		return FormatBMP
	case ".tif", ".tiff":
		return FormatTIFF
	case ".webp":
		return FormatWebP
	case ".wav", ".wave":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	}
	return ""
}
