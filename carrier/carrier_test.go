package carrier

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"steg/audio"
	"steg/models"
	"steg/stego"
)

func fill(pix []uint8, seed int64) {
	rand.New(rand.NewSource(seed)).Read(pix)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func opaqueNRGBA(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fill(img.Pix, 1)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

// concealAndReload hides msg in data, writes the carrier back and loads the
// written bytes again.
func concealAndReload(t *testing.T, data []byte, name string, opts Options, msg []byte) *Carrier {
	t.Helper()
	req := require.New(t)

	c, err := Load(data, name, opts)
	req.NoError(err)

	out, err := stego.NewCodec().Conceal(c.Samples, c.Layout, msg)
	req.NoError(err)

	var buf bytes.Buffer
	req.NoError(c.Encode(&buf, out))

	reloaded, err := Load(buf.Bytes(), c.OutputName(name), opts)
	req.NoError(err)
	req.Equal(c.OutputFormat, reloaded.Format)
	req.Equal(out, reloaded.Samples)
	return reloaded
}

func TestImageRoundTrip(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 20, 20))
	fill(gray.Pix, 2)

	gray16 := image.NewGray16(image.Rect(0, 0, 16, 16))
	fill(gray16.Pix, 3)

	alpha := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	fill(alpha.Pix, 4)

	wide := image.NewNRGBA64(image.Rect(0, 0, 10, 10))
	fill(wide.Pix, 5)
	for i := 6; i < len(wide.Pix); i += 8 {
		wide.Pix[i], wide.Pix[i+1] = 0xFF, 0xFF
	}

	palette := color.Palette{color.Black, color.White, color.RGBA{R: 0xFF, A: 0xFF}}
	paletted := image.NewPaletted(image.Rect(0, 0, 20, 20), palette)
	for i := range paletted.Pix {
		paletted.Pix[i] = uint8(i % 3)
	}

	tests := []struct {
		name  string
		img   image.Image
		opts  Options
		mode  stego.Mode
		width int
		units int
	}{
		{"gray", gray, Options{}, stego.ModeChannel8, 1, 400},
		{"gray16", gray16, Options{}, stego.ModeChannel16, 2, 256},
		{"opaque rgb", opaqueNRGBA(10, 10), Options{}, stego.ModeChannel8, 1, 300},
		{"opaque rgba with alpha", opaqueNRGBA(10, 10), Options{IncludeAlpha: true}, stego.ModeChannel8, 1, 400},
		{"translucent rgba", alpha, Options{IncludeAlpha: true}, stego.ModeChannel8, 1, 576},
		{"nrgba64", wide, Options{}, stego.ModeChannel16, 2, 300},
		{"paletted", paletted, Options{}, stego.ModeChannel8, 1, 400},
		{"tiff output", gray, Options{ImageOutput: FormatTIFF}, stego.ModeChannel8, 1, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			c, err := Load(encodePNG(t, tt.img), "in.png", tt.opts)
			req.NoError(err)
			req.Equal(FormatPNG, c.Format)
			req.Equal(tt.mode, c.Mode)
			req.Equal(tt.width, c.Layout.SampleWidth)
			req.Equal(tt.units, c.Capacity())
			req.False(c.Lossy)

			msg := []byte("hi")
			reloaded := concealAndReload(t, encodePNG(t, tt.img), "in.png", tt.opts, msg)
			got, err := stego.NewCodec().Reveal(reloaded.Samples, reloaded.Layout)
			req.NoError(err)
			req.Equal(msg, got)
		})
	}
}

func TestLoadPalettedPadsOddPalette(t *testing.T) {
	req := require.New(t)

	palette := color.Palette{color.Black, color.White, color.Gray{Y: 0x80}}
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
	for i := range img.Pix {
		img.Pix[i] = 2
	}

	c, err := Load(encodePNG(t, img), "p.png", Options{})
	req.NoError(err)

	flipped := make([]byte, len(c.Samples))
	for i, s := range c.Samples {
		flipped[i] = s ^ 1
	}
	var buf bytes.Buffer
	req.NoError(c.Encode(&buf, flipped))

	decoded, err := png.Decode(&buf)
	req.NoError(err)
	p, ok := decoded.(*image.Paletted)
	req.True(ok)
	req.Len(p.Palette, 4)
	req.Equal(uint8(3), p.Pix[0])
	req.Equal(p.Palette[2], p.Palette[3])
}

func TestLoadRejectsBilevel(t *testing.T) {
	req := require.New(t)

	img := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{color.Black, color.White})
	data := encodePNG(t, img)
	req.Equal(1, pngBitDepth(data))

	_, err := Load(data, "bilevel.png", Options{})
	var uerr *stego.UnsupportedCarrierError
	req.ErrorAs(err, &uerr)
	req.Equal(stego.ModeBilevel.String(), uerr.Mode)
}

func TestLoadBMPWritesPNG(t *testing.T) {
	req := require.New(t)

	var buf bytes.Buffer
	req.NoError(bmp.Encode(&buf, opaqueNRGBA(8, 8)))

	c, err := Load(buf.Bytes(), "in.bmp", Options{})
	req.NoError(err)
	req.Equal(FormatBMP, c.Format)
	req.Equal(FormatPNG, c.OutputFormat)
	req.Equal("in_stego.png", c.OutputName("dir/in.bmp"))
	req.Equal("image/png", c.ContentType())
}

func TestWAVRoundTrip(t *testing.T) {
	req := require.New(t)

	samples := make([]int, 2000)
	for i := range samples {
		samples[i] = (i*31)%4000 - 2000
	}
	wavData, err := audio.NewAudioDecoder().EncodePCMToWAV(audio.IntsToPCM(samples, 16),
		&models.AudioMetadata{SampleRate: 22050, Channels: 1, BitDepth: 16})
	req.NoError(err)

	c, err := Load(wavData, "clip.wav", Options{})
	req.NoError(err)
	req.Equal(FormatWAV, c.Format)
	req.Equal(stego.ModePCM16, c.Mode)
	req.Equal(stego.Layout{SampleWidth: 2}, c.Layout)
	req.Equal(2000, c.Capacity())
	req.Equal("audio/wav", c.ContentType())
	req.NotNil(c.Info().Audio)

	msg := []byte("lol balls")
	reloaded := concealAndReload(t, wavData, "clip.wav", Options{}, msg)
	got, err := stego.NewCodec().Reveal(reloaded.Samples, reloaded.Layout)
	req.NoError(err)
	req.Equal(msg, got)
}

func TestPCMCarrierRejectsPartialSample(t *testing.T) {
	pcm := &audio.PCM{
		Data:     []byte{1, 2, 3},
		Metadata: &models.AudioMetadata{SampleRate: 8000, Channels: 1, BitDepth: 16},
	}
	_, err := pcmCarrier(FormatWAV, pcm, false)
	require.Error(t, err)

	pcm.Data = []byte{1, 2, 3, 4}
	c, err := pcmCarrier(FormatWAV, pcm, false)
	require.NoError(t, err)
	require.Equal(t, 2, c.Capacity())
}

func TestLoadUnsupported(t *testing.T) {
	_, err := Load([]byte("just some text, not a carrier"), "notes.txt", Options{})
	var uerr *stego.UnsupportedCarrierError
	require.ErrorAs(t, err, &uerr)
}

func TestLoadInvalidOptions(t *testing.T) {
	_, err := Load(encodePNG(t, opaqueNRGBA(2, 2)), "a.png", Options{ImageOutput: "jpeg"})
	require.Error(t, err)
}

func TestEncodeLengthMismatch(t *testing.T) {
	c, err := Load(encodePNG(t, opaqueNRGBA(4, 4)), "a.png", Options{})
	require.NoError(t, err)
	require.ErrorIs(t, c.Encode(&bytes.Buffer{}, c.Samples[1:]), ErrLengthMismatch)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		data []byte
		name string
		want string
	}{
		{encodePNG(t, opaqueNRGBA(1, 1)), "whatever.bin", FormatPNG},
		{[]byte{0}, "song.MP3", FormatMP3},
		{[]byte{0}, "photo.jpg", FormatJPEG},
		{[]byte{0}, "scan.tif", FormatTIFF},
		{[]byte{0}, "voice.wav", FormatWAV},
		{[]byte{0}, "unknown", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Detect(tt.data, tt.name), tt.name)
	}
}
