package carrier

import (
	"bytes"
	"fmt"
	"io"

	"steg/audio"
	"steg/stego"
)

var decoder = audio.NewAudioDecoder()

func loadWAV(data []byte) (*Carrier, error) {
	pcm, err := decoder.DecodeWAV(data)
	if err != nil {
		return nil, err
	}
	return pcmCarrier(FormatWAV, pcm, false)
}

func loadMP3(data []byte) (*Carrier, error) {
	pcm, err := decoder.DecodeMP3(data)
	if err != nil {
		return nil, err
	}
	return pcmCarrier(FormatMP3, pcm, true)
}

// pcmCarrier uses one LSB slot per sample, not per byte.
func pcmCarrier(format string, pcm *audio.PCM, lossy bool) (*Carrier, error) {
	if width := pcm.BytesPerSample(); width == 0 || len(pcm.Data)%width != 0 {
		return nil, fmt.Errorf("PCM data of %d bytes ends inside a %d-bit sample", len(pcm.Data), pcm.Metadata.BitDepth)
	}
	mode := stego.PCMMode(pcm.Metadata.BitDepth)
	layout, err := stego.LayoutForMode(mode)
	if err != nil {
		return nil, err
	}

	meta := *pcm.Metadata
	return &Carrier{
		Format:       format,
		OutputFormat: FormatWAV,
		Mode:         mode,
		Layout:       layout,
		Samples:      pcm.Data,
		Lossy:        lossy,
		Audio:        pcm.Metadata,
		encode: func(w io.Writer, samples []byte) error {
			wavData, err := decoder.EncodePCMToWAV(samples, &meta)
			if err != nil {
				return err
			}
			_, err = io.Copy(w, bytes.NewReader(wavData))
			return err
		},
	}, nil
}
