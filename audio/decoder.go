// Package audio turns WAV and MP3 data into little-endian PCM sample bytes and
// writes PCM back out as WAV.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bogem/id3v2"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tosone/minimp3"

	"steg/models"
	"steg/stego"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
	mp3BitDepth         = 16
	BitsInByte          = 8
)

var ErrInvalidWAV = errors.New("not a valid WAV file")

// KSDATAFORMAT_SUBTYPE_PCM
var subFormatPCM = [16]byte{
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
}

// wavSubFormat returns the SubFormat GUID of a WAVE_FORMAT_EXTENSIBLE fmt
// chunk. ok is false for any other file.
func wavSubFormat(data []byte) (sub []byte, ok bool) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, false
	}
	for pos := 12; pos+8 <= len(data); {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			return nil, false
		}
		if id == "fmt " {
			fmtChunk := data[body : body+size]
			if size < 40 || binary.LittleEndian.Uint16(fmtChunk) != wavFormatExtensible {
				return nil, false
			}
			return fmtChunk[24:40], true
		}
		pos = body + size + size%2
	}
	return nil, false
}

// PCM is interleaved little-endian sample data plus the format it came from.
type PCM struct {
	Data     []byte
	Metadata *models.AudioMetadata
}

// BytesPerSample returns the width of one sample in Data.
func (p *PCM) BytesPerSample() int {
	return p.Metadata.BitDepth / BitsInByte
}

type AudioDecoder struct{}

func NewAudioDecoder() *AudioDecoder {
	return &AudioDecoder{}
}

// DecodeWAV reads integer PCM WAV data. Non-PCM encodings and bit depths other
// than 8/16/24/32 fail with *stego.UnsupportedCarrierError.
func (ad *AudioDecoder) DecodeWAV(wavData []byte) (*PCM, error) {
	// go-audio does not expose the extensible sub-format, so an extensible
	// float file would otherwise load as integer PCM.
	if sub, ok := wavSubFormat(wavData); ok && !bytes.Equal(sub, subFormatPCM[:]) {
		return nil, &stego.UnsupportedCarrierError{
			Mode:   fmt.Sprintf("wav-extensible-%x", sub[:2]),
			Reason: "only integer PCM WAV is supported",
		}
	}

	decoder := wav.NewDecoder(bytes.NewReader(wavData))
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		return nil, &stego.UnsupportedCarrierError{
			Mode:   fmt.Sprintf("wav-format-%d", decoder.WavAudioFormat),
			Reason: "only integer PCM WAV is supported",
		}
	}
	bitDepth := int(decoder.BitDepth)
	if stego.PCMMode(bitDepth) == stego.ModeUnknown {
		return nil, &stego.UnsupportedCarrierError{Mode: fmt.Sprintf("pcm%d", bitDepth)}
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}

	data := IntsToPCM(buf.Data, bitDepth)
	channels := int(decoder.NumChans)
	sampleRate := int(decoder.SampleRate)

	return &PCM{
		Data: data,
		Metadata: &models.AudioMetadata{
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   bitDepth,
			Duration:   duration(len(data), bitDepth, channels, sampleRate),
			TotalBytes: len(data),
		},
	}, nil
}

// DecodeMP3 decodes MP3 data to 16-bit PCM. The MP3 itself is lossy so the
// result can only be written back as WAV.
func (ad *AudioDecoder) DecodeMP3(mp3Data []byte) (*PCM, error) {
	decoder, data, err := minimp3.DecodeFull(mp3Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}
	defer decoder.Close()

	if decoder.Channels == 0 || len(data) == 0 {
		return nil, fmt.Errorf("failed to decode MP3: no audio frames")
	}

	metadata := &models.AudioMetadata{
		SampleRate: decoder.SampleRate,
		Channels:   decoder.Channels,
		BitDepth:   mp3BitDepth,
		Duration:   duration(len(data), mp3BitDepth, decoder.Channels, decoder.SampleRate),
		TotalBytes: len(data),
	}

	// Metadata is informational; a broken tag does not fail the decode.
	if title, artist, err := ad.ReadID3(mp3Data); err == nil {
		metadata.Title, metadata.Artist = title, artist
	}
	if stream, err := ScanMP3(mp3Data); err == nil {
		metadata.SourceBitrate = stream.AvgBitrate
		metadata.SourceFrames = stream.Frames
		metadata.VBR = stream.VBR
		if tag := stream.ID3v1; tag != nil {
			if metadata.Title == "" {
				metadata.Title = tag.Title
			}
			if metadata.Artist == "" {
				metadata.Artist = tag.Artist
			}
		}
	}

	return &PCM{Data: data, Metadata: metadata}, nil
}

// ReadID3 returns the title and artist from an ID3v2 tag, if present.
func (ad *AudioDecoder) ReadID3(mp3Data []byte) (title, artist string, err error) {
	tag, err := id3v2.ParseReader(bytes.NewReader(mp3Data), id3v2.Options{Parse: true})
	if err != nil {
		return "", "", fmt.Errorf("failed to parse ID3 tag: %w", err)
	}
	return tag.Title(), tag.Artist(), nil
}

// EncodePCMToWAV writes little-endian PCM bytes as an integer PCM WAV file.
func (ad *AudioDecoder) EncodePCMToWAV(pcmData []byte, metadata *models.AudioMetadata) ([]byte, error) {
	bytesPerSample := metadata.BitDepth / BitsInByte
	if bytesPerSample < 1 || len(pcmData)%bytesPerSample != 0 {
		return nil, fmt.Errorf("PCM data length %d is not a multiple of %d-bit samples", len(pcmData), metadata.BitDepth)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: metadata.Channels,
			SampleRate:  metadata.SampleRate,
		},
		Data:           PCMToInts(pcmData, metadata.BitDepth),
		SourceBitDepth: metadata.BitDepth,
	}

	// Create a temporary file for WAV encoding since wav.NewEncoder needs WriteSeeker
	tempFile, err := os.CreateTemp("", "steg_*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	encoder := wav.NewEncoder(tempFile, metadata.SampleRate, metadata.BitDepth, metadata.Channels, wavFormatPCM)

	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to close WAV encoder: %w", err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind WAV data: %w", err)
	}
	wavData, err := io.ReadAll(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV data: %w", err)
	}

	return wavData, nil
}

// IntsToPCM packs decoded sample values into little-endian bytes of
// bitDepth/8 bytes each. 8-bit samples keep their unsigned byte value.
func IntsToPCM(samples []int, bitDepth int) []byte {
	width := bitDepth / BitsInByte
	data := make([]byte, len(samples)*width)
	for i, s := range samples {
		v := uint32(int32(s))
		for k := 0; k < width; k++ {
			data[i*width+k] = byte(v >> (8 * k))
		}
	}
	return data
}

// PCMToInts is the inverse of IntsToPCM. Samples wider than 8 bits are sign
// extended.
func PCMToInts(data []byte, bitDepth int) []int {
	width := bitDepth / BitsInByte
	samples := make([]int, len(data)/width)
	for i := range samples {
		var v uint32
		for k := 0; k < width; k++ {
			v |= uint32(data[i*width+k]) << (8 * k)
		}
		if width == 1 {
			samples[i] = int(v)
			continue
		}
		shift := 32 - bitDepth
		samples[i] = int(int32(v<<shift) >> shift)
	}
	return samples
}

func duration(totalBytes, bitDepth, channels, sampleRate int) float64 {
	frameBytes := bitDepth / BitsInByte * channels
	if frameBytes == 0 || sampleRate == 0 {
		return 0
	}
	return float64(totalBytes/frameBytes) / float64(sampleRate)
}
