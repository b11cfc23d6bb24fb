package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	id3v2HeaderSize = 10
	id3v1TagSize    = 128
)

var ErrNoMP3Frames = errors.New("no MPEG-1 Layer III frames found")

// MP3FrameHeader is a decoded MPEG-1 Layer III frame header.
type MP3FrameHeader struct {
	ProtectionBit bool
	Bitrate       int
	SampleRate    int
	Padding       bool
	ChannelMode   int
	FrameLength   int
}

// ID3v1Tag is the fixed 128-byte tag at the end of a file.
type ID3v1Tag struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	Genre   byte
}

// MP3Stream summarizes the frame structure of an MP3 file.
type MP3Stream struct {
	ID3v2Size  int
	Frames     int
	AvgBitrate int
	VBR        bool
	ID3v1      *ID3v1Tag
}

// read syncsafe int for ID3v2 size
func syncSafeToInt(b []byte) int {
	return int(b[0]&0x7F)<<21 |
		int(b[1]&0x7F)<<14 |
		int(b[2]&0x7F)<<7 |
		int(b[3]&0x7F)
}

// ParseFrameHeader decodes a 4-byte MPEG-1 Layer III frame header.
func ParseFrameHeader(b []byte) (*MP3FrameHeader, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("frame header needs 4 bytes, got %d", len(b))
	}
	header := binary.BigEndian.Uint32(b)

	// check sync
	if (header & 0xFFE00000) != 0xFFE00000 {
		return nil, fmt.Errorf("invalid sync word: 0x%08X", header)
	}

	versionID := (header >> 19) & 0x3
	layer := (header >> 17) & 0x3
	if versionID != 0x3 || layer != 0x1 {
		return nil, fmt.Errorf("not an MPEG-1 Layer III frame: version %d, layer %d", versionID, layer)
	}

	// MPEG1 Layer III tables
	bitrateTable := [16]int{
		0, 32, 40, 48, 56, 64, 80, 96,
		112, 128, 160, 192, 224, 256, 320, 0,
	}
	sampleRateTable := [4]int{44100, 48000, 32000, 0}

	bitrate := bitrateTable[(header>>12)&0xF] * 1000
	sampleRate := sampleRateTable[(header>>10)&0x3]
	if bitrate == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("unsupported bitrate or samplerate")
	}
	padding := ((header >> 9) & 0x1) == 1

	return &MP3FrameHeader{
		ProtectionBit: ((header >> 16) & 0x1) == 0,
		Bitrate:       bitrate,
		SampleRate:    sampleRate,
		Padding:       padding,
		ChannelMode:   int((header >> 6) & 0x3),
		FrameLength:   (144*bitrate)/sampleRate + btoi(padding),
	}, nil
}

// ScanMP3 walks the frames of an MP3 file, skipping ID3 tags and resyncing
// past bytes that do not start a frame.
func ScanMP3(data []byte) (*MP3Stream, error) {
	s := &MP3Stream{}

	pos := 0
	if len(data) >= id3v2HeaderSize && string(data[:3]) == "ID3" {
		pos = id3v2HeaderSize + syncSafeToInt(data[6:10])
		if data[5]&0x10 != 0 {
			pos += id3v2HeaderSize // footer
		}
		s.ID3v2Size = pos
	}

	end := len(data)
	if tag := ReadID3v1(data); tag != nil {
		s.ID3v1 = tag
		end -= id3v1TagSize
	}

	bitrateSum, firstBitrate := 0, 0
	for pos+4 <= end {
		h, err := ParseFrameHeader(data[pos : pos+4])
		if err != nil || pos+h.FrameLength > end {
			pos++
			continue
		}
		if s.Frames == 0 {
			firstBitrate = h.Bitrate
		} else if h.Bitrate != firstBitrate {
			s.VBR = true
		}
		s.Frames++
		bitrateSum += h.Bitrate
		pos += h.FrameLength
	}

	if s.Frames == 0 {
		return nil, ErrNoMP3Frames
	}
	s.AvgBitrate = bitrateSum / s.Frames
	return s, nil
}

// ReadID3v1 returns the ID3v1 tag at the end of data, or nil.
func ReadID3v1(data []byte) *ID3v1Tag {
	if len(data) < id3v1TagSize {
		return nil
	}
	buf := data[len(data)-id3v1TagSize:]
	if string(buf[:3]) != "TAG" {
		return nil
	}
	return &ID3v1Tag{
		Title:   tagString(buf[3:33]),
		Artist:  tagString(buf[33:63]),
		Album:   tagString(buf[63:93]),
		Year:    tagString(buf[93:97]),
		Comment: tagString(buf[97:127]),
		Genre:   buf[127],
	}
}

func tagString(b []byte) string {
	return strings.TrimRight(string(b), "\x00 ")
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
