// Package models contain needed models
package models

// CapacityResponse reports how much a carrier can hold
type CapacityResponse struct {
	Success         bool         `json:"success"`
	Message         string       `json:"message,omitempty"`
	Carrier         *CarrierInfo `json:"carrier,omitempty"`
	CapacityBits    int          `json:"capacity_bits"`
	MaxMessageBytes int          `json:"max_message_bytes"`
}

// ErrorResponse is returned by every endpoint on failure
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// CarrierInfo describes a loaded carrier
type CarrierInfo struct {
	Format       string         `json:"format"`
	OutputFormat string         `json:"output_format"`
	Mode         string         `json:"mode"`
	SampleWidth  int            `json:"sample_width"`
	Lossy        bool           `json:"lossy_source"`
	Width        int            `json:"width,omitempty"`
	Height       int            `json:"height,omitempty"`
	Audio        *AudioMetadata `json:"audio,omitempty"`
}

// AudioMetadata represents metadata about an audio file
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	Duration   float64 `json:"duration_seconds"`
	TotalBytes int     `json:"total_bytes"`
	Title      string  `json:"title,omitempty"`
	Artist     string  `json:"artist,omitempty"`

	// MP3 sources only
	SourceBitrate int  `json:"source_bitrate,omitempty"`
	SourceFrames  int  `json:"source_frames,omitempty"`
	VBR           bool `json:"vbr,omitempty"`
}
