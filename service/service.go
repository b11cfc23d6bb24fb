// Package service wires carrier loading, the stego codec and quality metrics
// into the conceal, reveal and capacity operations used by the CLI and API.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"steg/carrier"
	"steg/models"
	"steg/quality"
	"steg/stego"
)

var (
	ErrNotUTF8        = errors.New("revealed message is not valid UTF-8")
	ErrInvalidCarrier = errors.New("invalid carrier")
)

// Service runs stego operations over encoded carrier files.
type Service struct {
	codec   *stego.Codec
	opts    carrier.Options
	log     zerolog.Logger
	minPSNR float64
}

// Option configures a Service.
type Option func(*Service)

// WithMinPSNR sets the PSNR in dB below which Conceal flags its result.
func WithMinPSNR(db float64) Option {
	return func(s *Service) {
		s.minPSNR = db
	}
}

func New(codec *stego.Codec, opts carrier.Options, log zerolog.Logger, options ...Option) *Service {
	s := &Service{codec: codec, opts: opts, log: log}
	for _, opt := range options {
		opt(s)
	}
	return s
}

type ConcealResult struct {
	Output       []byte
	OutputName   string
	ContentType  string
	Carrier      *models.CarrierInfo
	CapacityBits int
	FramedBits   uint64
	PSNR         float64
	// LowQuality is set when PSNR falls below the configured minimum.
	LowQuality bool
	Digest     string
}

type RevealResult struct {
	Message []byte
	Carrier *models.CarrierInfo
	Digest  string
}

type CapacityReport struct {
	Carrier         *models.CarrierInfo
	CapacityBits    int
	MaxMessageBytes int
}

// Digest returns the hex xxhash64 of message, used to compare a revealed
// message against the concealed one.
func Digest(message []byte) string {
	return strconv.FormatUint(xxhash.Sum64(message), 16)
}

// logger prefers a request-scoped logger carried by ctx.
func (s *Service) logger(ctx context.Context, name string) zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = &s.log
	}
	return l.With().Str("carrier", name).Logger()
}

// Conceal hides message in the carrier file data and returns the encoded
// stego carrier.
func (s *Service) Conceal(ctx context.Context, data []byte, name string, message []byte) (*ConcealResult, error) {
	log := s.logger(ctx, name)

	c, err := carrier.Load(data, name, s.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCarrier, err)
	}
	log.Info().
		Str("format", c.Format).
		Str("mode", c.Mode.String()).
		Int("capacity_bits", c.Capacity()).
		Int("message_bytes", len(message)).
		Msg("loaded carrier")
	if c.Lossy {
		log.Warn().Str("format", c.Format).Msg("source format is lossy; the message survives only in the lossless output")
	}

	if !s.codec.Fits(len(c.Samples), c.Layout, len(message)) {
		return nil, &stego.CapacityError{
			RequiredBits:  stego.FramedBits(len(message)),
			AvailableBits: uint64(c.Capacity()),
		}
	}

	samples, err := s.codec.Conceal(c.Samples, c.Layout, message)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := c.Encode(&out, samples); err != nil {
		return nil, fmt.Errorf("failed to encode stego carrier: %w", err)
	}

	res := &ConcealResult{
		Output:       out.Bytes(),
		OutputName:   c.OutputName(name),
		ContentType:  c.ContentType(),
		Carrier:      c.Info(),
		CapacityBits: c.Capacity(),
		FramedBits:   stego.FramedBits(len(message)),
		PSNR:         quality.CalculatePSNR(c.Samples, samples, c.Layout),
		Digest:       Digest(message),
	}
	res.LowQuality = !quality.ValidatePSNR(res.PSNR, s.minPSNR)
	if res.LowQuality {
		log.Warn().
			Float64("psnr", res.PSNR).
			Float64("min_psnr", s.minPSNR).
			Msg("stego carrier quality below threshold")
	}
	log.Info().
		Str("output", res.OutputName).
		Float64("psnr", res.PSNR).
		Str("digest", res.Digest).
		Msg("concealed message")
	return res, nil
}

// Reveal recovers the message hidden in the carrier file data. When text is
// set the message must be valid UTF-8.
func (s *Service) Reveal(ctx context.Context, data []byte, name string, text bool) (*RevealResult, error) {
	log := s.logger(ctx, name)

	c, err := carrier.Load(data, name, s.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCarrier, err)
	}
	log.Info().
		Str("format", c.Format).
		Int("capacity_bits", c.Capacity()).
		Msg("loaded carrier")

	message, err := s.codec.Reveal(c.Samples, c.Layout)
	if err != nil {
		return nil, err
	}
	if text && !utf8.Valid(message) {
		return nil, ErrNotUTF8
	}

	res := &RevealResult{Message: message, Carrier: c.Info(), Digest: Digest(message)}
	log.Info().Int("message_bytes", len(message)).Str("digest", res.Digest).Msg("revealed message")
	return res, nil
}

// Capacity reports how large a message the carrier file can hold.
func (s *Service) Capacity(ctx context.Context, data []byte, name string) (*CapacityReport, error) {
	c, err := carrier.Load(data, name, s.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCarrier, err)
	}
	return &CapacityReport{
		Carrier:         c.Info(),
		CapacityBits:    c.Capacity(),
		MaxMessageBytes: stego.MaxMessageBytes(c.Capacity()),
	}, nil
}
