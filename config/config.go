// Package config loads runtime settings from defaults, an optional YAML file,
// STEG_* environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"steg/carrier"
	"steg/stego"
)

const (
	EnvPrefix = "STEG"

	DefaultAddr            = ":8080"
	DefaultMaxUploadBytes  = 32 << 20
	DefaultShutdownTimeout = 10 * time.Second
	DefaultLogLevel        = "info"
	DefaultByteOrder       = "big"
	DefaultMinPSNR         = 30.0
)

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Codec   CodecConfig   `mapstructure:"codec"`
	Image   ImageConfig   `mapstructure:"image"`
	Quality QualityConfig `mapstructure:"quality"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type CodecConfig struct {
	// ByteOrder of the length header: big, little or native.
	ByteOrder string `mapstructure:"byte_order"`
}

type QualityConfig struct {
	// MinPSNR in dB below which conceal warns. Zero disables the check.
	MinPSNR float64 `mapstructure:"min_psnr"`
}

type ImageConfig struct {
	IncludeAlpha bool   `mapstructure:"include_alpha"`
	OutputFormat string `mapstructure:"output_format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.pretty", true)
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("codec.byte_order", DefaultByteOrder)
	v.SetDefault("image.include_alpha", false)
	v.SetDefault("image.output_format", "")
	v.SetDefault("quality.min_psnr", DefaultMinPSNR)
}

// New returns a viper instance with defaults and environment binding. If
// path is not empty the file is read as well.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}
	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid `log.level`; given: %q", cfg.Log.Level)
	}
	if _, err := stego.ParseByteOrder(cfg.Codec.ByteOrder); err != nil {
		return fmt.Errorf("invalid `codec.byte_order`; expected: big, little or native, given: %q", cfg.Codec.ByteOrder)
	}
	if err := cfg.CarrierOptions().Validate(); err != nil {
		return fmt.Errorf("invalid `image.output_format`: %w", err)
	}
	if cfg.Quality.MinPSNR < 0 {
		return fmt.Errorf("invalid `quality.min_psnr`; expected: >= 0, given: %v", cfg.Quality.MinPSNR)
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid `server.max_upload_bytes`; expected: > 0, given: %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid `server.shutdown_timeout`; expected: >= 0, given: %v", cfg.Server.ShutdownTimeout)
	}
	return nil
}

// CarrierOptions returns the carrier loading options.
func (cfg *Config) CarrierOptions() carrier.Options {
	return carrier.Options{
		IncludeAlpha: cfg.Image.IncludeAlpha,
		ImageOutput:  cfg.Image.OutputFormat,
	}
}

// NewCodec builds the stego codec described by the config.
func (cfg *Config) NewCodec(log zerolog.Logger) (*stego.Codec, error) {
	order, err := stego.ParseByteOrder(cfg.Codec.ByteOrder)
	if err != nil {
		return nil, err
	}
	return stego.NewCodec(stego.WithByteOrder(order), stego.WithLogger(log)), nil
}
