// Package cli implements the steg command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"steg/config"
	"steg/service"
)

// flag name to config key
var persistentKeys = map[string]string{
	"log-level":     "log.level",
	"log-pretty":    "log.pretty",
	"byte-order":    "codec.byte_order",
	"include-alpha": "image.include_alpha",
	"output-format": "image.output_format",
}

type app struct {
	configFile string

	v   *viper.Viper
	cfg *config.Config
	log zerolog.Logger
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the steg command tree.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "steg",
		Short: "Hide messages in the least significant bits of images and audio",
		Long: `steg conceals an arbitrary message in the least significant bits of an
image or audio carrier and reveals it again. Output carriers are always
written in a lossless format.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "YAML config file")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.Bool("log-pretty", true, "human readable log output instead of JSON")
	flags.String("byte-order", config.DefaultByteOrder, "byte order of the length header (big, little or native)")
	flags.Bool("include-alpha", false, "carry bits in the alpha channel of images")
	flags.String("output-format", "", "image output format (png or tiff); empty keeps TIFF as TIFF and writes PNG otherwise")

	root.AddCommand(
		newConcealCmd(a),
		newRevealCmd(a),
		newCapacityCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	v, err := config.New(a.configFile)
	if err != nil {
		return err
	}
	for name, key := range persistentKeys {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	a.v = v

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = newLogger(cmd.ErrOrStderr(), cfg.Log)
	log.Logger = a.log
	return nil
}

// reload decodes the config again after a subcommand bound its own flags.
func (a *app) reload() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

func (a *app) service() (*service.Service, error) {
	codec, err := a.cfg.NewCodec(a.log)
	if err != nil {
		return nil, err
	}
	return service.New(codec, a.cfg.CarrierOptions(), a.log, service.WithMinPSNR(a.cfg.Quality.MinPSNR)), nil
}
