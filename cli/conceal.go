package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newConcealCmd(a *app) *cobra.Command {
	var text bool

	cmd := &cobra.Command{
		Use:   "conceal MESSAGE CARRIER OUTPUT",
		Short: "Hide a message in a carrier",
		Long: `conceal hides MESSAGE in the image or audio file CARRIER and writes the
stego carrier to OUTPUT. MESSAGE is a file path, or - to read stdin. With
--text MESSAGE is taken as the literal message.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd.InOrStdin(), args[0], text)
			if err != nil {
				return err
			}
			carrierData, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read carrier: %w", err)
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.Conceal(cmd.Context(), carrierData, args[1], message)
			if err != nil {
				return err
			}

			ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(args[2])), ".")
			if ext != res.Carrier.OutputFormat && !(ext == "tif" && res.Carrier.OutputFormat == "tiff") {
				a.log.Warn().
					Str("output", args[2]).
					Str("format", res.Carrier.OutputFormat).
					Msg("output extension does not match the written format")
			}
			if err := os.WriteFile(args[2], res.Output, 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "concealed %d bytes in %s (%d of %d bits, PSNR %s dB, digest %s)\n",
				len(message), args[2], res.FramedBits, res.CapacityBits, formatPSNR(res.PSNR), res.Digest)
			return nil
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "treat MESSAGE as the message itself")
	return cmd
}

func readMessage(stdin io.Reader, arg string, text bool) ([]byte, error) {
	switch {
	case text:
		return []byte(arg), nil
	case arg == "-":
		message, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read message from stdin: %w", err)
		}
		return message, nil
	default:
		message, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read message: %w", err)
		}
		return message, nil
	}
}
