package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRevealCmd(a *app) *cobra.Command {
	var text bool

	cmd := &cobra.Command{
		Use:   "reveal CARRIER OUTPUT",
		Short: "Recover a message hidden in a carrier",
		Long: `reveal recovers the message hidden in CARRIER and writes it to OUTPUT,
or to stdout when OUTPUT is -. With --text the message must be valid UTF-8.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read carrier: %w", err)
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.Reveal(cmd.Context(), data, args[0], text)
			if err != nil {
				return err
			}

			if args[1] == "-" {
				_, err := cmd.OutOrStdout().Write(res.Message)
				return err
			}
			if err := os.WriteFile(args[1], res.Message, 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revealed %d bytes to %s (digest %s)\n", len(res.Message), args[1], res.Digest)
			return nil
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "require the message to be UTF-8 text")
	return cmd
}
