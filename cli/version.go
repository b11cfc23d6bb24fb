package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"steg/handlers"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "steg %s\n", handlers.Version)
			return err
		},
	}
}
