package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"steg/models"
)

func newCapacityCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "capacity CARRIER",
		Short: "Report how large a message a carrier can hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read carrier: %w", err)
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			report, err := svc.Capacity(cmd.Context(), data, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(models.CapacityResponse{
					Success:         true,
					Carrier:         report.Carrier,
					CapacityBits:    report.CapacityBits,
					MaxMessageBytes: report.MaxMessageBytes,
				})
			}
			fmt.Fprintf(out, "format:      %s (%s, %d-byte samples)\n",
				report.Carrier.Format, report.Carrier.Mode, report.Carrier.SampleWidth)
			fmt.Fprintf(out, "capacity:    %d bits\n", report.CapacityBits)
			fmt.Fprintf(out, "max message: %d bytes\n", report.MaxMessageBytes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func formatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return strconv.FormatFloat(psnr, 'f', 2, 64)
}
