package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bus-booking-cli/report"
	"bus-booking-cli/seatmap"
)

func newSeatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seats <bus-id>",
		Short: "Show the seat layout of a bus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			logger, closeLog, err := newCLILogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			catalog, err := newCatalog(cfg, logger)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			booked, err := catalog.BookedSeats(ctx, args[0])
			if err != nil {
				return err
			}
			spec := cfg.LayoutSpec()
			spec.Booked = booked
			fmt.Fprintln(cmd.OutOrStdout(), report.SeatLayout(seatmap.New(spec)))
			return nil
		},
	}
}
