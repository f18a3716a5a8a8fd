package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bus-booking-cli/report"
	"bus-booking-cli/store"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your bookings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bookings, err := store.LoadBookings()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(bookings) == 0 {
				fmt.Fprintln(out, "No bookings yet.")
				return nil
			}
			fmt.Fprintln(out, report.History(bookings))
			return nil
		},
	}
}
