package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"bus-booking-cli/booking"
	"bus-booking-cli/model"
	"bus-booking-cli/report"
	"bus-booking-cli/store"
)

func newCancelCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel a booking",
		Long: fmt.Sprintf(`Cancel a confirmed booking. A %d%% cancellation fee is kept and the
rest is refunded.`, booking.CancellationFee),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			b, err := store.FindBooking(args[0])
			if err != nil {
				return err
			}
			if b.Status == model.BookingCancelled {
				return fmt.Errorf("%w: %s", booking.ErrAlreadyCancelled, b.Id)
			}

			fmt.Fprintln(out, report.Receipt(b))
			if !yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Cancel %s and refund ₹%d", b.Id, booking.Refund(b.Fare)),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					if errors.Is(err, promptui.ErrAbort) {
						fmt.Fprintln(out, "Booking kept.")
						return nil
					}
					return err
				}
			}

			cancelled, err := store.CancelBooking(b.Id, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Booking %s cancelled. ₹%d will be refunded (%d%% cancellation fee).\n",
				cancelled.Id, cancelled.Refund, booking.CancellationFee)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
