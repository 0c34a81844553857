package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/core/services"
)

// BookCmd creates the book command
func BookCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "book <service_id> <customer_id> <date> <time>",
		Short: "Book an appointment, assigning the best available therapist",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := requestFromArgs(args)

			result, err := services.BookAppointment(app.Ctx, app.Database, app.Locker, app.Matcher, app.Cfg, app.Logger, app.Metrics, req)
			if err != nil {
				return fmt.Errorf("booking failed: %w", err)
			}

			out := cmd.OutOrStdout()
			appt := result.Appointment
			if appt.Status == model.StatusPending {
				fmt.Fprintf(out, "\n⚠️  Appointment created without a therapist (%s)\n\n", result.Match.Reason)
			} else {
				fmt.Fprintf(out, "\n✓ Appointment booked!\n\n")
			}
			fmt.Fprintf(out, "Appointment ID: %s\n", appt.ID)
			fmt.Fprintf(out, "Status:         %s\n", appt.Status)
			if appt.IsAssigned() {
				fmt.Fprintf(out, "Therapist:      %s\n", appt.TherapistID)
			}
			fmt.Fprintf(out, "When:           %s %s\n\n", appt.Date, appt.Time)
			return nil
		},
	}
}
