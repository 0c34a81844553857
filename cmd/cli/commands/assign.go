package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/spa-booking/pkg/core/services"
)

// AssignCmd creates the assign command
func AssignCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <appointment_id> <therapist_id>",
		Short: "Manually assign a therapist to a pending appointment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appt, err := services.AssignTherapist(app.Ctx, app.Database, app.Logger, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Appointment %s assigned to %s (%s)\n", appt.ID, appt.TherapistID, appt.Status)
			return nil
		},
	}
}
