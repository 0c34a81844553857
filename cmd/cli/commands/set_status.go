package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/core/services"
)

// SetStatusCmd creates the setStatus command
func SetStatusCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setStatus <appointment_id> <status>",
		Short: "Move an appointment to a new status (upcoming, in-progress, completed, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appt, err := services.UpdateAppointmentStatus(app.Ctx, app.Database, app.Logger, args[0], model.AppointmentStatus(args[1]))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Appointment %s is now %s\n", appt.ID, appt.Status)
			return nil
		},
	}
}
