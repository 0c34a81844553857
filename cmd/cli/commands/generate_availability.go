package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/core/services"
)

// GenerateAvailabilityCmd creates the generateAvailability command
func GenerateAvailabilityCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generateAvailability <from> <to>",
		Short: "Generate availability slots from the configured shift patterns",
		Long:  "Expand every shift pattern in the config between two dates (YYYY-MM-DD, inclusive) and store the slots. Existing slots are kept.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseDateRange(args[0], args[1])
			if err != nil {
				return err
			}

			patterns := app.Cfg.Patterns()
			if len(patterns) == 0 {
				return fmt.Errorf("no shift patterns configured")
			}

			result, err := services.GenerateAvailability(app.Ctx, app.Database, app.Logger, patterns, from, to, app.Cfg.SlotLength())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Availability generated for %s to %s\n\n", args[0], args[1])
			fmt.Fprintf(out, "Slots generated: %d\n", result.Generated)
			fmt.Fprintf(out, "Slots inserted:  %d\n", result.Inserted)
			fmt.Fprintf(out, "Already present: %d\n\n", result.Generated-result.Inserted)
			return nil
		},
	}
}

func parseDateRange(fromArg, toArg string) (time.Time, time.Time, error) {
	from, err := time.Parse(model.DateLayout, fromArg)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from must be a date (YYYY-MM-DD): %w", err)
	}
	to, err := time.Parse(model.DateLayout, toArg)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to must be a date (YYYY-MM-DD): %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to (%s) is before from (%s)", toArg, fromArg)
	}
	return from, to, nil
}
