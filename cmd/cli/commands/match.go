package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/spa-booking/pkg/core/matcher"
	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/core/services"
)

// MatchCmd creates the match command
func MatchCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <service_id> <customer_id> <date> <time>",
		Short: "Show which therapist would be assigned to a booking, without booking",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := requestFromArgs(args)

			result, err := services.MatchTherapist(app.Ctx, app.Matcher, app.Logger, app.Metrics, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nMatch for %s on %s at %s\n\n", req.ServiceID, req.Date, req.Time)
			if !result.Found() {
				fmt.Fprintf(out, "No therapist available (%s)\n", result.Reason)
				return nil
			}

			fmt.Fprintf(out, "Therapist: %s (%s)\n\n", result.Therapist.Name, result.Therapist.ID)
			printCandidates(out, result.Candidates)
			return nil
		},
	}
}

func requestFromArgs(args []string) model.BookingRequest {
	return model.BookingRequest{
		ServiceID:  args[0],
		CustomerID: args[1],
		Date:       args[2],
		Time:       args[3],
	}
}

// printCandidates writes the ranked candidates with their per-criterion scores
func printCandidates(out io.Writer, candidates []matcher.ScoredCandidate) {
	if len(candidates) == 0 {
		return
	}
	fmt.Fprintf(out, "Candidates:\n")
	for i, c := range candidates {
		fmt.Fprintf(out, "  %d. %-20s %4d  %s\n", i+1, c.Staff.ID, c.Score, formatBreakdown(c.Breakdown))
	}
	fmt.Fprintln(out)
}

// formatBreakdown renders criterion scores sorted by name, e.g. "Affinity=110 Workload=40"
func formatBreakdown(breakdown map[string]int) string {
	if len(breakdown) == 0 {
		return "(unscored)"
	}
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, breakdown[name]))
	}
	return strings.Join(parts, " ")
}
