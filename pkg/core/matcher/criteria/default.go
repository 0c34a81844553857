package criteria

import "github.com/jakechorley/spa-booking/pkg/core/matcher"

// Ledger is the appointment history needed by the default criteria
type Ledger interface {
	CompletedAppointmentCounter
	DailyLoadCounter
}

// Default returns the standard affinity and workload criteria
func Default(ledger Ledger, weights matcher.Weights) []matcher.Criterion {
	return []matcher.Criterion{
		NewAffinityCriterion(ledger, weights.AffinityBase, weights.AffinityPerVisit),
		NewWorkloadCriterion(ledger, weights.WorkloadBase, weights.WorkloadPerAppointment),
	}
}
