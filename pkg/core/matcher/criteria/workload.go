package criteria

import (
	"context"

	"github.com/jakechorley/spa-booking/pkg/core/matcher"
	"github.com/jakechorley/spa-booking/pkg/core/model"
)

// DailyLoadCounter counts a therapist's appointments on a day
type DailyLoadCounter interface {
	CountActiveAppointmentsOnDate(ctx context.Context, therapistID, date string, excludeStatuses []model.AppointmentStatus) (int, error)
}

// WorkloadCriterion spreads bookings across lightly loaded therapists.
//
// Score:
//   - base − perAppointment × (non-cancelled appointments on the requested date)
//   - floored at 0, so heavily loaded therapists are deprioritised but never penalised
type WorkloadCriterion struct {
	ledger         DailyLoadCounter
	base           int
	perAppointment int
}

// NewWorkloadCriterion creates a new WorkloadCriterion with the given weights
func NewWorkloadCriterion(ledger DailyLoadCounter, base, perAppointment int) *WorkloadCriterion {
	return &WorkloadCriterion{
		ledger:         ledger,
		base:           base,
		perAppointment: perAppointment,
	}
}

func (c *WorkloadCriterion) Name() string {
	return "Workload"
}

func (c *WorkloadCriterion) Score(ctx context.Context, req model.BookingRequest, candidate model.StaffMember) (int, error) {
	load, err := c.ledger.CountActiveAppointmentsOnDate(ctx, candidate.ID, req.Date, model.WorkloadExcludedStatuses)
	if err != nil {
		return 0, err
	}
	return workloadScore(load, c.base, c.perAppointment), nil
}

func workloadScore(load, base, perAppointment int) int {
	return max(0, base-perAppointment*load)
}

var _ matcher.Criterion = (*WorkloadCriterion)(nil)
