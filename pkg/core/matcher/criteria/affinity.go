package criteria

import (
	"context"

	"github.com/jakechorley/spa-booking/pkg/core/matcher"
	"github.com/jakechorley/spa-booking/pkg/core/model"
)

// CompletedAppointmentCounter counts finished visits between a customer and a therapist
type CompletedAppointmentCounter interface {
	CountCompletedAppointments(ctx context.Context, customerID, therapistID string) (int, error)
}

// AffinityCriterion favours therapists the customer has seen before.
//
// Score:
//   - 0 if the customer has no completed appointments with the therapist
//   - base + perVisit × visits otherwise
//
// With the default weights any prior relationship (≥110) outweighs the
// largest possible workload score (50).
type AffinityCriterion struct {
	ledger   CompletedAppointmentCounter
	base     int
	perVisit int
}

// NewAffinityCriterion creates a new AffinityCriterion with the given weights
func NewAffinityCriterion(ledger CompletedAppointmentCounter, base, perVisit int) *AffinityCriterion {
	return &AffinityCriterion{
		ledger:   ledger,
		base:     base,
		perVisit: perVisit,
	}
}

func (c *AffinityCriterion) Name() string {
	return "Affinity"
}

func (c *AffinityCriterion) Score(ctx context.Context, req model.BookingRequest, candidate model.StaffMember) (int, error) {
	visits, err := c.ledger.CountCompletedAppointments(ctx, req.CustomerID, candidate.ID)
	if err != nil {
		return 0, err
	}
	return affinityScore(visits, c.base, c.perVisit), nil
}

func affinityScore(visits, base, perVisit int) int {
	if visits <= 0 {
		return 0
	}
	return base + perVisit*visits
}

var _ matcher.Criterion = (*AffinityCriterion)(nil)
