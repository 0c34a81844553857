package matcher

import (
	"context"
	"errors"

	"github.com/jakechorley/spa-booking/pkg/core/model"
)

// ErrCollaboratorUnavailable marks failures of the catalog, directory or ledger reads.
// The underlying error is wrapped alongside it.
var ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

// OccupancyReader lists therapists already holding a slot
type OccupancyReader interface {
	ListOccupiedTherapists(ctx context.Context, date, slotTime string, excludeStatuses []model.AppointmentStatus) ([]string, error)
}

// NoMatchReason explains why no therapist was selected
type NoMatchReason string

const (
	ReasonNone             NoMatchReason = ""
	ReasonServiceNotFound  NoMatchReason = "service_not_found"
	ReasonNoAvailability   NoMatchReason = "no_availability"
	ReasonNoQualifiedStaff NoMatchReason = "no_qualified_staff"
	ReasonAllBooked        NoMatchReason = "all_booked"
)

// Criterion scores a candidate for a booking request.
// Scores from all criteria are summed; the highest total wins.
type Criterion interface {
	// Name returns a human-readable identifier for this criterion
	Name() string

	// Score returns this criterion's contribution for the candidate.
	// An error aborts the whole match.
	Score(ctx context.Context, req model.BookingRequest, candidate model.StaffMember) (int, error)
}

// ScoredCandidate is a candidate that survived filtering, with its score breakdown
type ScoredCandidate struct {
	Staff model.StaffMember

	// Score is the sum of all criterion scores (0 when scoring was skipped)
	Score int

	// Breakdown maps criterion name to its contribution. Nil when scoring was skipped.
	Breakdown map[string]int
}

// Result is the outcome of a match.
// Exactly one of Therapist or Reason is set.
type Result struct {
	Therapist *model.StaffMember
	Reason    NoMatchReason

	// Candidates in ranked order (best first)
	Candidates []ScoredCandidate
}

// Found returns true if a therapist was selected
func (r Result) Found() bool {
	return r.Therapist != nil
}

func noMatch(reason NoMatchReason) Result {
	return Result{Reason: reason}
}
