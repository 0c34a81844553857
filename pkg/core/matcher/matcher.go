package matcher

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/db"
)

// Matcher selects the best therapist for a booking request.
// It holds no mutable state and re-reads its collaborators on every call,
// so a single Matcher may be shared across goroutines.
type Matcher struct {
	catalog   db.ServiceCatalog
	directory db.StaffDirectory
	occupancy OccupancyReader
	criteria  []Criterion
	logger    *zap.Logger
}

// New creates a Matcher scoring candidates with the given criteria
func New(catalog db.ServiceCatalog, directory db.StaffDirectory, occupancy OccupancyReader, criteria []Criterion, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		catalog:   catalog,
		directory: directory,
		occupancy: occupancy,
		criteria:  criteria,
		logger:    logger,
	}
}

// FindBestTherapist resolves the best therapist for the request.
//
// A missing match is reported through Result.Reason, never as an error.
// Errors are only returned when a collaborator read fails, and wrap ErrCollaboratorUnavailable.
func (m *Matcher) FindBestTherapist(ctx context.Context, req model.BookingRequest) (Result, error) {
	logger := m.logger.With(
		zap.String("service_id", req.ServiceID),
		zap.String("customer_id", req.CustomerID),
		zap.String("date", req.Date),
		zap.String("time", req.Time))

	// Step 1: Service must exist and be active
	service, err := m.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			logger.Debug("Service not found")
			return noMatch(ReasonServiceNotFound), nil
		}
		return Result{}, fmt.Errorf("%w: failed to get service: %w", ErrCollaboratorUnavailable, err)
	}
	if !service.Active {
		logger.Debug("Service is inactive")
		return noMatch(ReasonServiceNotFound), nil
	}

	// Step 2: Eligibility filter
	candidates, slotCount, err := m.eligibleStaff(ctx, req, logger)
	if err != nil {
		return Result{}, err
	}
	if slotCount == 0 {
		logger.Debug("No availability slots")
		return noMatch(ReasonNoAvailability), nil
	}
	if len(candidates) == 0 {
		logger.Debug("No qualified staff", zap.Int("slot_count", slotCount))
		return noMatch(ReasonNoQualifiedStaff), nil
	}

	// Step 3: Occupancy filter
	candidates, err = m.removeOccupied(ctx, req, candidates)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		logger.Debug("All qualified staff are booked")
		return noMatch(ReasonAllBooked), nil
	}

	// Step 4: Single candidate needs no scoring
	if len(candidates) == 1 {
		therapist := candidates[0]
		logger.Debug("Single candidate", zap.String("therapist_id", therapist.ID))
		return Result{
			Therapist:  &therapist,
			Candidates: []ScoredCandidate{{Staff: therapist}},
		}, nil
	}

	// Step 5: Score and rank
	scored, err := m.score(ctx, req, candidates)
	if err != nil {
		return Result{}, err
	}
	rank(scored)

	best := scored[0].Staff
	logger.Debug("Selected therapist",
		zap.String("therapist_id", best.ID),
		zap.Int("score", scored[0].Score),
		zap.Int("candidate_count", len(scored)))

	return Result{Therapist: &best, Candidates: scored}, nil
}

// eligibleStaff returns active staff with a usable slot for the request, deduplicated by id
// in first-seen order, together with the number of well-formed slots found.
func (m *Matcher) eligibleStaff(ctx context.Context, req model.BookingRequest, logger *zap.Logger) ([]model.StaffMember, int, error) {
	slots, err := m.directory.ListAvailabilitySlots(ctx, req.Date, req.Time)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to list availability slots: %w", ErrCollaboratorUnavailable, err)
	}

	seen := make(map[string]bool)
	var candidates []model.StaffMember
	slotCount := 0

	for _, slot := range slots {
		if reason := malformedSlotReason(slot, req); reason != "" {
			logger.Warn("Skipping malformed availability slot",
				zap.String("slot_id", slot.ID),
				zap.String("staff_id", slot.StaffID),
				zap.String("reason", reason))
			continue
		}
		slotCount++

		if seen[slot.StaffID] || !slot.AllowsService(req.ServiceID) {
			continue
		}

		staff, err := m.directory.GetStaffMember(ctx, slot.StaffID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				logger.Warn("Skipping slot for unknown staff member", zap.String("staff_id", slot.StaffID))
				continue
			}
			return nil, 0, fmt.Errorf("%w: failed to get staff member %s: %w", ErrCollaboratorUnavailable, slot.StaffID, err)
		}
		if !staff.Active {
			continue
		}

		seen[staff.ID] = true
		candidates = append(candidates, staff)
	}

	return candidates, slotCount, nil
}

// malformedSlotReason returns a description of what is wrong with the slot, or "" if it is usable
func malformedSlotReason(slot model.AvailabilitySlot, req model.BookingRequest) string {
	if slot.StaffID == "" {
		return "missing staff id"
	}
	if _, err := time.Parse(model.TimeLayout, slot.Time); err != nil {
		return "invalid time"
	}
	if slot.Date != req.Date || slot.Time != req.Time {
		return "slot does not match requested date and time"
	}
	return ""
}

func (m *Matcher) removeOccupied(ctx context.Context, req model.BookingRequest, candidates []model.StaffMember) ([]model.StaffMember, error) {
	occupied, err := m.occupancy.ListOccupiedTherapists(ctx, req.Date, req.Time, model.OccupancyExcludedStatuses)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list occupied therapists: %w", ErrCollaboratorUnavailable, err)
	}

	blocked := make(map[string]bool, len(occupied))
	for _, id := range occupied {
		blocked[id] = true
	}

	free := make([]model.StaffMember, 0, len(candidates))
	for _, staff := range candidates {
		if !blocked[staff.ID] {
			free = append(free, staff)
		}
	}
	return free, nil
}

func (m *Matcher) score(ctx context.Context, req model.BookingRequest, candidates []model.StaffMember) ([]ScoredCandidate, error) {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, staff := range candidates {
		candidate := ScoredCandidate{
			Staff:     staff,
			Breakdown: make(map[string]int, len(m.criteria)),
		}
		for _, criterion := range m.criteria {
			value, err := criterion.Score(ctx, req, staff)
			if err != nil {
				return nil, fmt.Errorf("%w: criterion %s failed for %s: %w", ErrCollaboratorUnavailable, criterion.Name(), staff.ID, err)
			}
			candidate.Breakdown[criterion.Name()] = value
			candidate.Score += value
		}
		scored = append(scored, candidate)
	}
	return scored, nil
}

// rank sorts candidates by descending score, breaking ties by lowest staff id
func rank(candidates []ScoredCandidate) {
	slices.SortStableFunc(candidates, func(a, b ScoredCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Staff.ID, b.Staff.ID)
	})
}
