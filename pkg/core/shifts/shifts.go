package shifts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/jakechorley/spa-booking/pkg/core/model"
)

// slotNamespace seeds deterministic slot ids so regenerating a window yields the same ids
var slotNamespace = uuid.MustParse("6f1c2a3e-8d4b-4e5f-9a7c-1b2d3e4f5a6b")

// Pattern is a recurring working window for a staff member
type Pattern struct {
	StaffID string

	// RRule selects the working days (DTSTART is ignored and replaced by the expansion start)
	RRule string

	// Start and End bound the working window on each day (HH:MM, End exclusive)
	Start string
	End   string

	// AllowedServiceIDs restricts the generated slots (empty = all services)
	AllowedServiceIDs []string
}

// Expand generates availability slots for every occurrence of the pattern between
// from and to (inclusive calendar days). A slot is emitted at each slotLength step
// whose full length fits inside the working window.
func Expand(pattern Pattern, from, to time.Time, slotLength time.Duration) ([]model.AvailabilitySlot, error) {
	if slotLength <= 0 {
		return nil, fmt.Errorf("slot length must be positive, got %s", slotLength)
	}

	windowStart, err := time.Parse(model.TimeLayout, pattern.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q: %w", pattern.Start, err)
	}
	windowEnd, err := time.Parse(model.TimeLayout, pattern.End)
	if err != nil {
		return nil, fmt.Errorf("invalid end time %q: %w", pattern.End, err)
	}
	if !windowStart.Before(windowEnd) {
		return nil, fmt.Errorf("start %s must be before end %s", pattern.Start, pattern.End)
	}

	rule, err := rrule.StrToRRule(pattern.RRule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rrule: %w", err)
	}

	fromDay := truncateToDay(from)
	toDay := truncateToDay(to)
	if toDay.Before(fromDay) {
		return nil, fmt.Errorf("range end %s is before start %s", toDay.Format(model.DateLayout), fromDay.Format(model.DateLayout))
	}

	rule.DTStart(fromDay)
	days := rule.Between(fromDay, toDay, true)

	var slots []model.AvailabilitySlot
	for _, day := range days {
		date := day.Format(model.DateLayout)
		for t := windowStart; !t.Add(slotLength).After(windowEnd); t = t.Add(slotLength) {
			slotTime := t.Format(model.TimeLayout)
			slots = append(slots, model.AvailabilitySlot{
				ID:                SlotID(pattern.StaffID, date, slotTime),
				StaffID:           pattern.StaffID,
				Date:              date,
				Time:              slotTime,
				AllowedServiceIDs: pattern.AllowedServiceIDs,
			})
		}
	}

	return slots, nil
}

// SlotID returns the deterministic id for a staff member's slot
func SlotID(staffID, date, slotTime string) string {
	return uuid.NewSHA1(slotNamespace, []byte(staffID+"|"+date+"|"+slotTime)).String()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
