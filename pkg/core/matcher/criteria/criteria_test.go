package criteria

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/spa-booking/pkg/core/matcher"
	"github.com/jakechorley/spa-booking/pkg/core/model"
)

// mockLedger implements Ledger for testing
type mockLedger struct {
	completed       map[string]int // therapist id -> completed visits with the customer
	daily           map[string]int // therapist id -> appointments on the date
	completedErr    error
	dailyErr        error
	excludeStatuses []model.AppointmentStatus
}

func (m *mockLedger) CountCompletedAppointments(ctx context.Context, customerID, therapistID string) (int, error) {
	if m.completedErr != nil {
		return 0, m.completedErr
	}
	return m.completed[therapistID], nil
}

func (m *mockLedger) CountActiveAppointmentsOnDate(ctx context.Context, therapistID, date string, excludeStatuses []model.AppointmentStatus) (int, error) {
	m.excludeStatuses = excludeStatuses
	if m.dailyErr != nil {
		return 0, m.dailyErr
	}
	return m.daily[therapistID], nil
}

var testRequest = model.BookingRequest{ServiceID: "svc-1", CustomerID: "cust-1", Date: "2025-06-10", Time: "14:00"}

func TestAffinityScore(t *testing.T) {
	tests := []struct {
		name     string
		visits   int
		expected int
	}{
		{"no history", 0, 0},
		{"one visit", 1, 110},
		{"two visits", 2, 120},
		{"ten visits", 10, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, affinityScore(tt.visits, 100, 10))
		})
	}
}

func TestWorkloadScore(t *testing.T) {
	tests := []struct {
		name     string
		load     int
		expected int
	}{
		{"idle", 0, 50},
		{"three appointments", 3, 20},
		{"five appointments floors at zero", 5, 0},
		{"eight appointments stays at zero", 8, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, workloadScore(tt.load, 50, 10))
		})
	}
}

func TestAffinityCriterion_Score(t *testing.T) {
	ledger := &mockLedger{completed: map[string]int{"B": 2}}
	c := NewAffinityCriterion(ledger, 100, 10)

	score, err := c.Score(context.Background(), testRequest, model.StaffMember{ID: "B"})
	require.NoError(t, err)
	assert.Equal(t, 120, score)

	score, err = c.Score(context.Background(), testRequest, model.StaffMember{ID: "A"})
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestWorkloadCriterion_ExcludesOnlyCancelled(t *testing.T) {
	ledger := &mockLedger{daily: map[string]int{"B": 3}}
	c := NewWorkloadCriterion(ledger, 50, 10)

	score, err := c.Score(context.Background(), testRequest, model.StaffMember{ID: "B"})
	require.NoError(t, err)
	assert.Equal(t, 20, score)
	assert.Equal(t, []model.AppointmentStatus{model.StatusCancelled}, ledger.excludeStatuses)
}

func TestCriteria_PropagateLedgerErrors(t *testing.T) {
	ledgerErr := errors.New("connection reset")
	ledger := &mockLedger{completedErr: ledgerErr, dailyErr: ledgerErr}

	for _, c := range Default(ledger, matcher.DefaultWeights()) {
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.Score(context.Background(), testRequest, model.StaffMember{ID: "A"})
			assert.ErrorIs(t, err, ledgerErr)
		})
	}
}

func TestDefault_UsesWeights(t *testing.T) {
	ledger := &mockLedger{
		completed: map[string]int{"A": 1},
		daily:     map[string]int{"A": 1},
	}
	weights := matcher.Weights{AffinityBase: 7, AffinityPerVisit: 3, WorkloadBase: 20, WorkloadPerAppointment: 5}

	total := 0
	names := []string{}
	for _, c := range Default(ledger, weights) {
		score, err := c.Score(context.Background(), testRequest, model.StaffMember{ID: "A"})
		require.NoError(t, err)
		total += score
		names = append(names, c.Name())
	}

	// Affinity: 7 + 3×1 = 10, Workload: 20 − 5×1 = 15
	assert.Equal(t, 25, total)
	assert.Equal(t, []string{"Affinity", "Workload"}, names)
}
