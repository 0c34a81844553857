package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/spa-booking/internal/config"
	"github.com/jakechorley/spa-booking/pkg/core/matcher"
	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/db"
	"github.com/jakechorley/spa-booking/pkg/redislock"
)

var (
	leavePending = &config.Config{UnassignedPolicy: config.PolicyLeavePending}
	rejectPolicy = &config.Config{UnassignedPolicy: config.PolicyReject}
)

func TestBookAppointment_ReservesMatchedTherapist(t *testing.T) {
	store := newSpa()
	locker, mr := newTestLocker(t)

	result, err := BookAppointment(context.Background(), store, locker, newFinder(store), leavePending, zap.NewNop(), newTestMetrics(), request("cust-1"))
	require.NoError(t, err)

	assert.Equal(t, "staff-a", result.Appointment.TherapistID)
	assert.Equal(t, model.StatusUpcoming, result.Appointment.Status)
	assert.NotEmpty(t, result.Appointment.ID)
	assert.False(t, result.Appointment.CreatedAt.IsZero())
	assert.True(t, result.Match.Found())

	stored, err := store.GetAppointment(context.Background(), result.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Appointment, stored)

	// The slot lock is released once booking completes
	assert.Empty(t, mr.Keys())
}

func TestBookAppointment_SequentialBookingsNeverShareTherapist(t *testing.T) {
	store := newSpa()
	finder := newFinder(store)

	first, err := BookAppointment(context.Background(), store, nil, finder, leavePending, zap.NewNop(), nil, request("cust-1"))
	require.NoError(t, err)
	second, err := BookAppointment(context.Background(), store, nil, finder, leavePending, zap.NewNop(), nil, request("cust-2"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Appointment.TherapistID, second.Appointment.TherapistID)

	// Both therapists are now busy, so the third booking is left unassigned
	third, err := BookAppointment(context.Background(), store, nil, finder, leavePending, zap.NewNop(), nil, request("cust-3"))
	require.NoError(t, err)
	assert.False(t, third.Appointment.IsAssigned())
	assert.Equal(t, model.StatusPending, third.Appointment.Status)
	assert.Equal(t, matcher.ReasonAllBooked, third.Match.Reason)
}

func TestBookAppointment_ConcurrentBookingsNeverShareTherapist(t *testing.T) {
	store := newSpa()
	finder := newFinder(store)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var assigned []string
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := BookAppointment(context.Background(), store, nil, finder, rejectPolicy, zap.NewNop(), nil, request("cust"))
			if err != nil {
				// Losers see either a reservation race or no remaining therapist
				if !errors.Is(err, ErrSlotTaken) && !errors.Is(err, ErrNoTherapistAvailable) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			assigned = append(assigned, result.Appointment.TherapistID)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, len(assigned), 2)
	seen := make(map[string]bool)
	for _, id := range assigned {
		assert.False(t, seen[id], "therapist %s double-booked", id)
		seen[id] = true
	}
}

func TestBookAppointment_RejectPolicy(t *testing.T) {
	store := newSpa()
	req := request("cust-1")
	req.Time = "16:00"

	_, err := BookAppointment(context.Background(), store, nil, newFinder(store), rejectPolicy, zap.NewNop(), nil, req)
	assert.ErrorIs(t, err, ErrNoTherapistAvailable)
	assert.Contains(t, err.Error(), string(matcher.ReasonNoAvailability))
	assert.Empty(t, store.Appointments())
}

func TestBookAppointment_ServiceNotFoundAlwaysRejects(t *testing.T) {
	store := newSpa()
	req := request("cust-1")
	req.ServiceID = "svc-unknown"

	for _, cfg := range []*config.Config{leavePending, rejectPolicy} {
		_, err := BookAppointment(context.Background(), store, nil, newFinder(store), cfg, zap.NewNop(), nil, req)
		assert.ErrorIs(t, err, ErrServiceNotFound)
	}
	assert.Empty(t, store.Appointments())
}

func TestBookAppointment_SlotLockHeld(t *testing.T) {
	store := newSpa()
	locker, _ := newTestLocker(t)
	finder := &mockFinder{}

	release, err := locker.AcquireSlot(context.Background(), testDate, testTime)
	require.NoError(t, err)
	defer release(context.Background())

	_, err = BookAppointment(context.Background(), store, locker, finder, leavePending, zap.NewNop(), nil, request("cust-1"))
	assert.ErrorIs(t, err, redislock.ErrLocked)
	assert.Zero(t, finder.calls)
}

func TestBookAppointment_LostReservationRace(t *testing.T) {
	therapist := model.StaffMember{ID: "staff-a", Active: true}
	finder := &mockFinder{result: matcher.Result{Therapist: &therapist}}
	store := &mockBookingStore{reserveErr: db.ErrConflict}

	_, err := BookAppointment(context.Background(), store, nil, finder, leavePending, zap.NewNop(), nil, request("cust-1"))
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.ErrorIs(t, err, db.ErrConflict)
}

func TestBookAppointment_StoreErrors(t *testing.T) {
	therapist := model.StaffMember{ID: "staff-a", Active: true}

	tests := []struct {
		name   string
		finder *mockFinder
		store  *mockBookingStore
		errMsg string
	}{
		{
			name:   "reserve fails",
			finder: &mockFinder{result: matcher.Result{Therapist: &therapist}},
			store:  &mockBookingStore{reserveErr: errors.New("connection reset")},
			errMsg: "failed to reserve appointment",
		},
		{
			name:   "pending insert fails",
			finder: &mockFinder{result: matcher.Result{Reason: matcher.ReasonAllBooked}},
			store:  &mockBookingStore{insertErr: errors.New("connection reset")},
			errMsg: "failed to insert pending appointment",
		},
		{
			name:   "matcher fails",
			finder: &mockFinder{err: matcher.ErrCollaboratorUnavailable},
			store:  &mockBookingStore{},
			errMsg: "failed to match therapist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BookAppointment(context.Background(), tt.store, nil, tt.finder, leavePending, zap.NewNop(), nil, request("cust-1"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBookAppointment_InvalidRequest(t *testing.T) {
	finder := &mockFinder{}
	store := &mockBookingStore{}

	_, err := BookAppointment(context.Background(), store, nil, finder, leavePending, zap.NewNop(), nil, model.BookingRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, finder.calls)
	assert.Empty(t, store.reserved)
	assert.Empty(t, store.inserted)
}
