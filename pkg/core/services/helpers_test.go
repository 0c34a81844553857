package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jakechorley/spa-booking/pkg/core/matcher"
	"github.com/jakechorley/spa-booking/pkg/core/matcher/criteria"
	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/memstore"
	"github.com/jakechorley/spa-booking/pkg/observability/metrics"
	"github.com/jakechorley/spa-booking/pkg/redislock"
)

const (
	testDate = "2025-06-10"
	testTime = "10:00"
)

// newSpa seeds a store with one service and two therapists available at the test slot
func newSpa() *memstore.Store {
	store := memstore.New()
	store.PutService(model.Service{ID: "svc-massage", Name: "Massage", DurationMinutes: 60, Active: true})
	for _, id := range []string{"staff-a", "staff-b"} {
		store.PutStaffMember(model.StaffMember{ID: id, Name: id, Role: model.RoleTherapist, Active: true})
		store.PutSlot(model.AvailabilitySlot{ID: id + "-slot", StaffID: id, Date: testDate, Time: testTime})
	}
	return store
}

func newFinder(store *memstore.Store) *matcher.Matcher {
	return matcher.New(store, store, store, criteria.Default(store, matcher.DefaultWeights()), zap.NewNop())
}

func newTestMetrics() *metrics.MatchMetrics {
	return metrics.NewMatchMetrics(prometheus.NewRegistry())
}

func newTestLocker(t *testing.T) (*redislock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redislock.New(rdb, 5*time.Second), mr
}

func request(customerID string) model.BookingRequest {
	return model.BookingRequest{ServiceID: "svc-massage", CustomerID: customerID, Date: testDate, Time: testTime}
}

// mockFinder implements TherapistFinder for testing
type mockFinder struct {
	result matcher.Result
	err    error
	calls  int
}

func (m *mockFinder) FindBestTherapist(ctx context.Context, req model.BookingRequest) (matcher.Result, error) {
	m.calls++
	if m.err != nil {
		return matcher.Result{}, m.err
	}
	return m.result, nil
}

// mockBookingStore implements BookAppointmentStore for testing
type mockBookingStore struct {
	reserved   []model.Appointment
	inserted   []model.Appointment
	reserveErr error
	insertErr  error
}

func (m *mockBookingStore) ReserveAppointment(ctx context.Context, appt model.Appointment) error {
	if m.reserveErr != nil {
		return m.reserveErr
	}
	m.reserved = append(m.reserved, appt)
	return nil
}

func (m *mockBookingStore) InsertAppointment(ctx context.Context, appt model.Appointment) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, appt)
	return nil
}
