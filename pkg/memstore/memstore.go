// Package memstore is an in-process implementation of db.Database for tests and dry runs.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/db"
)

// Store holds services, staff, availability and appointments in memory
type Store struct {
	mu           sync.RWMutex
	services     map[string]model.Service
	staff        map[string]model.StaffMember
	slots        map[string]model.AvailabilitySlot
	appointments map[string]model.Appointment
}

// New creates an empty store
func New() *Store {
	return &Store{
		services:     make(map[string]model.Service),
		staff:        make(map[string]model.StaffMember),
		slots:        make(map[string]model.AvailabilitySlot),
		appointments: make(map[string]model.Appointment),
	}
}

// PutService adds or replaces a service
func (s *Store) PutService(svc model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
}

// PutStaffMember adds or replaces a staff member
func (s *Store) PutStaffMember(member model.StaffMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[member.ID] = member
}

// PutSlot adds or replaces an availability slot
func (s *Store) PutSlot(slot model.AvailabilitySlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot.ID] = slot
}

// PutAppointment adds or replaces an appointment without any occupancy check
func (s *Store) PutAppointment(appt model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[appt.ID] = appt
}

// Appointments returns a snapshot of all appointments ordered by id
func (s *Store) Appointments() []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) GetService(_ context.Context, serviceID string) (model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[serviceID]
	if !ok {
		return model.Service{}, fmt.Errorf("service %s: %w", serviceID, db.ErrNotFound)
	}
	return svc, nil
}

func (s *Store) GetStaffMember(_ context.Context, staffID string) (model.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.staff[staffID]
	if !ok {
		return model.StaffMember{}, fmt.Errorf("staff member %s: %w", staffID, db.ErrNotFound)
	}
	return member, nil
}

// ListAvailabilitySlots returns the slots at date and time ordered by id
func (s *Store) ListAvailabilitySlots(_ context.Context, date, slotTime string) ([]model.AvailabilitySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.AvailabilitySlot
	for _, slot := range s.slots {
		if slot.Date == date && slot.Time == slotTime {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) InsertAvailabilitySlots(_ context.Context, slots []model.AvailabilitySlot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, slot := range slots {
		if _, exists := s.slots[slot.ID]; exists {
			continue
		}
		s.slots[slot.ID] = slot
		inserted++
	}
	return inserted, nil
}

func (s *Store) ListOccupiedTherapists(_ context.Context, date, slotTime string, excludeStatuses []model.AppointmentStatus) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, a := range s.appointments {
		if a.Date != date || a.Time != slotTime || !a.IsAssigned() || slices.Contains(excludeStatuses, a.Status) {
			continue
		}
		if !slices.Contains(ids, a.TherapistID) {
			ids = append(ids, a.TherapistID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) CountCompletedAppointments(_ context.Context, customerID, therapistID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.appointments {
		if a.CustomerID == customerID && a.TherapistID == therapistID && a.Status == model.StatusCompleted {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountActiveAppointmentsOnDate(_ context.Context, therapistID, date string, excludeStatuses []model.AppointmentStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.appointments {
		if a.TherapistID == therapistID && a.Date == date && !slices.Contains(excludeStatuses, a.Status) {
			count++
		}
	}
	return count, nil
}

// ReserveAppointment inserts the appointment unless the therapist already holds the slot.
// The check and insert happen under one write lock.
func (s *Store) ReserveAppointment(_ context.Context, appt model.Appointment) error {
	if !appt.IsAssigned() {
		return fmt.Errorf("cannot reserve appointment %s without a therapist", appt.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slotTaken(appt.TherapistID, appt.Date, appt.Time, "") {
		return fmt.Errorf("therapist %s at %s %s: %w", appt.TherapistID, appt.Date, appt.Time, db.ErrConflict)
	}
	if _, exists := s.appointments[appt.ID]; exists {
		return fmt.Errorf("appointment %s already exists", appt.ID)
	}
	s.appointments[appt.ID] = appt
	return nil
}

func (s *Store) InsertAppointment(_ context.Context, appt model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.appointments[appt.ID]; exists {
		return fmt.Errorf("appointment %s already exists", appt.ID)
	}
	s.appointments[appt.ID] = appt
	return nil
}

func (s *Store) AssignAppointment(_ context.Context, appointmentID, therapistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[appointmentID]
	if !ok {
		return fmt.Errorf("appointment %s: %w", appointmentID, db.ErrNotFound)
	}
	if appt.Status != model.StatusPending {
		return fmt.Errorf("appointment %s is %s, not pending", appointmentID, appt.Status)
	}
	if s.slotTaken(therapistID, appt.Date, appt.Time, appt.ID) {
		return fmt.Errorf("therapist %s at %s %s: %w", therapistID, appt.Date, appt.Time, db.ErrConflict)
	}
	appt.TherapistID = therapistID
	appt.Status = model.StatusUpcoming
	s.appointments[appointmentID] = appt
	return nil
}

func (s *Store) GetAppointment(_ context.Context, appointmentID string) (model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appt, ok := s.appointments[appointmentID]
	if !ok {
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", appointmentID, db.ErrNotFound)
	}
	return appt, nil
}

// UpdateAppointmentStatus sets the status. Reviving a slot another live appointment holds returns db.ErrConflict.
func (s *Store) UpdateAppointmentStatus(_ context.Context, appointmentID string, status model.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[appointmentID]
	if !ok {
		return fmt.Errorf("appointment %s: %w", appointmentID, db.ErrNotFound)
	}
	if appt.IsAssigned() && !appt.Status.BlocksSlot() && status.BlocksSlot() &&
		s.slotTaken(appt.TherapistID, appt.Date, appt.Time, appt.ID) {
		return fmt.Errorf("appointment %s: %w", appointmentID, db.ErrConflict)
	}
	appt.Status = status
	s.appointments[appointmentID] = appt
	return nil
}

// slotTaken reports whether a live appointment other than skipID holds the slot. Caller holds mu.
func (s *Store) slotTaken(therapistID, date, slotTime, skipID string) bool {
	for id, a := range s.appointments {
		if id == skipID {
			continue
		}
		if a.TherapistID == therapistID && a.Date == date && a.Time == slotTime && a.Status.BlocksSlot() {
			return true
		}
	}
	return false
}
