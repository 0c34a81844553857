package db

import (
	"context"
	"errors"

	"github.com/jakechorley/spa-booking/pkg/core/model"
)

// ErrNotFound is returned by lookups when the requested record does not exist
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write would double-book a therapist's slot
var ErrConflict = errors.New("slot already occupied")

// ServiceCatalog defines read access to bookable services
type ServiceCatalog interface {
	GetService(ctx context.Context, serviceID string) (model.Service, error)
}

// StaffDirectory defines read access to staff and their availability
type StaffDirectory interface {
	ListAvailabilitySlots(ctx context.Context, date, slotTime string) ([]model.AvailabilitySlot, error)
	GetStaffMember(ctx context.Context, staffID string) (model.StaffMember, error)
}

// AppointmentLedger defines read access to existing bookings
type AppointmentLedger interface {
	ListOccupiedTherapists(ctx context.Context, date, slotTime string, excludeStatuses []model.AppointmentStatus) ([]string, error)
	CountCompletedAppointments(ctx context.Context, customerID, therapistID string) (int, error)
	CountActiveAppointmentsOnDate(ctx context.Context, therapistID, date string, excludeStatuses []model.AppointmentStatus) (int, error)
}

// AppointmentWriter defines the booking writes used by the booking workflow
type AppointmentWriter interface {
	// ReserveAppointment inserts an assigned appointment only if the therapist's slot is still free.
	// Returns ErrConflict if another booking claimed the slot first.
	ReserveAppointment(ctx context.Context, appointment model.Appointment) error
	InsertAppointment(ctx context.Context, appointment model.Appointment) error
	// AssignAppointment gives a pending appointment a therapist and moves it to upcoming.
	// Returns ErrConflict if the therapist's slot is taken.
	AssignAppointment(ctx context.Context, appointmentID, therapistID string) error
	GetAppointment(ctx context.Context, appointmentID string) (model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, appointmentID string, status model.AppointmentStatus) error
}

// AvailabilityWriter defines writes for generated availability
type AvailabilityWriter interface {
	InsertAvailabilitySlots(ctx context.Context, slots []model.AvailabilitySlot) (int, error)
}

// Database defines the interface for all database operations.
// Both postgres.DB and memstore.Store implement this interface.
type Database interface {
	ServiceCatalog
	StaffDirectory
	AppointmentLedger
	AppointmentWriter
	AvailabilityWriter
}
