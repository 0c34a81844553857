package model

import (
	"slices"
	"time"
)

// DateLayout is the calendar-day format used for appointment and slot dates
const DateLayout = "2006-01-02"

// TimeLayout is the wall-clock format used for slot labels
const TimeLayout = "15:04"

type Role string

const (
	RoleTherapist    Role = "Therapist"
	RoleReceptionist Role = "Receptionist"
	RoleManager      Role = "Manager"
)

func (r Role) IsValid() bool {
	return r == RoleTherapist || r == RoleReceptionist || r == RoleManager
}

type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "pending"
	StatusUpcoming   AppointmentStatus = "upcoming"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
)

// AllStatuses lists every appointment status in lifecycle order
var AllStatuses = []AppointmentStatus{
	StatusPending,
	StatusUpcoming,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// OccupancyExcludedStatuses are the statuses that do not hold a therapist's slot
var OccupancyExcludedStatuses = []AppointmentStatus{StatusCancelled, StatusCompleted}

// WorkloadExcludedStatuses are the statuses that do not count toward daily load
var WorkloadExcludedStatuses = []AppointmentStatus{StatusCancelled}

func (s AppointmentStatus) IsValid() bool {
	return slices.Contains(AllStatuses, s)
}

// BlocksSlot reports whether an appointment in this status occupies its therapist's slot
func (s AppointmentStatus) BlocksSlot() bool {
	return !slices.Contains(OccupancyExcludedStatuses, s)
}

// CountsTowardWorkload reports whether an appointment in this status adds to daily load
func (s AppointmentStatus) CountsTowardWorkload() bool {
	return !slices.Contains(WorkloadExcludedStatuses, s)
}

// IsTerminal reports whether no further transitions are allowed
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Service is a bookable treatment in the catalog
type Service struct {
	ID              string
	Name            string
	DurationMinutes int
	Active          bool
}

// StaffMember is an employee who can be assigned appointments
type StaffMember struct {
	ID     string
	Name   string
	Role   Role
	Active bool
}

// AvailabilitySlot marks a staff member as working at a date and time.
// An empty AllowedServiceIDs means the slot accepts every service.
type AvailabilitySlot struct {
	ID                string
	StaffID           string
	Date              string // Date format
	Time              string // HH:MM
	AllowedServiceIDs []string
}

// AllowsService returns true if the slot may be used for the given service
func (s AvailabilitySlot) AllowsService(serviceID string) bool {
	return len(s.AllowedServiceIDs) == 0 || slices.Contains(s.AllowedServiceIDs, serviceID)
}

// Appointment is a booking in the ledger
type Appointment struct {
	ID          string
	TherapistID string // Empty when unassigned
	CustomerID  string
	ServiceID   string
	Date        string // Date format
	Time        string // HH:MM
	Status      AppointmentStatus
	CreatedAt   time.Time
}

// IsAssigned returns true if a therapist has been chosen for the appointment
func (a Appointment) IsAssigned() bool {
	return a.TherapistID != ""
}

// BookingRequest is the input to therapist matching
type BookingRequest struct {
	ServiceID  string `validate:"required"`
	CustomerID string `validate:"required"`
	Date       string `validate:"required,datetime=2006-01-02"`
	Time       string `validate:"required,datetime=15:04"`
}
