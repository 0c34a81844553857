package services

import "errors"

var (
	// ErrInvalidRequest is returned when a booking request fails validation
	ErrInvalidRequest = errors.New("invalid booking request")

	// ErrServiceNotFound is returned when the requested service is unknown or inactive
	ErrServiceNotFound = errors.New("service not found")

	// ErrNoTherapistAvailable is returned when the reject policy applies to an unmatched request
	ErrNoTherapistAvailable = errors.New("no therapist available")

	// ErrSlotTaken is returned when another booking claimed the therapist's slot first
	ErrSlotTaken = errors.New("slot already taken")

	// ErrStaffInactive is returned when an appointment is assigned to an inactive staff member
	ErrStaffInactive = errors.New("staff member is not active")

	// ErrInvalidTransition is returned for appointment status changes that are not allowed
	ErrInvalidTransition = errors.New("invalid status transition")
)
