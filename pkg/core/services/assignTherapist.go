package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/db"
)

// AssignTherapistStore defines the operations needed to assign a pending appointment
type AssignTherapistStore interface {
	GetAppointment(ctx context.Context, appointmentID string) (model.Appointment, error)
	GetStaffMember(ctx context.Context, staffID string) (model.StaffMember, error)
	// AssignAppointment sets the therapist and moves a pending appointment to upcoming
	// if the therapist's slot is free. Returns db.ErrConflict otherwise.
	AssignAppointment(ctx context.Context, appointmentID, therapistID string) error
}

// AssignTherapist manually assigns a therapist to a pending, unassigned appointment
func AssignTherapist(ctx context.Context, store AssignTherapistStore, logger *zap.Logger, appointmentID, therapistID string) (model.Appointment, error) {
	ctx, span := tracer.Start(ctx, "services.assign_therapist")
	defer span.End()
	span.SetAttributes(
		attribute.String("spa.appointment_id", appointmentID),
		attribute.String("spa.therapist_id", therapistID),
	)

	appt, err := store.GetAppointment(ctx, appointmentID)
	if err != nil {
		span.RecordError(err)
		return model.Appointment{}, fmt.Errorf("failed to get appointment: %w", err)
	}
	if appt.Status != model.StatusPending || appt.IsAssigned() {
		return model.Appointment{}, fmt.Errorf("%w: appointment %s is %s with therapist %q", ErrInvalidTransition, appt.ID, appt.Status, appt.TherapistID)
	}

	member, err := store.GetStaffMember(ctx, therapistID)
	if err != nil {
		span.RecordError(err)
		return model.Appointment{}, fmt.Errorf("failed to get staff member: %w", err)
	}
	if !member.Active {
		return model.Appointment{}, fmt.Errorf("%w: %s", ErrStaffInactive, member.ID)
	}

	if err := store.AssignAppointment(ctx, appt.ID, member.ID); err != nil {
		span.RecordError(err)
		if errors.Is(err, db.ErrConflict) {
			return model.Appointment{}, fmt.Errorf("%w: %w", ErrSlotTaken, err)
		}
		return model.Appointment{}, fmt.Errorf("failed to assign appointment: %w", err)
	}

	appt.TherapistID = member.ID
	appt.Status = model.StatusUpcoming
	logger.Info("Assigned therapist to pending appointment",
		zap.String("appointment_id", appt.ID),
		zap.String("therapist_id", appt.TherapistID))

	return appt, nil
}
