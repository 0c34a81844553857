package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jakechorley/spa-booking/pkg/core/model"
)

// AppointmentStatusStore defines the operations needed to change an appointment's status
type AppointmentStatusStore interface {
	GetAppointment(ctx context.Context, appointmentID string) (model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, appointmentID string, status model.AppointmentStatus) error
}

// allowedTransitions lists the statuses reachable from each non-terminal status
var allowedTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.StatusPending:    {model.StatusUpcoming, model.StatusCancelled},
	model.StatusUpcoming:   {model.StatusInProgress, model.StatusCancelled},
	model.StatusInProgress: {model.StatusCompleted, model.StatusCancelled},
}

// CanTransition reports whether an appointment may move from one status to another
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateAppointmentStatus moves an appointment to a new status.
// Only assigned appointments can leave pending for anything other than cancelled.
func UpdateAppointmentStatus(ctx context.Context, store AppointmentStatusStore, logger *zap.Logger, appointmentID string, status model.AppointmentStatus) (model.Appointment, error) {
	ctx, span := tracer.Start(ctx, "services.update_appointment_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("spa.appointment_id", appointmentID),
		attribute.String("spa.status", string(status)),
	)

	if !status.IsValid() {
		return model.Appointment{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	appt, err := store.GetAppointment(ctx, appointmentID)
	if err != nil {
		span.RecordError(err)
		return model.Appointment{}, fmt.Errorf("failed to get appointment: %w", err)
	}

	if !CanTransition(appt.Status, status) {
		return model.Appointment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, status)
	}
	if status != model.StatusCancelled && !appt.IsAssigned() {
		return model.Appointment{}, fmt.Errorf("%w: appointment %s has no therapist assigned", ErrInvalidTransition, appt.ID)
	}

	logger.Debug("Updating appointment status",
		zap.String("appointment_id", appt.ID),
		zap.String("from", string(appt.Status)),
		zap.String("to", string(status)))

	if err := store.UpdateAppointmentStatus(ctx, appointmentID, status); err != nil {
		span.RecordError(err)
		return model.Appointment{}, fmt.Errorf("failed to update appointment status: %w", err)
	}

	from := appt.Status
	appt.Status = status
	logger.Info("Appointment status updated",
		zap.String("appointment_id", appt.ID),
		zap.String("from", string(from)),
		zap.String("to", string(status)))

	return appt, nil
}
