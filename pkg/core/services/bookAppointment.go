package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jakechorley/spa-booking/internal/config"
	"github.com/jakechorley/spa-booking/pkg/core/matcher"
	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/db"
	"github.com/jakechorley/spa-booking/pkg/observability/metrics"
)

// BookAppointmentStore defines the writes needed to book an appointment
type BookAppointmentStore interface {
	ReserveAppointment(ctx context.Context, appointment model.Appointment) error
	InsertAppointment(ctx context.Context, appointment model.Appointment) error
}

// SlotLocker serialises bookings for the same date and time across processes
type SlotLocker interface {
	AcquireSlot(ctx context.Context, date, slotTime string) (func(context.Context) error, error)
}

// BookingResult is the appointment created for a request and the match behind it
type BookingResult struct {
	Appointment model.Appointment
	Match       matcher.Result
}

// BookAppointment matches a therapist for the request and records the appointment.
// A matched request is reserved as upcoming. An unmatched request is either stored
// as an unassigned pending appointment or rejected, depending on the configured policy.
// A nil locker books without the cross-process slot lock.
func BookAppointment(
	ctx context.Context,
	store BookAppointmentStore,
	locker SlotLocker,
	finder TherapistFinder,
	cfg *config.Config,
	logger *zap.Logger,
	mm *metrics.MatchMetrics,
	req model.BookingRequest,
) (*BookingResult, error) {
	ctx, span := tracer.Start(ctx, "services.book_appointment")
	defer span.End()
	span.SetAttributes(
		attribute.String("spa.customer_id", req.CustomerID),
		attribute.String("spa.service_id", req.ServiceID),
	)

	if err := validateRequest(req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if locker != nil {
		logger.Debug("Acquiring slot lock", zap.String("date", req.Date), zap.String("time", req.Time))
		release, err := locker.AcquireSlot(ctx, req.Date, req.Time)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to lock slot %s %s: %w", req.Date, req.Time, err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Failed to release slot lock", zap.Error(err))
			}
		}()
	}

	result, err := MatchTherapist(ctx, finder, logger, mm, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	appt := model.Appointment{
		ID:         uuid.New().String(),
		CustomerID: req.CustomerID,
		ServiceID:  req.ServiceID,
		Date:       req.Date,
		Time:       req.Time,
		CreatedAt:  time.Now().UTC(),
	}

	if !result.Found() {
		return bookUnmatched(ctx, store, cfg, logger, mm, appt, result)
	}

	appt.TherapistID = result.Therapist.ID
	appt.Status = model.StatusUpcoming

	if err := store.ReserveAppointment(ctx, appt); err != nil {
		span.RecordError(err)
		if errors.Is(err, db.ErrConflict) {
			mm.ObserveBooking("conflict")
			return nil, fmt.Errorf("%w: %w", ErrSlotTaken, err)
		}
		return nil, fmt.Errorf("failed to reserve appointment: %w", err)
	}

	mm.ObserveBooking(string(appt.Status))
	logger.Info("Booked appointment",
		zap.String("appointment_id", appt.ID),
		zap.String("therapist_id", appt.TherapistID),
		zap.String("customer_id", appt.CustomerID),
		zap.String("date", appt.Date),
		zap.String("time", appt.Time),
		zap.String("trace_id", trace.SpanContextFromContext(ctx).TraceID().String()))

	return &BookingResult{Appointment: appt, Match: result}, nil
}

func bookUnmatched(
	ctx context.Context,
	store BookAppointmentStore,
	cfg *config.Config,
	logger *zap.Logger,
	mm *metrics.MatchMetrics,
	appt model.Appointment,
	result matcher.Result,
) (*BookingResult, error) {
	if result.Reason == matcher.ReasonServiceNotFound {
		mm.ObserveBooking("rejected")
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, appt.ServiceID)
	}

	if cfg != nil && cfg.UnassignedPolicy == config.PolicyReject {
		mm.ObserveBooking("rejected")
		return nil, fmt.Errorf("%w: %s", ErrNoTherapistAvailable, result.Reason)
	}

	appt.Status = model.StatusPending
	if err := store.InsertAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to insert pending appointment: %w", err)
	}

	mm.ObserveBooking(string(appt.Status))
	logger.Info("Appointment left pending manual assignment",
		zap.String("appointment_id", appt.ID),
		zap.String("reason", string(result.Reason)),
		zap.String("date", appt.Date),
		zap.String("time", appt.Time))

	return &BookingResult{Appointment: appt, Match: result}, nil
}
