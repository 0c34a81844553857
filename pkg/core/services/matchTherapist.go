package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jakechorley/spa-booking/pkg/core/matcher"
	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/observability/metrics"
)

var tracer = otel.Tracer("spa.core.services")

var validate = validator.New()

// TherapistFinder selects a therapist for a booking request
type TherapistFinder interface {
	FindBestTherapist(ctx context.Context, req model.BookingRequest) (matcher.Result, error)
}

// MatchTherapist validates the request and runs the matcher without writing anything
func MatchTherapist(ctx context.Context, finder TherapistFinder, logger *zap.Logger, mm *metrics.MatchMetrics, req model.BookingRequest) (matcher.Result, error) {
	ctx, span := tracer.Start(ctx, "services.match_therapist")
	defer span.End()
	span.SetAttributes(
		attribute.String("spa.service_id", req.ServiceID),
		attribute.String("spa.date", req.Date),
		attribute.String("spa.time", req.Time),
	)

	if err := validateRequest(req); err != nil {
		span.RecordError(err)
		return matcher.Result{}, err
	}

	start := time.Now()
	result, err := finder.FindBestTherapist(ctx, req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		mm.ObserveMatch("error", elapsed)
		span.RecordError(err)
		return matcher.Result{}, fmt.Errorf("failed to match therapist: %w", err)
	}

	outcome := matchOutcome(result)
	mm.ObserveMatch(outcome, elapsed)
	span.SetAttributes(attribute.String("spa.match_outcome", outcome))

	if result.Found() {
		logger.Info("Matched therapist",
			zap.String("therapist_id", result.Therapist.ID),
			zap.String("service_id", req.ServiceID),
			zap.String("date", req.Date),
			zap.String("time", req.Time),
			zap.Int("candidates", len(result.Candidates)))
	} else {
		logger.Info("No therapist matched",
			zap.String("reason", string(result.Reason)),
			zap.String("service_id", req.ServiceID),
			zap.String("date", req.Date),
			zap.String("time", req.Time))
	}

	return result, nil
}

func validateRequest(req model.BookingRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func matchOutcome(result matcher.Result) string {
	if result.Found() {
		return "matched"
	}
	return string(result.Reason)
}
