package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/core/shifts"
)

// GenerateAvailabilityStore defines the writes needed to publish availability
type GenerateAvailabilityStore interface {
	InsertAvailabilitySlots(ctx context.Context, slots []model.AvailabilitySlot) (int, error)
}

// AvailabilityResult summarises a generation run
type AvailabilityResult struct {
	Generated int
	Inserted  int
}

// GenerateAvailability expands shift patterns over [from, to] and inserts the resulting slots.
// Slots that already exist are skipped, so the same window can be regenerated safely.
func GenerateAvailability(ctx context.Context, store GenerateAvailabilityStore, logger *zap.Logger, patterns []shifts.Pattern, from, to time.Time, slotLength time.Duration) (*AvailabilityResult, error) {
	ctx, span := tracer.Start(ctx, "services.generate_availability")
	defer span.End()

	logger.Debug("Generating availability",
		zap.Int("patterns", len(patterns)),
		zap.String("from", from.Format(model.DateLayout)),
		zap.String("to", to.Format(model.DateLayout)),
		zap.Duration("slot_length", slotLength))

	var slots []model.AvailabilitySlot
	for i, pattern := range patterns {
		expanded, err := shifts.Expand(pattern, from, to, slotLength)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to expand shift pattern %d for staff %s: %w", i, pattern.StaffID, err)
		}
		logger.Debug("Expanded shift pattern", zap.String("staff_id", pattern.StaffID), zap.Int("slots", len(expanded)))
		slots = append(slots, expanded...)
	}

	inserted, err := store.InsertAvailabilitySlots(ctx, slots)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert availability slots: %w", err)
	}

	logger.Info("Generated availability",
		zap.Int("generated", len(slots)),
		zap.Int("inserted", inserted),
		zap.Int("skipped", len(slots)-inserted))

	return &AvailabilityResult{Generated: len(slots), Inserted: inserted}, nil
}
