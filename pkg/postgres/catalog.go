package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/db"
)

// GetService retrieves a service by id. Returns db.ErrNotFound if it does not exist.
func (d *DB) GetService(ctx context.Context, serviceID string) (model.Service, error) {
	var s model.Service
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, duration_minutes, active
		FROM service
		WHERE id = $1
	`, serviceID).Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Service{}, fmt.Errorf("service %s: %w", serviceID, db.ErrNotFound)
	}
	if err != nil {
		return model.Service{}, fmt.Errorf("failed to query service: %w", err)
	}
	return s, nil
}

// GetStaffMember retrieves a staff member by id. Returns db.ErrNotFound if it does not exist.
func (d *DB) GetStaffMember(ctx context.Context, staffID string) (model.StaffMember, error) {
	var m model.StaffMember
	var role string
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, role, active
		FROM staff
		WHERE id = $1
	`, staffID).Scan(&m.ID, &m.Name, &role, &m.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.StaffMember{}, fmt.Errorf("staff member %s: %w", staffID, db.ErrNotFound)
	}
	if err != nil {
		return model.StaffMember{}, fmt.Errorf("failed to query staff member: %w", err)
	}
	m.Role = model.Role(role)
	return m, nil
}

// ListAvailabilitySlots retrieves every slot published for the given date and time
func (d *DB) ListAvailabilitySlots(ctx context.Context, date, slotTime string) ([]model.AvailabilitySlot, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, staff_id, to_char(slot_date, 'YYYY-MM-DD'), slot_time, allowed_service_ids
		FROM availability_slot
		WHERE slot_date = $1::date AND slot_time = $2
		ORDER BY id
	`, date, slotTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability slots: %w", err)
	}
	defer rows.Close()

	var slots []model.AvailabilitySlot
	for rows.Next() {
		var s model.AvailabilitySlot
		if err := rows.Scan(&s.ID, &s.StaffID, &s.Date, &s.Time, &s.AllowedServiceIDs); err != nil {
			return nil, fmt.Errorf("failed to scan availability slot: %w", err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability slots: %w", err)
	}

	return slots, nil
}

// InsertAvailabilitySlots inserts generated slots, skipping ids that already exist.
// Returns the number of slots actually inserted.
func (d *DB) InsertAvailabilitySlots(ctx context.Context, slots []model.AvailabilitySlot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, s := range slots {
		allowed := s.AllowedServiceIDs
		if allowed == nil {
			allowed = []string{}
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO availability_slot (id, staff_id, slot_date, slot_time, allowed_service_ids)
			VALUES ($1, $2, $3::date, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, s.ID, s.StaffID, s.Date, s.Time, allowed)
		if err != nil {
			return 0, fmt.Errorf("failed to insert availability slot %s: %w", s.ID, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit availability slots: %w", err)
	}

	return inserted, nil
}
