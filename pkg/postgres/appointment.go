package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jakechorley/spa-booking/pkg/core/model"
	"github.com/jakechorley/spa-booking/pkg/db"
)

const uniqueViolation = "23505"

// ListOccupiedTherapists returns the therapists holding an appointment at the given slot,
// ignoring appointments whose status is in excludeStatuses
func (d *DB) ListOccupiedTherapists(ctx context.Context, date, slotTime string, excludeStatuses []model.AppointmentStatus) ([]string, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT DISTINCT therapist_id
		FROM appointment
		WHERE appointment_date = $1::date
			AND appointment_time = $2
			AND therapist_id IS NOT NULL
			AND NOT (status = ANY($3))
		ORDER BY therapist_id
	`, date, slotTime, statusStrings(excludeStatuses))
	if err != nil {
		return nil, fmt.Errorf("failed to query occupied therapists: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan therapist id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating occupied therapists: %w", err)
	}

	return ids, nil
}

// CountCompletedAppointments counts the completed visits of a customer with a therapist
func (d *DB) CountCompletedAppointments(ctx context.Context, customerID, therapistID string) (int, error) {
	var count int
	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointment
		WHERE customer_id = $1 AND therapist_id = $2 AND status = $3
	`, customerID, therapistID, string(model.StatusCompleted)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed appointments: %w", err)
	}
	return count, nil
}

// CountActiveAppointmentsOnDate counts a therapist's appointments on a date,
// ignoring appointments whose status is in excludeStatuses
func (d *DB) CountActiveAppointmentsOnDate(ctx context.Context, therapistID, date string, excludeStatuses []model.AppointmentStatus) (int, error) {
	var count int
	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointment
		WHERE therapist_id = $1 AND appointment_date = $2::date AND NOT (status = ANY($3))
	`, therapistID, date, statusStrings(excludeStatuses)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments on date: %w", err)
	}
	return count, nil
}

// ReserveAppointment inserts an assigned appointment if the therapist's slot is still free.
// The check and insert run under a transaction-scoped advisory lock on the slot, and the
// partial unique index on live appointments backs it up. Returns db.ErrConflict on a lost race.
func (d *DB) ReserveAppointment(ctx context.Context, appt model.Appointment) error {
	if !appt.IsAssigned() {
		return fmt.Errorf("cannot reserve appointment %s without a therapist", appt.ID)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockKey := appt.TherapistID + "|" + appt.Date + "|" + appt.Time
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("failed to lock slot: %w", err)
	}

	var taken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE therapist_id = $1 AND appointment_date = $2::date AND appointment_time = $3
				AND NOT (status = ANY($4))
		)
	`, appt.TherapistID, appt.Date, appt.Time, statusStrings(model.OccupancyExcludedStatuses)).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check slot occupancy: %w", err)
	}
	if taken {
		return fmt.Errorf("therapist %s at %s %s: %w", appt.TherapistID, appt.Date, appt.Time, db.ErrConflict)
	}

	if err := insertAppointment(ctx, tx, appt); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit appointment: %w", err)
	}
	return nil
}

// InsertAppointment inserts an appointment without an occupancy check, used for unassigned pending bookings
func (d *DB) InsertAppointment(ctx context.Context, appt model.Appointment) error {
	return insertAppointment(ctx, d.pool, appt)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertAppointment(ctx context.Context, e execer, appt model.Appointment) error {
	createdAt := appt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := e.Exec(ctx, `
		INSERT INTO appointment (id, therapist_id, customer_id, service_id, appointment_date, appointment_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8)
	`, appt.ID, nullableString(appt.TherapistID), appt.CustomerID, appt.ServiceID, appt.Date, appt.Time, string(appt.Status), createdAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("therapist %s at %s %s: %w", appt.TherapistID, appt.Date, appt.Time, db.ErrConflict)
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

// AssignAppointment gives a pending appointment a therapist under the same slot lock as ReserveAppointment
func (d *DB) AssignAppointment(ctx context.Context, appointmentID, therapistID string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var date, slotTime, status string
	err = tx.QueryRow(ctx, `
		SELECT to_char(appointment_date, 'YYYY-MM-DD'), appointment_time, status
		FROM appointment
		WHERE id = $1
		FOR UPDATE
	`, appointmentID).Scan(&date, &slotTime, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("appointment %s: %w", appointmentID, db.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query appointment: %w", err)
	}
	if model.AppointmentStatus(status) != model.StatusPending {
		return fmt.Errorf("appointment %s is %s, not pending", appointmentID, status)
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, therapistID+"|"+date+"|"+slotTime); err != nil {
		return fmt.Errorf("failed to lock slot: %w", err)
	}

	var taken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE therapist_id = $1 AND appointment_date = $2::date AND appointment_time = $3
				AND NOT (status = ANY($4))
		)
	`, therapistID, date, slotTime, statusStrings(model.OccupancyExcludedStatuses)).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check slot occupancy: %w", err)
	}
	if taken {
		return fmt.Errorf("therapist %s at %s %s: %w", therapistID, date, slotTime, db.ErrConflict)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE appointment SET therapist_id = $2, status = $3 WHERE id = $1
	`, appointmentID, therapistID, string(model.StatusUpcoming)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("therapist %s at %s %s: %w", therapistID, date, slotTime, db.ErrConflict)
		}
		return fmt.Errorf("failed to assign appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit assignment: %w", err)
	}
	return nil
}

// GetAppointment retrieves an appointment by id. Returns db.ErrNotFound if it does not exist.
func (d *DB) GetAppointment(ctx context.Context, appointmentID string) (model.Appointment, error) {
	var a model.Appointment
	var therapistID *string
	var status string
	err := d.pool.QueryRow(ctx, `
		SELECT id, therapist_id, customer_id, service_id, to_char(appointment_date, 'YYYY-MM-DD'), appointment_time, status, created_at
		FROM appointment
		WHERE id = $1
	`, appointmentID).Scan(&a.ID, &therapistID, &a.CustomerID, &a.ServiceID, &a.Date, &a.Time, &status, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", appointmentID, db.ErrNotFound)
	}
	if err != nil {
		return model.Appointment{}, fmt.Errorf("failed to query appointment: %w", err)
	}
	if therapistID != nil {
		a.TherapistID = *therapistID
	}
	a.Status = model.AppointmentStatus(status)
	return a, nil
}

// UpdateAppointmentStatus sets the status of an appointment. Returns db.ErrNotFound if it does not exist.
func (d *DB) UpdateAppointmentStatus(ctx context.Context, appointmentID string, status model.AppointmentStatus) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE appointment SET status = $2 WHERE id = $1
	`, appointmentID, string(status))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("appointment %s: %w", appointmentID, db.ErrConflict)
		}
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointment %s: %w", appointmentID, db.ErrNotFound)
	}
	return nil
}

func statusStrings(statuses []model.AppointmentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
