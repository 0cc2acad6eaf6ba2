package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reserva/internal/models"
)

const reservationColumns = `id, room_id, client_id, start_at, status, created_at, updated_at`

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		r                         models.Reservation
		startAt, created, updated string
	)
	if err := row.Scan(&r.ID, &r.RoomID, &r.ClientID, &startAt, &r.Status, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if r.StartAt, err = time.ParseInLocation(slotLayout, startAt, time.UTC); err != nil {
		return nil, fmt.Errorf("reservation %s start_at: %w", r.ID, err)
	}
	if r.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, fmt.Errorf("reservation %s created_at: %w", r.ID, err)
	}
	if r.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, fmt.Errorf("reservation %s updated_at: %w", r.ID, err)
	}
	return &r, nil
}

func (db *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	row := db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (db *DB) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	var w whereBuilder
	if filter.ClientID != "" {
		w.add("client_id = ?", filter.ClientID)
	}
	if filter.RoomID != "" {
		w.add("room_id = ?", filter.RoomID)
	}
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	if filter.From != nil {
		w.add("start_at >= ?", filter.From.Format(slotLayout))
	}
	if filter.To != nil {
		w.add("start_at <= ?", filter.To.Format(slotLayout))
	}

	return db.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations`+w.String()+` ORDER BY start_at DESC, created_at DESC`,
		w.args...)
}

func (db *DB) ActiveReservationsForRoom(ctx context.Context, roomID string, from, to time.Time) ([]models.Reservation, error) {
	return db.queryReservations(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE room_id = ? AND start_at BETWEEN ? AND ? AND status <> 'cancelled'
		ORDER BY start_at`,
		roomID, from.Format(slotLayout), to.Format(slotLayout))
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...any) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var result []models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

func (db *DB) SlotTaken(ctx context.Context, roomID string, startAt time.Time) (bool, error) {
	var taken bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE room_id = ? AND start_at = ? AND status <> 'cancelled'
		)`,
		roomID, startAt.Format(slotLayout),
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return taken, nil
}

// CreateReservation inserts r. The partial unique index on (room_id, start_at)
// turns a lost race into models.ErrSlotConflict.
func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RoomID, r.ClientID, r.StartAt.Format(slotLayout), string(r.Status),
		formatTimestamp(r.CreatedAt), formatTimestamp(r.UpdatedAt),
	)
	if isSlotViolation(err) {
		return models.ErrSlotConflict
	}
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (db *DB) UpdateReservationStatus(ctx context.Context, id string, from, to models.ReservationStatus, at time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE reservations SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), formatTimestamp(at), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if _, err := db.GetReservation(ctx, id); err != nil {
		return err
	}
	return models.ErrConcurrentModification
}
