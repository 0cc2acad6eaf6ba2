package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reserva/internal/models"
)

const roomColumns = `id, name, open_time, close_time, block_minutes, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var (
		room             models.Room
		created, updated string
	)
	if err := row.Scan(&room.ID, &room.Name, &room.OpenTime, &room.CloseTime, &room.BlockMinutes,
		&room.Active, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if room.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, fmt.Errorf("room %s created_at: %w", room.ID, err)
	}
	if room.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, fmt.Errorf("room %s updated_at: %w", room.ID, err)
	}
	return &room, nil
}

func (db *DB) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	row := db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

func (db *DB) ListRooms(ctx context.Context, activeOnly *bool) ([]models.Room, error) {
	var w whereBuilder
	if activeOnly != nil {
		w.add("active = ?", *activeOnly)
	}

	rows, err := db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms`+w.String()+` ORDER BY name`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

func (db *DB) CreateRoom(ctx context.Context, room *models.Room) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.OpenTime, room.CloseTime, room.BlockMinutes, room.Active,
		formatTimestamp(room.CreatedAt), formatTimestamp(room.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (db *DB) UpdateRoom(ctx context.Context, room *models.Room) error {
	res, err := db.ExecContext(ctx, `
		UPDATE rooms
		SET name = ?, open_time = ?, close_time = ?, block_minutes = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		room.Name, room.OpenTime, room.CloseTime, room.BlockMinutes, room.Active,
		formatTimestamp(room.UpdatedAt), room.ID,
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrRoomNotFound
	}
	return nil
}
