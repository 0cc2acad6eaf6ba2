package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reserva/internal/models"
)

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		c                models.Client
		email            sql.NullString
		created, updated string
	)
	if err := row.Scan(&c.ID, &c.Name, &email, &c.Role, &c.Active, &created, &updated); err != nil {
		return nil, err
	}
	c.Email = email.String

	var err error
	if c.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) GetClient(ctx context.Context, id string) (*models.Client, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, email, role, active, created_at, updated_at
		FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (db *DB) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, email, role, active, created_at, updated_at
		FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// UpsertClient inserts or updates a directory entry, preserving created_at.
func (db *DB) UpsertClient(ctx context.Context, c *models.Client) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO clients (id, name, email, role, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Email, string(c.Role), c.Active,
		formatTimestamp(c.CreatedAt), formatTimestamp(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert client %s: %w", c.ID, err)
	}
	return nil
}
