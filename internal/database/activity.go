package database

import (
	"context"
	"database/sql"
	"fmt"

	"reserva/internal/models"
)

func (db *DB) CreateActivity(ctx context.Context, a *models.Activity) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO activity_log (id, client_id, activity_type, module, description, origin, user_agent, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ClientID, a.ActivityType, a.Module, a.Description, a.Origin, a.UserAgent,
		formatTimestamp(a.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (db *DB) ListActivity(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	var w whereBuilder
	if filter.ClientID != "" {
		w.add("client_id = ?", filter.ClientID)
	}
	if filter.ActivityType != "" {
		w.add("activity_type = ?", filter.ActivityType)
	}
	if filter.Module != "" {
		w.add("module = ?", filter.Module)
	}
	if filter.From != nil {
		w.add("occurred_at >= ?", formatTimestamp(*filter.From))
	}
	if filter.To != nil {
		w.add("occurred_at <= ?", formatTimestamp(*filter.To))
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, client_id, activity_type, module, description, origin, user_agent, occurred_at
		FROM activity_log`+w.String()+`
		ORDER BY occurred_at DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var result []models.Activity
	for rows.Next() {
		var (
			a                              models.Activity
			description, origin, userAgent sql.NullString
			occurred                       string
		)
		if err := rows.Scan(&a.ID, &a.ClientID, &a.ActivityType, &a.Module,
			&description, &origin, &userAgent, &occurred); err != nil {
			return nil, err
		}
		a.Description, a.Origin, a.UserAgent = description.String, origin.String, userAgent.String
		if a.OccurredAt, err = parseTimestamp(occurred); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
