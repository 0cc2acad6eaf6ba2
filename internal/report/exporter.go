package report

import (
	"context"
	"fmt"
	"time"

	"reserva/internal/models"
	"reserva/internal/repository"
)

// TableExporter provides tables for export.
type TableExporter interface {
	GetTableNames(ctx context.Context) ([]string, error)
	GetTableData(ctx context.Context, tableName string) ([]map[string]any, []string, error)
}

// StoreExporter builds export tables from any repository.Store. It serves
// backends that have no tables of their own.
type StoreExporter struct {
	store repository.Store
}

func NewStoreExporter(store repository.Store) *StoreExporter {
	return &StoreExporter{store: store}
}

var storeTables = []string{"rooms", "clients", "reservations", "activity_log"}

func (e *StoreExporter) GetTableNames(ctx context.Context) ([]string, error) {
	return storeTables, nil
}

func (e *StoreExporter) GetTableData(ctx context.Context, tableName string) ([]map[string]any, []string, error) {
	switch tableName {
	case "rooms":
		rooms, err := e.store.ListRooms(ctx, nil)
		if err != nil {
			return nil, nil, err
		}
		columns := []string{"id", "name", "open_time", "close_time", "block_minutes", "active", "created_at", "updated_at"}
		rows := make([]map[string]any, len(rooms))
		for i, r := range rooms {
			rows[i] = map[string]any{
				"id": r.ID, "name": r.Name, "open_time": r.OpenTime, "close_time": r.CloseTime,
				"block_minutes": r.BlockMinutes, "active": r.Active,
				"created_at": cellTime(r.CreatedAt), "updated_at": cellTime(r.UpdatedAt),
			}
		}
		return rows, columns, nil

	case "clients":
		clients, err := e.store.ListClients(ctx)
		if err != nil {
			return nil, nil, err
		}
		columns := []string{"id", "name", "email", "role", "active", "created_at", "updated_at"}
		rows := make([]map[string]any, len(clients))
		for i, c := range clients {
			rows[i] = map[string]any{
				"id": c.ID, "name": c.Name, "email": c.Email, "role": string(c.Role), "active": c.Active,
				"created_at": cellTime(c.CreatedAt), "updated_at": cellTime(c.UpdatedAt),
			}
		}
		return rows, columns, nil

	case "reservations":
		list, err := e.store.ListReservations(ctx, models.ReservationFilter{})
		if err != nil {
			return nil, nil, err
		}
		columns := []string{"id", "room_id", "client_id", "start_at", "status", "created_at", "updated_at"}
		rows := make([]map[string]any, len(list))
		for i, r := range list {
			rows[i] = map[string]any{
				"id": r.ID, "room_id": r.RoomID, "client_id": r.ClientID,
				"start_at": r.StartAt.Format(models.DateTimeLayout), "status": string(r.Status),
				"created_at": cellTime(r.CreatedAt), "updated_at": cellTime(r.UpdatedAt),
			}
		}
		return rows, columns, nil

	case "activity_log":
		list, err := e.store.ListActivity(ctx, models.ActivityFilter{})
		if err != nil {
			return nil, nil, err
		}
		columns := []string{"id", "client_id", "activity_type", "module", "description", "origin", "user_agent", "occurred_at"}
		rows := make([]map[string]any, len(list))
		for i, a := range list {
			rows[i] = map[string]any{
				"id": a.ID, "client_id": a.ClientID, "activity_type": a.ActivityType, "module": a.Module,
				"description": a.Description, "origin": a.Origin, "user_agent": a.UserAgent,
				"occurred_at": cellTime(a.OccurredAt),
			}
		}
		return rows, columns, nil
	}
	return nil, nil, fmt.Errorf("invalid table name: %s", tableName)
}

// cellTime renders timestamps the way the SQLite backend stores them.
func cellTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
