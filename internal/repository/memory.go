package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"reserva/internal/models"
)

type slotKey struct {
	roomID  string
	startAt time.Time
}

// MemoryStore keeps everything in process. It enforces the same slot
// uniqueness rule as the SQLite store, under one mutex.
type MemoryStore struct {
	mu           sync.RWMutex
	rooms        map[string]models.Room
	reservations map[string]models.Reservation
	taken        map[slotKey]string
	clients      map[string]models.Client
	activity     []models.Activity
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:        make(map[string]models.Room),
		reservations: make(map[string]models.Reservation),
		taken:        make(map[slotKey]string),
		clients:      make(map[string]models.Client),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, models.ErrRoomNotFound
	}
	return &room, nil
}

func (s *MemoryStore) ListRooms(ctx context.Context, activeOnly *bool) ([]models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if activeOnly != nil && room.Active != *activeOnly {
			continue
		}
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

func (s *MemoryStore) CreateRoom(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[room.ID] = *room
	return nil
}

func (s *MemoryStore) UpdateRoom(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; !ok {
		return models.ErrRoomNotFound
	}
	s.rooms[room.ID] = *room
	return nil
}

func (s *MemoryStore) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, models.ErrReservationNotFound
	}
	return &r, nil
}

func (s *MemoryStore) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Reservation
	for _, r := range s.reservations {
		if filter.ClientID != "" && r.ClientID != filter.ClientID {
			continue
		}
		if filter.RoomID != "" && r.RoomID != filter.RoomID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if !inRange(r.StartAt, filter.From, filter.To) {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartAt.Equal(result[j].StartAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].StartAt.After(result[j].StartAt)
	})
	return result, nil
}

func (s *MemoryStore) ActiveReservationsForRoom(ctx context.Context, roomID string, from, to time.Time) ([]models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Reservation
	for _, r := range s.reservations {
		if r.RoomID != roomID || r.Status == models.StatusCancelled {
			continue
		}
		if !inRange(r.StartAt, &from, &to) {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartAt.Before(result[j].StartAt) })
	return result, nil
}

func (s *MemoryStore) SlotTaken(ctx context.Context, roomID string, startAt time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.taken[slotKey{roomID: roomID, startAt: models.TruncateMinute(startAt)}]
	return ok, nil
}

func (s *MemoryStore) CreateReservation(ctx context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{roomID: r.RoomID, startAt: models.TruncateMinute(r.StartAt)}
	if r.Status != models.StatusCancelled {
		if _, ok := s.taken[key]; ok {
			return models.ErrSlotConflict
		}
		s.taken[key] = r.ID
	}
	s.reservations[r.ID] = *r
	return nil
}

func (s *MemoryStore) UpdateReservationStatus(ctx context.Context, id string, from, to models.ReservationStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok {
		return models.ErrReservationNotFound
	}
	if r.Status != from {
		return models.ErrConcurrentModification
	}

	key := slotKey{roomID: r.RoomID, startAt: models.TruncateMinute(r.StartAt)}
	if to == models.StatusCancelled && s.taken[key] == r.ID {
		delete(s.taken, key)
	}

	r.Status = to
	r.UpdatedAt = at
	s.reservations[id] = r
	return nil
}

func (s *MemoryStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, models.ErrClientNotFound
	}
	return &c, nil
}

func (s *MemoryStore) ListClients(ctx context.Context) ([]models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients, nil
}

func (s *MemoryStore) UpsertClient(ctx context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.clients[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	}
	s.clients[c.ID] = *c
	return nil
}

func (s *MemoryStore) CreateActivity(ctx context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activity = append(s.activity, *a)
	return nil
}

func (s *MemoryStore) ListActivity(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Activity
	for _, a := range s.activity {
		if filter.ClientID != "" && a.ClientID != filter.ClientID {
			continue
		}
		if filter.ActivityType != "" && a.ActivityType != filter.ActivityType {
			continue
		}
		if filter.Module != "" && a.Module != filter.Module {
			continue
		}
		if !inRange(a.OccurredAt, filter.From, filter.To) {
			continue
		}
		result = append(result, a)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].OccurredAt.After(result[j].OccurredAt) })
	return result, nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
