package booking

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"reserva/internal/models"
	"reserva/internal/repository"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 30, 0, time.UTC)

type fixture struct {
	svc      *Service
	store    *repository.MemoryStore
	cache    *fakeCache
	sink     *fakeSink
	pub      *fakePublisher
	room     *models.Room
	client   *models.Client
	admin    models.Caller
	asClient models.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, repository.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, store *repository.MemoryStore) *fixture {
	t.Helper()

	f := &fixture{
		store: store,
		cache: newFakeCache(),
		sink:  &fakeSink{},
		pub:   &fakePublisher{},
	}
	f.svc = newTestService(store, f)

	ctx := context.Background()
	room, err := f.svc.CreateRoom(ctx, models.RoomInput{Name: "Room A", OpenTime: "08:00", CloseTime: "18:00", BlockMinutes: 30})
	require.NoError(t, err)
	f.room = room

	f.client = addClient(t, store, models.RoleClient, true)
	f.admin = models.Caller{ID: addClient(t, store, models.RoleAdmin, true).ID, Role: models.RoleAdmin}
	f.asClient = models.Caller{ID: f.client.ID, Role: models.RoleClient}
	f.pub.reset()
	return f
}

func newTestService(store repository.Store, f *fixture) *Service {
	return NewService(store, zerolog.New(io.Discard),
		WithCache(f.cache),
		WithActivity(f.sink),
		WithEvents(f.pub),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func addClient(t *testing.T, store repository.ClientDirectory, role models.Role, active bool) *models.Client {
	t.Helper()
	c := &models.Client{
		ID:     uuid.NewString(),
		Name:   string(role) + "-" + uuid.NewString()[:8],
		Email:  "someone@example.com",
		Role:   role,
		Active: active,
	}
	require.NoError(t, store.UpsertClient(context.Background(), c))
	return c
}

type fakeCache struct {
	mu          sync.Mutex
	data        map[string][]string
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]string)}
}

func (c *fakeCache) Get(_ context.Context, roomID, date string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[roomID+"|"+date]
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, roomID, date string, slots []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[roomID+"|"+date] = slots
}

func (c *fakeCache) Invalidate(_ context.Context, roomID, date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, roomID+"|"+date)
	for k := range c.data {
		if k == roomID+"|"+date || (date == "" && len(k) > len(roomID) && k[:len(roomID)] == roomID) {
			delete(c.data, k)
		}
	}
}

type fakeSink struct {
	mu      sync.Mutex
	records []models.Activity
}

func (s *fakeSink) Record(_ context.Context, a models.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, a)
}

func (s *fakeSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	for i, r := range s.records {
		out[i] = r.ActivityType
	}
	return out
}

type fakePublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *fakePublisher) PublishJSON(eventType string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
}

func (p *fakePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = nil
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}
