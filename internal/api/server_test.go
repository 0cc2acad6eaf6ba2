package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reserva/internal/access"
	"reserva/internal/activity"
	"reserva/internal/booking"
	"reserva/internal/models"
	"reserva/internal/repository"
)

const testSecret = "test-secret"

type testServer struct {
	*httptest.Server
	store  *repository.MemoryStore
	auth   *Authenticator
	roomID string
	client *models.Client
	other  *models.Client
	admin  *models.Client
}

func addClient(t *testing.T, store *repository.MemoryStore, role models.Role, active bool) *models.Client {
	t.Helper()
	c := &models.Client{ID: uuid.NewString(), Name: string(role), Role: role, Active: active}
	require.NoError(t, store.UpsertClient(context.Background(), c))
	return c
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.New(io.Discard)
	store := repository.NewMemoryStore()
	svc := booking.NewService(store, logger,
		booking.WithActivity(activity.NewRecorder(store, logger)),
		booking.WithClock(func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }),
	)

	room, err := svc.CreateRoom(context.Background(), models.RoomInput{Name: "Room A", OpenTime: "08:00", CloseTime: "18:00", BlockMinutes: 30})
	require.NoError(t, err)

	auth := NewAuthenticator(testSecret)
	srv := NewHTTPServer(":0", svc, access.NewService(logger), auth, logger)

	ts := &testServer{
		Server: httptest.NewServer(srv.Handler()),
		store:  store,
		auth:   auth,
		roomID: room.ID,
		client: addClient(t, store, models.RoleClient, true),
		other:  addClient(t, store, models.RoleClient, true),
		admin:  addClient(t, store, models.RoleAdmin, true),
	}
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) token(t *testing.T, c *models.Client) string {
	t.Helper()
	tok, err := ts.auth.IssueToken(c.ID, c.Role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, as *models.Client, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "api-test")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, as))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeError(t *testing.T, data []byte) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func TestAuthMiddleware(t *testing.T) {
	ts := setupTestServer(t)

	resp, _ := ts.do(t, nil, http.MethodGet, "/api/rooms", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/rooms", nil)
	forged, err := NewAuthenticator("other-secret").IssueToken(ts.admin.ID, models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+forged)
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, r.StatusCode)

	resp, _ = ts.do(t, ts.client, http.MethodGet, "/api/rooms", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestParseCaller(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	tok, err := auth.IssueToken("u1", models.RoleClient, time.Hour)
	require.NoError(t, err)
	c, err := auth.ParseCaller(tok)
	require.NoError(t, err)
	assert.Equal(t, models.Caller{ID: "u1", Role: models.RoleClient}, c)

	expired, err := auth.IssueToken("u1", models.RoleClient, -time.Minute)
	require.NoError(t, err)
	_, err = auth.ParseCaller(expired)
	assert.Error(t, err)

	unknown, err := auth.IssueToken("u1", models.Role("guest"), time.Hour)
	require.NoError(t, err)
	_, err = auth.ParseCaller(unknown)
	assert.Error(t, err)
}

func TestRooms(t *testing.T) {
	ts := setupTestServer(t)
	in := map[string]any{"name": "Room B", "open_time": "09:00", "close_time": "12:00", "block_minutes": 60}

	resp, data := ts.do(t, ts.client, http.MethodPost, "/api/rooms", in)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", decodeError(t, data).Code)

	resp, data = ts.do(t, ts.admin, http.MethodPost, "/api/rooms", in)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var room models.Room
	require.NoError(t, json.Unmarshal(data, &room))
	assert.True(t, room.Active)

	resp, data = ts.do(t, ts.admin, http.MethodPatch, "/api/rooms/"+room.ID, map[string]any{"close_time": "08:00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.ErrInvalidWindow.Error(), decodeError(t, data).Error)

	resp, _ = ts.do(t, ts.admin, http.MethodPatch, "/api/rooms/"+room.ID, map[string]any{"active": false})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data = ts.do(t, ts.client, http.MethodGet, "/api/rooms?active=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Rooms []models.Room `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, ts.roomID, list.Rooms[0].ID)

	resp, _ = ts.do(t, ts.client, http.MethodGet, "/api/rooms/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, ts.client, http.MethodGet, "/api/rooms/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidateRoom(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantError  string
	}{
		{"valid", map[string]any{"open_time": "08:00", "close_time": "18:00", "block_minutes": 30}, http.StatusOK, ""},
		{"bad format", map[string]any{"open_time": "8:00", "close_time": "18:00", "block_minutes": 30}, http.StatusBadRequest, models.ErrInvalidTimeFormat.Error()},
		{"bad duration", map[string]any{"open_time": "08:00", "close_time": "18:00", "block_minutes": 0}, http.StatusBadRequest, models.ErrInvalidDuration.Error()},
		{"bad window", map[string]any{"open_time": "18:00", "close_time": "08:00", "block_minutes": 30}, http.StatusBadRequest, models.ErrInvalidWindow.Error()},
		{"unknown field", map[string]any{"open": "08:00"}, http.StatusBadRequest, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := ts.do(t, ts.admin, http.MethodPost, "/api/rooms/validate", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, data).Error)
			}
		})
	}
}

func TestReservationFlow(t *testing.T) {
	ts := setupTestServer(t)
	slotsPath := fmt.Sprintf("/api/rooms/%s/slots?date=2024-05-20", ts.roomID)

	resp, data := ts.do(t, ts.client, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20T16:00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var res models.Reservation
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, ts.client.ID, res.ClientID)

	resp, data = ts.do(t, ts.other, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20 16:00"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "slot_conflict", decodeError(t, data).Code)

	resp, data = ts.do(t, ts.other, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20T08:10"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "slot_misaligned", decodeError(t, data).Code)

	resp, data = ts.do(t, ts.client, http.MethodGet, slotsPath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var free struct {
		Slots []string `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(data, &free))
	assert.Len(t, free.Slots, 19)
	assert.NotContains(t, free.Slots, "16:00")
	assert.Contains(t, free.Slots, "15:30")
	assert.Contains(t, free.Slots, "16:30")

	resp, data = ts.do(t, ts.client, http.MethodGet, slotsPath+"&view=all", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"available":false`)

	// Someone else's reservation is off limits.
	resp, _ = ts.do(t, ts.other, http.MethodGet, "/api/reservations/"+res.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = ts.do(t, ts.other, http.MethodPatch, "/api/reservations/"+res.ID+"/cancel", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, ts.client, http.MethodPatch, "/api/reservations/"+res.ID+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = ts.do(t, ts.admin, http.MethodPatch, "/api/reservations/"+res.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, models.StatusConfirmed, res.Status)

	resp, data = ts.do(t, ts.admin, http.MethodPatch, "/api/reservations/"+res.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", decodeError(t, data).Code)

	for i := 0; i < 2; i++ {
		resp, data = ts.do(t, ts.client, http.MethodPatch, "/api/reservations/"+res.ID+"/cancel", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.Unmarshal(data, &res))
		assert.Equal(t, models.StatusCancelled, res.Status)
	}

	resp, _ = ts.do(t, ts.admin, http.MethodPatch, "/api/reservations/"+res.ID+"/archive", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The freed slot can be booked again.
	resp, _ = ts.do(t, ts.other, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20T16:00"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCreateReservation_Rejections(t *testing.T) {
	ts := setupTestServer(t)
	inactive := addClient(t, ts.store, models.RoleClient, false)

	resp, data := ts.do(t, ts.admin, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20T09:00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.ErrMissingClient.Error(), decodeError(t, data).Error)

	resp, data = ts.do(t, ts.admin, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, ClientID: ts.client.ID, StartAt: "2024-05-20T09:00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	resp, _ = ts.do(t, inactive, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20T10:00"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, ts.admin, http.MethodPatch, "/api/rooms/"+ts.roomID, map[string]any{"active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, data = ts.do(t, ts.client, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20T10:00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "inactive", decodeError(t, data).Code)

	resp, _ = ts.do(t, ts.client, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: uuid.NewString(), StartAt: "2024-05-20T10:00"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListReservations_ScopedToClient(t *testing.T) {
	ts := setupTestServer(t)

	for _, at := range []string{"2024-05-20T09:00", "2024-05-21T09:00"} {
		resp, _ := ts.do(t, ts.client, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: at})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, _ := ts.do(t, ts.other, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20T10:00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	type listResp struct {
		Reservations []models.Reservation `json:"reservations"`
	}

	// A client asking for someone else still gets their own.
	resp, data := ts.do(t, ts.client, http.MethodGet, "/api/reservations?client_id="+ts.other.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var own listResp
	require.NoError(t, json.Unmarshal(data, &own))
	require.Len(t, own.Reservations, 2)
	assert.Equal(t, "2024-05-21", own.Reservations[0].StartAt.Format(models.DateLayout))

	resp, data = ts.do(t, ts.admin, http.MethodGet, "/api/reservations?from=2024-05-20&to=2024-05-20", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var day listResp
	require.NoError(t, json.Unmarshal(data, &day))
	assert.Len(t, day.Reservations, 2)

	resp, data = ts.do(t, ts.admin, http.MethodGet, "/api/reservations?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.ErrInvalidStatus.Error(), decodeError(t, data).Error)

	resp, _ = ts.do(t, ts.admin, http.MethodGet, "/api/reservations?from=20-05-2024", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListActivity(t *testing.T) {
	ts := setupTestServer(t)

	resp, _ := ts.do(t, ts.client, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20T09:00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = ts.do(t, ts.other, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20T10:00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	type listResp struct {
		Activity []models.Activity `json:"activity"`
	}

	resp, data := ts.do(t, ts.client, http.MethodGet, "/api/activity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var own listResp
	require.NoError(t, json.Unmarshal(data, &own))
	require.Len(t, own.Activity, 1)
	assert.Equal(t, models.ActivityReservationCreated, own.Activity[0].ActivityType)
	assert.Equal(t, "api-test", own.Activity[0].UserAgent)
	assert.Equal(t, "127.0.0.1", own.Activity[0].Origin)

	resp, data = ts.do(t, ts.admin, http.MethodGet, "/api/activity?module=reservation", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all listResp
	require.NoError(t, json.Unmarshal(data, &all))
	assert.Len(t, all.Activity, 2)
}

func TestDeactivatedClient_LosesSelfService(t *testing.T) {
	ts := setupTestServer(t)

	resp, data := ts.do(t, ts.client, http.MethodPost, "/api/reservations", CreateReservationRequest{RoomID: ts.roomID, StartAt: "2024-05-20T09:00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, string(data), `"start_at":"2024-05-20T09:00"`)
	var res models.Reservation
	require.NoError(t, json.Unmarshal(data, &res))

	tok := ts.token(t, ts.client)
	deactivated := *ts.client
	deactivated.Active = false
	require.NoError(t, ts.store.UpsertClient(context.Background(), &deactivated))

	get := func(path string) (*http.Response, []byte) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, body
	}

	for _, path := range []string{"/api/reservations", "/api/reservations/" + res.ID, "/api/activity"} {
		resp, data := get(path)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
		assert.Equal(t, "inactive", decodeError(t, data).Code, path)
	}

	// Admins still see the reservation.
	resp, _ = ts.do(t, ts.admin, http.MethodGet, "/api/reservations/"+res.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrInvalidDateTime, http.StatusBadRequest},
		{models.ErrRoomNotFound, http.StatusNotFound},
		{models.ErrClientInactive, http.StatusForbidden},
		{fmt.Errorf("admit: %w", models.ErrRoomInactive), http.StatusBadRequest},
		{models.ErrForbidden, http.StatusForbidden},
		{&access.AccessDeniedError{Reason: "admins only"}, http.StatusForbidden},
		{models.ErrSlotMisaligned, http.StatusBadRequest},
		{models.ErrSlotConflict, http.StatusConflict},
		{models.ErrInvalidTransition, http.StatusConflict},
		{models.ErrConcurrentModification, http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
