package api

import (
	"net/http"
	"strconv"

	"reserva/internal/models"
)

// ValidateRoomRequest is the body of POST /api/rooms/validate.
type ValidateRoomRequest struct {
	OpenTime     string `json:"open_time"`
	CloseTime    string `json:"close_time"`
	BlockMinutes int    `json:"block_minutes"`
}

// SlotsResponse is returned by GET /api/rooms/{id}/slots.
type SlotsResponse struct {
	RoomID string `json:"room_id"`
	Date   string `json:"date"`
	Slots  any    `json:"slots"`
}

// handleListRooms lists rooms.
// GET /api/rooms?active=true
func (s *HTTPServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	var activeOnly *bool
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, string(models.KindInvalidInput), "active must be true or false")
			return
		}
		activeOnly = &b
	}

	rooms, err := s.booking.ListRooms(r.Context(), activeOnly)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// POST /api/rooms
func (s *HTTPServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.access.RequireRole(r.Context(), caller(r), models.RoleAdmin); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var in models.RoomInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, string(models.KindInvalidInput), "invalid JSON body")
		return
	}

	room, err := s.booking.CreateRoom(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// handleValidateRoom checks a configuration without saving it.
// POST /api/rooms/validate
func (s *HTTPServer) handleValidateRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.access.RequireRole(r.Context(), caller(r), models.RoleAdmin); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var req ValidateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(models.KindInvalidInput), "invalid JSON body")
		return
	}
	if err := s.booking.ValidateRoomConfig(req.OpenTime, req.CloseTime, req.BlockMinutes); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// GET /api/rooms/{id}
func (s *HTTPServer) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.booking.GetRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// PATCH /api/rooms/{id}
func (s *HTTPServer) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.access.RequireRole(r.Context(), caller(r), models.RoleAdmin); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var patch models.RoomPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, string(models.KindInvalidInput), "invalid JSON body")
		return
	}

	room, err := s.booking.UpdateRoom(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleRoomSlots returns the free slots of a day, or every slot with its
// availability when view=all.
// GET /api/rooms/{id}/slots?date=YYYY-MM-DD&view=all
func (s *HTTPServer) handleRoomSlots(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	date := r.URL.Query().Get("date")

	resp := SlotsResponse{RoomID: roomID, Date: date}
	if r.URL.Query().Get("view") == "all" {
		schedule, err := s.booking.Schedule(r.Context(), roomID, date)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		resp.Slots = schedule
	} else {
		free, err := s.booking.AvailableSlots(r.Context(), roomID, date)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		if free == nil {
			free = []string{}
		}
		resp.Slots = free
	}
	writeJSON(w, http.StatusOK, resp)
}
