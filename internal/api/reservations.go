package api

import (
	"net/http"

	"reserva/internal/booking"
	"reserva/internal/models"
)

// CreateReservationRequest is the body of POST /api/reservations.
type CreateReservationRequest struct {
	RoomID   string `json:"room_id"`
	ClientID string `json:"client_id,omitempty"` // admins only
	StartAt  string `json:"start_at"`            // "2024-05-20T09:00"
}

// handleCreateReservation admits a reservation request.
// POST /api/reservations
func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(models.KindInvalidInput), "invalid JSON body")
		return
	}

	clientID, err := s.access.ResolveBookingClient(caller(r), req.ClientID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	res, err := s.booking.Admit(r.Context(), clientID, req.RoomID, req.StartAt)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleListReservations lists reservations visible to the caller.
// GET /api/reservations?client_id=&room_id=&status=&from=YYYY-MM-DD&to=YYYY-MM-DD&page=1&per_page=50
func (s *HTTPServer) handleListReservations(w http.ResponseWriter, r *http.Request) {
	if err := s.booking.EnsureActiveCaller(r.Context(), caller(r)); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	q := r.URL.Query()

	status, err := booking.ParseStatus(q.Get("status"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	from, to, err := booking.ParseDateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	filter := s.access.ScopeReservationFilter(caller(r), models.ReservationFilter{
		ClientID: q.Get("client_id"),
		RoomID:   q.Get("room_id"),
		Status:   status,
		From:     from,
		To:       to,
	})

	list, err := s.booking.ListReservations(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	page, perPage := pageParams(q)
	items, meta := paginate(list, page, perPage)
	writeJSON(w, http.StatusOK, map[string]any{"reservations": items, "page": meta})
}

// GET /api/reservations/{id}
func (s *HTTPServer) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := s.booking.GetReservation(r.Context(), r.PathValue("id"), caller(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleTransition moves a reservation through its lifecycle.
// PATCH /api/reservations/{id}/{approve|reject|cancel|complete}
func (s *HTTPServer) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, c := r.PathValue("id"), caller(r)

	var (
		res *models.Reservation
		err error
	)
	switch r.PathValue("action") {
	case "approve":
		res, err = s.booking.Approve(r.Context(), id, c)
	case "reject":
		res, err = s.booking.Reject(r.Context(), id, c)
	case "cancel":
		res, err = s.booking.Cancel(r.Context(), id, c)
	case "complete":
		res, err = s.booking.Complete(r.Context(), id, c)
	default:
		writeError(w, http.StatusNotFound, string(models.KindNotFound), "unknown action")
		return
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
