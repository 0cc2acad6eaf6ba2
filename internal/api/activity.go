package api

import (
	"net/http"

	"reserva/internal/booking"
	"reserva/internal/models"
)

// handleListActivity lists audit records visible to the caller.
// GET /api/activity?client_id=&activity_type=&module=&from=YYYY-MM-DD&to=YYYY-MM-DD&page=1
func (s *HTTPServer) handleListActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.booking.EnsureActiveCaller(r.Context(), caller(r)); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	q := r.URL.Query()

	from, to, err := booking.ParseDateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	filter := s.access.ScopeActivityFilter(caller(r), models.ActivityFilter{
		ClientID:     q.Get("client_id"),
		ActivityType: q.Get("activity_type"),
		Module:       q.Get("module"),
		From:         from,
		To:           to,
	})

	list, err := s.booking.ListActivity(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	page, perPage := pageParams(q)
	items, meta := paginate(list, page, perPage)
	writeJSON(w, http.StatusOK, map[string]any{"activity": items, "page": meta})
}
