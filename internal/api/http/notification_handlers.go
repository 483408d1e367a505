package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleNotificationStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(w, r); !ok {
		return
	}
	eventID := chi.URLParam(r, "eventID")
	rec := s.ledger.Status(r.Context(), eventID)
	if rec == nil {
		writeError(w, http.StatusNotFound, "no delivery record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleNotificationAck records an in-app delivery acknowledgment. It may
// arrive before the dispatch-time write; the ledger tolerates that race.
func (s *Server) handleNotificationAck(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(w, r); !ok {
		return
	}
	eventID := chi.URLParam(r, "eventID")
	s.ledger.MarkDelivered(r.Context(), eventID)
	w.WriteHeader(http.StatusNoContent)
}

// handleReportAlerts fans out a nearby-report alert to the given recipients.
// The report itself was committed by the report write path before this call.
func (s *Server) handleReportAlerts(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(w, r); !ok {
		return
	}
	reportID := chi.URLParam(r, "reportID")

	var req struct {
		Title      string   `json:"title"`
		Message    string   `json:"message"`
		Recipients []string `json:"recipients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Recipients) == 0 {
		writeError(w, http.StatusBadRequest, "no recipients")
		return
	}

	res := s.reportSvc.AlertNearby(r.Context(), reportID, req.Title, req.Message, req.Recipients)
	writeJSON(w, http.StatusAccepted, map[string]int{
		"enqueued": res.Enqueued,
		"skipped":  res.Skipped,
		"failed":   res.Failed,
	})
}
