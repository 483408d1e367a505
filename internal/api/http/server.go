package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	appChat "github.com/Tuwebai/safespot-sub004/internal/application/chat"
	appReport "github.com/Tuwebai/safespot-sub004/internal/application/report"
	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/sse"
)

// actorHeader carries the caller's anonymous identifier. Authentication is
// an upstream concern; handlers only consume the resolved identity.
const actorHeader = "X-Anonymous-Id"

// Server holds dependencies for HTTP handlers.
type Server struct {
	chatSvc   *appChat.Service
	reportSvc *appReport.Service
	ledger    notification.Ledger
	sseHub    *sse.Hub
	logger    zerolog.Logger
}

func NewServer(
	chatSvc *appChat.Service,
	reportSvc *appReport.Service,
	ledger notification.Ledger,
	sseHub *sse.Hub,
	logger zerolog.Logger,
) *Server {
	return &Server{
		chatSvc:   chatSvc,
		reportSvc: reportSvc,
		ledger:    ledger,
		sseHub:    sseHub,
		logger:    logger.With().Str("service", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/stream", s.handleStream)

	r.Route("/api/rooms/{roomID}", func(r chi.Router) {
		r.Post("/messages", s.handleSendMessage)
		r.Post("/read", s.handleMarkRead)
		r.Post("/pin", s.handleTogglePin)
	})
	r.Delete("/api/messages/{messageID}", s.handleDeleteMessage)

	r.Route("/api/notifications/{eventID}", func(r chi.Router) {
		r.Get("/", s.handleNotificationStatus)
		r.Post("/ack", s.handleNotificationAck)
	})

	r.Post("/api/reports/{reportID}/alerts", s.handleReportAlerts)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// actor resolves the caller identity or writes a 401.
func (s *Server) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(actorHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing anonymous id")
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
