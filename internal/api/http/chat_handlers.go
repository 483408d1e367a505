package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Tuwebai/safespot-sub004/internal/domain/chat"
)

// The handlers below return 2xx as soon as the primary transaction commits;
// notification fan-out runs post-commit and is best-effort.

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.actor(w, r)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := s.chatSvc.SendMessage(r.Context(), roomID, actorID, req.Body)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyBody) || errors.Is(err, chat.ErrBodyTooLong) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("send message failed")
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.actor(w, r)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	marked, err := s.chatSvc.MarkRead(r.Context(), roomID, actorID)
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("mark read failed")
		writeError(w, http.StatusInternalServerError, "failed to mark messages read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": marked})
}

func (s *Server) handleTogglePin(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.actor(w, r)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	var req struct {
		Pinned bool `json:"pinned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.chatSvc.TogglePin(r.Context(), roomID, actorID, req.Pinned); err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("toggle pin failed")
		writeError(w, http.StatusInternalServerError, "failed to update pin")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"pinned": req.Pinned})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.actor(w, r)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	if err := s.chatSvc.DeleteMessage(r.Context(), messageID, actorID); err != nil {
		switch {
		case errors.Is(err, chat.ErrMessageNotFound):
			writeError(w, http.StatusNotFound, "message not found")
		case errors.Is(err, chat.ErrNotSender):
			writeError(w, http.StatusForbidden, "not the sender")
		default:
			s.logger.Error().Err(err).Str("message_id", messageID.String()).Msg("delete message failed")
			writeError(w, http.StatusInternalServerError, "failed to delete message")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
