package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/orchestrator"
)

// Customer-facing Arabic error lines.
const (
	errInvalidBodyAr  = "طلب غير صالح، تأكد من صيغة الرسالة"
	errEmptyMessageAr = "الرسالة فارغة، اكتب طلبك"
	errNotFoundAr     = "الجلسة غير موجودة"
	errInternalAr     = "عذراً، حدث خطأ في النظام. الرجاء المحاولة مرة أخرى."
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	State     string `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBodyAr)
		return
	}

	turn, err := s.conversations.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, errEmptyMessageAr)
		case errors.Is(err, context.Canceled):
			// The client went away; there is nobody left to answer.
			slog.Warn("chat turn cancelled", "session_id", req.SessionID)
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, errInternalAr)
		default:
			slog.Error("chat turn failed", "session_id", req.SessionID, "error", err)
			writeError(w, http.StatusInternalServerError, errInternalAr)
		}
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: turn.SessionID,
		Reply:     turn.Reply,
		State:     string(turn.State),
	})
}

// handleGetSession returns the full session snapshot. It is a diagnostic
// endpoint: the session's own JSON shape is the contract.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, errNotFoundAr)
			return
		}
		slog.Error("session lookup failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, errInternalAr)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, errNotFoundAr)
			return
		}
		slog.Error("session delete failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, errInternalAr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, messageAr string) {
	writeJSON(w, status, errorResponse{Error: messageAr})
}
