package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"warren-backend/internal/middleware"
	"warren-backend/internal/models"
	"warren-backend/internal/services"
)

type sessionStore interface {
	Create() *services.ConversationSession
	Get(id uuid.UUID) (*services.ConversationSession, error)
}

type assistantStatus interface {
	Available() bool
}

type SessionHandler struct {
	sessions  sessionStore
	assistant assistantStatus
	auth      *middleware.SessionAuth
}

func NewSessionHandler(sessions sessionStore, assistant assistantStatus, auth *middleware.SessionAuth) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		assistant: assistant,
		auth:      auth,
	}
}

// Create opens a conversation for a fresh widget load. It always succeeds,
// even when the assistant is down; the widget uses assistant_available to
// show its own notice instead of a broken chat.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create()

	token, err := h.auth.GenerateSessionToken(sess.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to issue session token", r))
		return
	}

	writeJSON(w, http.StatusCreated, models.SessionResponse{
		SessionID: sess.ID,
		Token:     token,
		Available: h.assistant.Available(),
	})
}

// Transcript returns the current conversation snapshot, used by the widget
// to rebuild its view after a reconnect.
func (h *SessionHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TranscriptResponse{
		Entries: sess.Transcript.Snapshot(),
		Busy:    sess.Transcript.Busy(),
	})
}
