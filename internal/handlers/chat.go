package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"warren-backend/internal/middleware"
	"warren-backend/internal/models"
	"warren-backend/internal/services"
)

type turnDispatcher interface {
	Dispatch(ctx context.Context, sess *services.ConversationSession, cmd services.Command) (*models.TurnReceipt, error)
}

type ChatHandler struct {
	sessions   sessionStore
	dispatcher turnDispatcher
}

func NewChatHandler(sessions sessionStore, dispatcher turnDispatcher) *ChatHandler {
	return &ChatHandler{
		sessions:   sessions,
		dispatcher: dispatcher,
	}
}

// SendMessage starts a free-text turn. The reply arrives over the feed; the
// 202 receipt only identifies the entries it will land in.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sess, err := h.sessions.Get(middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	receipt, err := h.dispatcher.Dispatch(r.Context(), sess, services.Command{
		Intent:  services.IntentSendMessage,
		Message: req.Message,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, receipt)
}

// AskPlaypen starts the canned playpen question turn, same flow as a typed
// message.
func (h *ChatHandler) AskPlaypen(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	receipt, err := h.dispatcher.Dispatch(r.Context(), sess, services.Command{
		Intent: services.IntentAskPlaypen,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, receipt)
}
