package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nir-assistant/server/internal/agent"
	errx "github.com/nir-assistant/server/internal/core/error"
	logx "github.com/nir-assistant/server/pkg/logger"
)

// ChatHandler handles the chat and reset endpoints.
type ChatHandler struct {
	orchestrator *agent.Orchestrator
}

func NewChatHandler(orchestrator *agent.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/chat", h.handleChat)
	mux.HandleFunc("POST /api/v1/reset", h.handleReset)
}

// ChatRequest is the inbound chat payload. ConversationID is optional; a
// fresh conversation is created when it is omitted.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse carries the assistant reply and the conversation it belongs to.
type ChatResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// ResetRequest identifies the conversation to reset.
type ResetRequest struct {
	ConversationID string `json:"conversation_id"`
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	reply, err := h.orchestrator.Handle(r.Context(), conversationID, req.Message)
	if err != nil {
		h.writeHandlerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{ConversationID: conversationID, Reply: reply})
}

func (h *ChatHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "conversation_id is required")
		return
	}

	if err := h.orchestrator.ResetConversation(r.Context(), req.ConversationID); err != nil {
		h.writeHandlerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeHandlerError maps an AppError to its HTTP status and safe message;
// anything else is a 500 with the generic system message.
func (h *ChatHandler) writeHandlerError(w http.ResponseWriter, err error) {
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		writeError(w, appErr.Status, "request_failed", appErr.Message)
		return
	}
	logx.Error().Err(err).Msg("unhandled chat error")
	writeError(w, http.StatusInternalServerError, "internal_error", errx.SystemErrorMessage)
}
