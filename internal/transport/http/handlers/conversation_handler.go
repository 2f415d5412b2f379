package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vedran77/conversa/internal/service"
	"github.com/vedran77/conversa/internal/transport/http/middleware"
)

type ConversationHandler struct {
	conversations *service.ConversationService
	logger        *slog.Logger
}

func NewConversationHandler(conversations *service.ConversationService, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, logger: logger}
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		ContactID uuid.UUID `json:"contato_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	conv, created, err := h.conversations.GetOrCreate(r.Context(), userID, input.ContactID)
	if err != nil {
		writeServiceError(w, h.logger, "create conversation", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, conv)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convs, err := h.conversations.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "list conversations", err)
		return
	}

	writeJSON(w, http.StatusOK, convs)
}

func (h *ConversationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, ok := pathID(w, r, "id", "conversation")
	if !ok {
		return
	}

	n, err := h.conversations.Clear(r.Context(), userID, convID)
	if err != nil {
		writeServiceError(w, h.logger, "clear conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"removidas": n})
}
