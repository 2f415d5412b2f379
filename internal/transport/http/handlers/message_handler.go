package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vedran77/conversa/internal/service"
	"github.com/vedran77/conversa/internal/transport/http/middleware"
	"github.com/vedran77/conversa/pkg/validator"
)

type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, ok := pathID(w, r, "id", "conversation")
	if !ok {
		return
	}

	var input struct {
		Text string `json:"texto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.ValidateMessageText(input.Text); errs.HasErrors() {
		writeValidationErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	msg, err := h.messages.Send(r.Context(), userID, convID, input.Text)
	if err != nil {
		writeServiceError(w, h.logger, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, ok := pathID(w, r, "id", "conversation")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	resp, err := h.messages.List(r.Context(), userID, convID, page, perPage)
	if err != nil {
		writeServiceError(w, h.logger, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, ok := pathID(w, r, "id", "conversation")
	if !ok {
		return
	}
	msgID, ok := pathID(w, r, "mensagem_id", "message")
	if !ok {
		return
	}

	if err := h.messages.Delete(r.Context(), userID, convID, msgID); err != nil {
		writeServiceError(w, h.logger, "delete message", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
