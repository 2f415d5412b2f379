package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vedran77/conversa/internal/audit"
	"github.com/vedran77/conversa/internal/domain"
	"github.com/vedran77/conversa/internal/event"
	"github.com/vedran77/conversa/internal/observability/metrics"
	"github.com/vedran77/conversa/internal/presence"
	"github.com/vedran77/conversa/internal/service"
	"github.com/vedran77/conversa/pkg/apperr"
	"github.com/vedran77/conversa/pkg/validator"
)

// Deliverer moves stored messages through delivery and read states.
type Deliverer interface {
	Announce(ctx context.Context, callerID, conversationID, messageID uuid.UUID) (*service.AnnounceResult, error)
	MarkRead(ctx context.Context, callerID, messageID uuid.UUID) (*service.ReadResult, error)
}

// MembershipChecker answers whether a user may join a conversation's room.
type MembershipChecker interface {
	CheckParticipant(ctx context.Context, userID, conversationID uuid.UUID) (*domain.Conversation, error)
}

type HubConfig struct {
	// RequireRoomMembership makes join_conversation check that the user is
	// a participant of the conversation.
	RequireRoomMembership bool
	SendBuffer            int
}

// Hub owns the live side of the service: the presence index, the rooms and
// the event handlers for every connection.
type Hub struct {
	presence      *presence.Index
	rooms         *Rooms
	delivery      Deliverer
	conversations MembershipChecker
	audit         audit.Sink
	logger        *slog.Logger
	cfg           HubConfig
}

func NewHub(
	idx *presence.Index,
	rooms *Rooms,
	delivery Deliverer,
	conversations MembershipChecker,
	sink audit.Sink,
	logger *slog.Logger,
	cfg HubConfig,
) *Hub {
	return &Hub{
		presence:      idx,
		rooms:         rooms,
		delivery:      delivery,
		conversations: conversations,
		audit:         sink,
		logger:        logger,
		cfg:           cfg,
	}
}

// Connect registers c as its user's live connection.
func (h *Hub) Connect(c *Client) {
	if evicted := h.presence.Register(c.userID, c); evicted != nil {
		h.logger.Info("ws hub: connection replaced", "user_id", c.userID)
	}
	h.logger.Info("ws hub: user connected", "user_id", c.userID, "online", h.presence.Online())

	h.reply(c, event.TypeConnectionSuccess, event.StatusPayload{Message: "Connected"})
}

// Disconnect removes c from presence and from every room, then stops its
// write pump. A replaced connection leaves the newer one registered.
func (h *Hub) Disconnect(c *Client) {
	_, wasRegistered := h.presence.UnregisterByHandle(c)
	rooms := h.rooms.LeaveAll(c)
	c.close()

	h.logger.Info("ws hub: user disconnected",
		"user_id", c.userID, "registered", wasRegistered, "rooms", rooms, "online", h.presence.Online())
}

// Shutdown drops every live entry. Connections close on their own when the
// server context is cancelled.
func (h *Hub) Shutdown() {
	h.presence.Reset()
}

// HandleEvent routes one incoming event. Failures are reported only to c.
func (h *Hub) HandleEvent(ctx context.Context, c *Client, evt *event.Event) {
	var err error

	switch evt.Type {
	case event.TypeJoinConversation:
		err = h.handleJoin(ctx, c, evt.Payload)
	case event.TypeLeaveConversation:
		err = h.handleLeave(ctx, c, evt.Payload)
	case event.TypeNewMessage:
		err = h.handleNewMessage(ctx, c, evt.Payload)
	case event.TypeMessageRead:
		err = h.handleMessageRead(ctx, c, evt.Payload)
	case event.TypeTypingStart:
		err = h.handleTyping(c, evt.Payload)
	case event.TypePing:
		h.reply(c, event.TypePong, nil)
	default:
		metrics.WSEventsTotal.WithLabelValues("unknown", "error").Inc()
		h.sendError(c, apperr.Validation("UNKNOWN_EVENT", "unknown event type: "+evt.Type))
		return
	}

	if err != nil {
		metrics.WSEventsTotal.WithLabelValues(evt.Type, "error").Inc()
		h.sendError(c, err)
		return
	}
	metrics.WSEventsTotal.WithLabelValues(evt.Type, "ok").Inc()
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, raw json.RawMessage) error {
	convID, err := parseConversationID(raw)
	if err != nil {
		return err
	}
	meta := map[string]string{"conversation_id": convID.String()}

	if h.cfg.RequireRoomMembership {
		if _, err := h.conversations.CheckParticipant(ctx, c.userID, convID); err != nil {
			if !apperr.IsKind(err, apperr.KindStore) {
				h.record(ctx, c.userID, domain.AuditSeverityWarning, domain.ActionWSJoinDenied, "join refused", meta)
			}
			return err
		}
	}

	h.rooms.Join(c, convID)
	h.record(ctx, c.userID, domain.AuditSeverityInfo, domain.ActionWSJoinConversation, "joined conversation room", meta)

	h.reply(c, event.TypeJoinSuccess, event.RoomPayload{Message: "Joined conversation", ConversationID: convID})
	return nil
}

func (h *Hub) handleLeave(ctx context.Context, c *Client, raw json.RawMessage) error {
	convID, err := parseConversationID(raw)
	if err != nil {
		return err
	}

	h.rooms.Leave(c, convID)
	h.record(ctx, c.userID, domain.AuditSeverityInfo, domain.ActionWSLeaveConversation, "left conversation room",
		map[string]string{"conversation_id": convID.String()})

	h.reply(c, event.TypeLeaveSuccess, event.RoomPayload{Message: "Left conversation", ConversationID: convID})
	return nil
}

func (h *Hub) handleNewMessage(ctx context.Context, c *Client, raw json.RawMessage) error {
	var p event.NewMessagePayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	errs := make(validator.ValidationErrors)
	convID := validator.ParseID(p.ConversationID, "conversation_id", errs)
	msgID := validator.ParseID(p.MessageID, "message_id", errs)
	if errs.HasErrors() {
		return apperr.Validation("MISSING_FIELDS", "conversation_id and message_id are required")
	}

	res, err := h.delivery.Announce(ctx, c.userID, convID, msgID)
	if err != nil {
		return err
	}
	h.logger.Debug("ws hub: message announced",
		"message_id", msgID, "recipient_id", res.RecipientID, "pushed", res.Pushed)
	return nil
}

func (h *Hub) handleMessageRead(ctx context.Context, c *Client, raw json.RawMessage) error {
	var p event.MessageReadPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	errs := make(validator.ValidationErrors)
	msgID := validator.ParseID(p.MessageID, "message_id", errs)
	if errs.HasErrors() {
		return apperr.Validation("MISSING_FIELDS", "message_id is required")
	}

	if _, err := h.delivery.MarkRead(ctx, c.userID, msgID); err != nil {
		return err
	}

	h.reply(c, event.TypeReadSuccess, event.ReadSuccessPayload{Message: "Message marked as read", MessageID: msgID})
	return nil
}

func (h *Hub) handleTyping(c *Client, raw json.RawMessage) error {
	convID, err := parseConversationID(raw)
	if err != nil {
		return err
	}
	if !h.rooms.IsMember(c, convID) {
		return apperr.Forbidden("NOT_IN_CONVERSATION", "Join the conversation before sending typing events", service.ErrNotParticipant)
	}

	data, err := event.Encode(event.TypeTyping, event.TypingPayload{ConversationID: convID, UserID: c.userID})
	if err != nil {
		return apperr.Store("Could not encode event", err)
	}
	h.rooms.Broadcast(convID, data, c)
	return nil
}

func (h *Hub) reply(c *Client, eventType string, payload any) {
	data, err := event.Encode(eventType, payload)
	if err != nil {
		h.logger.Error("ws hub: encode event", "type", eventType, "error", err)
		return
	}
	if !c.Send(data) {
		h.logger.Warn("ws hub: send buffer full, dropping event", "user_id", c.userID, "type", eventType)
	}
}

func (h *Hub) sendError(c *Client, err error) {
	if apperr.IsKind(err, apperr.KindStore) {
		h.logger.Error("ws hub: event failed", "user_id", c.userID, "error", err)
	}
	h.reply(c, event.TypeError, event.ErrorPayload{Error: apperr.Public(err), Code: apperr.CodeOf(err)})
}

func (h *Hub) record(ctx context.Context, userID uuid.UUID, severity domain.AuditSeverity, action domain.AuditAction, detail string, meta map[string]string) {
	h.audit.Record(ctx, domain.NewAuditEntry(userID, domain.AuditCategoryConversation, severity, action, detail, meta))
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return apperr.Validation("INVALID_PAYLOAD", "payload is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.Validation("INVALID_PAYLOAD", "invalid payload")
	}
	return nil
}

func parseConversationID(raw json.RawMessage) (uuid.UUID, error) {
	var p event.ConversationPayload
	if err := decode(raw, &p); err != nil {
		return uuid.Nil, err
	}
	errs := make(validator.ValidationErrors)
	id := validator.ParseID(p.ConversationID, "conversation_id", errs)
	if errs.HasErrors() {
		return uuid.Nil, apperr.Validation("MISSING_CONVERSATION_ID", errs["conversation_id"])
	}
	return id, nil
}
