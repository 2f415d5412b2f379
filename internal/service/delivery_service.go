package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/conversa/internal/audit"
	"github.com/vedran77/conversa/internal/domain"
	"github.com/vedran77/conversa/internal/event"
	"github.com/vedran77/conversa/internal/observability/metrics"
	"github.com/vedran77/conversa/internal/presence"
	"github.com/vedran77/conversa/internal/repository"
	"github.com/vedran77/conversa/pkg/apperr"
)

// DeliveryService pushes durable messages and read receipts to live
// connections.
//
// A message moves Created → Delivered → Viewed. Created is written by the
// REST layer; this service only moves it forward, and each transition
// happens at most once.
type DeliveryService struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	presence      *presence.Index
	audit         audit.Sink
	logger        *slog.Logger
	now           func() time.Time
}

func NewDeliveryService(
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	idx *presence.Index,
	sink audit.Sink,
	logger *slog.Logger,
) *DeliveryService {
	return &DeliveryService{
		messages:      messages,
		conversations: conversations,
		presence:      idx,
		audit:         sink,
		logger:        logger,
		now:           time.Now,
	}
}

type AnnounceResult struct {
	Message     *domain.Message
	RecipientID uuid.UUID
	// Pushed reports whether the recipient's connection accepted the event.
	Pushed bool
	// Delivered reports whether the message is now marked delivered.
	Delivered bool
}

type ReadResult struct {
	Message *domain.Message
	// Changed is true only for the call that set the viewed timestamp.
	Changed bool
	// Confirmed reports whether the sender was pushed a read confirmation.
	Confirmed bool
}

// Announce pushes an already stored message to the other participant if
// they are online and marks it delivered. Offline recipients get nothing;
// they see the message through the REST history with delivered=false.
func (s *DeliveryService) Announce(ctx context.Context, callerID, conversationID, messageID uuid.UUID) (*AnnounceResult, error) {
	if conversationID == uuid.Nil || messageID == uuid.Nil {
		return nil, apperr.Validation("MISSING_FIELDS", "conversation_id and message_id are required")
	}

	meta := map[string]string{
		"conversation_id": conversationID.String(),
		"message_id":      messageID.String(),
	}

	msg, err := s.messages.GetInConversation(ctx, messageID, conversationID)
	if err != nil {
		return nil, s.fail(ctx, callerID, domain.ActionWSMessageError, meta, storeError("Could not load message", err))
	}
	if msg == nil {
		return nil, messageNotFound()
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, s.fail(ctx, callerID, domain.ActionWSMessageError, meta, storeError("Could not load conversation", err))
	}
	if conv == nil || !conv.HasParticipant(callerID) {
		return nil, messageNotFound()
	}

	// The recipient is whoever did not send the message, so an announce from
	// either side never pushes a message back to its own sender.
	recipientID := conv.OtherParticipant(msg.SenderID)
	meta["recipient_id"] = recipientID.String()
	result := &AnnounceResult{Message: msg, RecipientID: recipientID}

	conn, online := s.presence.Lookup(recipientID)
	if !online {
		metrics.MessagesPushedTotal.WithLabelValues("offline").Inc()
		s.record(ctx, callerID, domain.AuditSeverityInfo, domain.ActionWSMessageSent, "recipient offline", meta)
		return result, nil
	}

	data, err := event.Encode(event.TypeReceiveMessage, event.ReceiveMessagePayload{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		Text:           msg.Text,
		SentAt:         msg.SentAt.UTC(),
		SenderID:       msg.SenderID,
	})
	if err != nil {
		return nil, s.fail(ctx, callerID, domain.ActionWSMessageError, meta, storeError("Could not encode message", err))
	}

	// A connection that is going away refuses the frame; that is the same as
	// the recipient being offline.
	if !conn.Send(data) {
		metrics.MessagesPushedTotal.WithLabelValues("dropped").Inc()
		s.record(ctx, callerID, domain.AuditSeverityWarning, domain.ActionWSMessageSent, "recipient connection closing", meta)
		return result, nil
	}
	result.Pushed = true

	if _, err := s.messages.MarkDelivered(ctx, msg.ID); err != nil {
		return nil, s.fail(ctx, callerID, domain.ActionWSMessageError, meta, storeError("Could not mark message delivered", err))
	}
	msg.Delivered = true
	result.Delivered = true

	metrics.MessagesPushedTotal.WithLabelValues("delivered").Inc()
	s.record(ctx, callerID, domain.AuditSeverityInfo, domain.ActionWSMessageSent, "message delivered via websocket", meta)

	return result, nil
}

// MarkRead records that callerID viewed a message and tells the sender.
// Repeating it, or calling it on one's own message, succeeds without
// changing anything.
func (s *DeliveryService) MarkRead(ctx context.Context, callerID, messageID uuid.UUID) (*ReadResult, error) {
	if messageID == uuid.Nil {
		return nil, apperr.Validation("MISSING_FIELDS", "message_id is required")
	}

	meta := map[string]string{"message_id": messageID.String()}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, s.fail(ctx, callerID, domain.ActionWSMessageReadError, meta, storeError("Could not load message", err))
	}
	if msg == nil {
		return nil, messageNotFound()
	}

	conv, err := s.conversations.GetByID(ctx, msg.ConversationID)
	if err != nil {
		return nil, s.fail(ctx, callerID, domain.ActionWSMessageReadError, meta, storeError("Could not load conversation", err))
	}
	if conv == nil {
		return nil, messageNotFound()
	}
	if !conv.HasParticipant(callerID) {
		return nil, apperr.Forbidden("FORBIDDEN", "You are not allowed to mark this message as read", ErrNotParticipant)
	}

	if msg.SenderID == callerID {
		metrics.ReadReceiptsTotal.WithLabelValues("noop").Inc()
		return &ReadResult{Message: msg}, nil
	}

	updated, changed, err := s.messages.MarkViewed(ctx, msg.ID, callerID, s.now().UTC())
	if err != nil {
		return nil, s.fail(ctx, callerID, domain.ActionWSMessageReadError, meta, storeError("Could not mark message as read", err))
	}
	if updated == nil {
		// Deleted between the two reads.
		return nil, messageNotFound()
	}
	if !changed {
		metrics.ReadReceiptsTotal.WithLabelValues("noop").Inc()
		return &ReadResult{Message: updated}, nil
	}

	metrics.ReadReceiptsTotal.WithLabelValues("viewed").Inc()
	result := &ReadResult{Message: updated, Changed: true}

	if conn, online := s.presence.Lookup(updated.SenderID); online {
		data, err := event.Encode(event.TypeMessageReadConfirmation, event.ReadConfirmationPayload{
			MessageID: updated.ID,
			ViewedAt:  updated.ViewedAt.UTC(),
		})
		if err != nil {
			s.logger.Error("delivery: encode read confirmation", "message_id", updated.ID, "error", err)
		} else if conn.Send(data) {
			result.Confirmed = true
			metrics.ReadReceiptsTotal.WithLabelValues("confirmed").Inc()
		}
	}

	s.record(ctx, callerID, domain.AuditSeverityInfo, domain.ActionWSMessageRead, "message marked as read", meta)
	return result, nil
}

func (s *DeliveryService) record(ctx context.Context, userID uuid.UUID, severity domain.AuditSeverity, action domain.AuditAction, detail string, meta map[string]string) {
	s.audit.Record(ctx, domain.NewAuditEntry(userID, domain.AuditCategoryMessage, severity, action, detail, meta))
}

// fail logs and audits a store failure, then returns err unchanged.
func (s *DeliveryService) fail(ctx context.Context, userID uuid.UUID, action domain.AuditAction, meta map[string]string, err error) error {
	s.logger.Error("delivery: operation failed", "user_id", userID, "action", action, "error", err)
	s.record(ctx, userID, domain.AuditSeverityError, action, err.Error(), meta)
	return err
}
