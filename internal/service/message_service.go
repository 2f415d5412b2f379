package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/conversa/internal/audit"
	"github.com/vedran77/conversa/internal/domain"
	"github.com/vedran77/conversa/internal/repository"
	"github.com/vedran77/conversa/pkg/apperr"
	"github.com/vedran77/conversa/pkg/validator"
)

// MessageService is the durable side of messaging. It never pushes: clients
// announce stored messages over the live channel.
type MessageService struct {
	messages      repository.MessageRepository
	conversations *ConversationService
	audit         audit.Sink
	logger        *slog.Logger
	now           func() time.Time
}

func NewMessageService(
	messages repository.MessageRepository,
	conversations *ConversationService,
	sink audit.Sink,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:      messages,
		conversations: conversations,
		audit:         sink,
		logger:        logger,
		now:           time.Now,
	}
}

// Send stores a new message from userID in the Created state.
func (s *MessageService) Send(ctx context.Context, userID, conversationID uuid.UUID, text string) (*domain.Message, error) {
	if errs := validator.ValidateMessageText(text); errs.HasErrors() {
		return nil, apperr.Validation("INVALID_TEXT", errs["texto"])
	}

	conv, err := s.conversations.CheckParticipant(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       userID,
		Text:           text,
		SentAt:         s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, storeError("Could not send message", err)
	}

	s.record(ctx, userID, domain.AuditSeverityInfo, domain.ActionMessageCreated, "message created", map[string]string{
		"conversa_id":     conversationID.String(),
		"mensagem_id":     msg.ID.String(),
		"destinatario_id": conv.OtherParticipant(userID).String(),
	})
	return msg, nil
}

// List returns one page of history, newest first.
func (s *MessageService) List(ctx context.Context, userID, conversationID uuid.UUID, page, perPage int) (*domain.MessagePage, error) {
	if _, err := s.conversations.CheckParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	page, perPage = validator.NormalizePage(page, perPage)
	messages, total, err := s.messages.ListPage(ctx, conversationID, userID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, storeError("Could not load messages", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return &domain.MessagePage{
		Messages:    messages,
		Total:       total,
		Pages:       (total + perPage - 1) / perPage,
		CurrentPage: page,
	}, nil
}

// Delete hides one of userID's own messages from their history.
func (s *MessageService) Delete(ctx context.Context, userID, conversationID, messageID uuid.UUID) error {
	if _, err := s.conversations.CheckParticipant(ctx, userID, conversationID); err != nil {
		return err
	}

	meta := map[string]string{
		"conversa_id": conversationID.String(),
		"mensagem_id": messageID.String(),
	}

	msg, err := s.messages.GetInConversation(ctx, messageID, conversationID)
	if err != nil {
		return storeError("Could not load message", err)
	}
	if msg == nil {
		return messageNotFound()
	}
	if msg.SenderID != userID {
		s.record(ctx, userID, domain.AuditSeverityWarning, domain.ActionMessageDeleteDenied, "attempt to delete another user's message", meta)
		return apperr.Forbidden("FORBIDDEN", "You can only delete your own messages", ErrNotMessageOwner)
	}

	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return storeError("Could not delete message", err)
	}

	s.record(ctx, userID, domain.AuditSeverityInfo, domain.ActionMessageDeleted, "message marked as deleted", meta)
	return nil
}

func (s *MessageService) record(ctx context.Context, userID uuid.UUID, severity domain.AuditSeverity, action domain.AuditAction, detail string, meta map[string]string) {
	s.audit.Record(ctx, domain.NewAuditEntry(userID, domain.AuditCategoryMessage, severity, action, detail, meta))
}
