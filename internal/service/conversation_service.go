package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/conversa/internal/audit"
	"github.com/vedran77/conversa/internal/domain"
	"github.com/vedran77/conversa/internal/repository"
	"github.com/vedran77/conversa/pkg/apperr"
)

type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	contacts      repository.ContactRepository
	users         repository.UserRepository
	audit         audit.Sink
	logger        *slog.Logger
}

func NewConversationService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	contacts repository.ContactRepository,
	users repository.UserRepository,
	sink audit.Sink,
	logger *slog.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		contacts:      contacts,
		users:         users,
		audit:         sink,
		logger:        logger,
	}
}

// GetOrCreate returns the conversation between userID and contactID,
// creating it when needed. created is false for an existing conversation.
func (s *ConversationService) GetOrCreate(ctx context.Context, userID, contactID uuid.UUID) (conv *domain.Conversation, created bool, err error) {
	if contactID == uuid.Nil {
		return nil, false, apperr.Validation("MISSING_CONTACT_ID", "contato_id is required")
	}
	if userID == contactID {
		return nil, false, &apperr.Error{Kind: apperr.KindValidation, Code: "CANNOT_CONVERSE_SELF",
			Message: "Cannot start a conversation with yourself", Err: ErrCannotConverseSelf}
	}

	meta := map[string]string{"contato_id": contactID.String()}

	other, err := s.users.GetByID(ctx, contactID)
	if err != nil {
		return nil, false, storeError("Could not load user", err)
	}
	if other == nil {
		return nil, false, apperr.NotFound("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	contact, err := s.contacts.Get(ctx, userID, contactID)
	if err != nil {
		return nil, false, storeError("Could not load contact", err)
	}
	if contact == nil || contact.Blocked {
		s.record(ctx, userID, domain.AuditSeverityWarning, domain.ActionConversationDenied, "contact not found or blocked", meta)
		return nil, false, apperr.Forbidden("CONTACT_UNAVAILABLE", "Contact not found or blocked", ErrContactUnavailable)
	}

	conv, err = s.conversations.GetByUsers(ctx, userID, contactID)
	if err != nil {
		return nil, false, storeError("Could not load conversation", err)
	}
	if conv != nil {
		meta["conversa_id"] = conv.ID.String()
		s.record(ctx, userID, domain.AuditSeverityInfo, domain.ActionConversationExists, "conversation already exists", meta)
		return conv, false, nil
	}

	conv = &domain.Conversation{
		ID:        uuid.New(),
		User1ID:   userID,
		User2ID:   contactID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		if errors.Is(err, repository.ErrConversationExists) {
			// Lost a race with the other participant.
			existing, getErr := s.conversations.GetByUsers(ctx, userID, contactID)
			if getErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, storeError("Could not create conversation", err)
	}

	meta["conversa_id"] = conv.ID.String()
	s.record(ctx, userID, domain.AuditSeverityInfo, domain.ActionConversationCreated, "conversation created", meta)
	return conv, true, nil
}

// List returns every conversation userID takes part in.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	convs, err := s.conversations.ListSummaries(ctx, userID)
	if err != nil {
		return nil, storeError("Could not list conversations", err)
	}
	if convs == nil {
		convs = []domain.ConversationSummary{}
	}
	return convs, nil
}

// CheckParticipant loads a conversation and ensures userID is one of its
// two participants. Outsiders get the same not-found error as a missing
// conversation.
func (s *ConversationService) CheckParticipant(ctx context.Context, userID, conversationID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, storeError("Could not load conversation", err)
	}
	if conv == nil || !conv.HasParticipant(userID) {
		return nil, conversationNotFound()
	}
	return conv, nil
}

// Clear soft-deletes every message userID sent in the conversation.
func (s *ConversationService) Clear(ctx context.Context, userID, conversationID uuid.UUID) (int64, error) {
	if _, err := s.CheckParticipant(ctx, userID, conversationID); err != nil {
		return 0, err
	}

	n, err := s.messages.SoftDeleteBySender(ctx, conversationID, userID)
	if err != nil {
		return 0, storeError("Could not remove messages", err)
	}

	s.record(ctx, userID, domain.AuditSeverityInfo, domain.ActionConversationCleared, "own messages marked as deleted",
		map[string]string{"conversa_id": conversationID.String()})
	return n, nil
}

func (s *ConversationService) record(ctx context.Context, userID uuid.UUID, severity domain.AuditSeverity, action domain.AuditAction, detail string, meta map[string]string) {
	s.audit.Record(ctx, domain.NewAuditEntry(userID, domain.AuditCategoryConversation, severity, action, detail, meta))
}
