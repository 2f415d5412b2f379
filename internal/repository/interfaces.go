package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/conversa/internal/domain"
)

// ErrConversationExists is returned by CreateConversation when the pair
// already has a conversation.
var ErrConversationExists = errors.New("conversation already exists")

// Lookups return (nil, nil) when the row does not exist.

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type ContactRepository interface {
	Get(ctx context.Context, userID, contactID uuid.UUID) (*domain.Contact, error)
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	GetByUsers(ctx context.Context, user1ID, user2ID uuid.UUID) (*domain.Conversation, error)
	ListSummaries(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// GetInConversation only returns the message when it belongs to conversationID.
	GetInConversation(ctx context.Context, id, conversationID uuid.UUID) (*domain.Message, error)
	// ListPage returns messages newest first, leaving out those viewerID soft-deleted.
	ListPage(ctx context.Context, conversationID, viewerID uuid.UUID, offset, limit int) ([]domain.Message, int, error)
	// MarkDelivered sets delivered=true if it was false and reports whether it changed.
	MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkViewed sets viewed_at in one transaction, only if it is unset and
	// viewerID is not the sender. It returns the stored row and whether it changed.
	MarkViewed(ctx context.Context, id, viewerID uuid.UUID, at time.Time) (*domain.Message, bool, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// SoftDeleteBySender flags every message senderID sent in the conversation.
	SoftDeleteBySender(ctx context.Context, conversationID, senderID uuid.UUID) (int64, error)
}

type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
}
