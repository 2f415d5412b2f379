package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a pairwise DM thread. The pair is unordered; stores keep
// User1ID < User2ID so the unique constraint holds for either order.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	User1ID   uuid.UUID `json:"id_usuario1"`
	User2ID   uuid.UUID `json:"id_usuario2"`
	CreatedAt time.Time `json:"data_criacao"`
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// OtherParticipant returns the counterpart of userID. The result is only
// meaningful when HasParticipant(userID) is true.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// CanonicalPair orders two user ids the way conversations are stored.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// ConversationSummary is a conversation as seen by one of its participants.
type ConversationSummary struct {
	ID            uuid.UUID  `json:"id"`
	OtherUserID   uuid.UUID  `json:"outro_usuario"`
	OtherName     *string    `json:"nome"`
	OtherEmail    string     `json:"email"`
	LastMessageAt *time.Time `json:"prioridade"`
	CreatedAt     time.Time  `json:"data_criacao"`
}
