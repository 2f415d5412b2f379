package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      *string   `json:"nome,omitempty"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"foto_perfil,omitempty"`
	CreatedAt time.Time `json:"data_criacao"`
}

// Contact is an entry in a user's contact list. Blocked contacts cannot be
// used to open new conversations.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"id_usuario"`
	ContactID uuid.UUID `json:"id_contato"`
	Blocked   bool      `json:"bloqueio"`
	CreatedAt time.Time `json:"data_criacao"`
}
