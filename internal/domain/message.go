package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a durable DM. The text is opaque to the server; clients may
// send it already encrypted.
//
// Delivered flips false to true only when the message was pushed to a live
// recipient connection. ViewedAt is set once, by the recipient.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"id_conversa"`
	SenderID       uuid.UUID  `json:"id_usuario"`
	Text           string     `json:"texto"`
	SentAt         time.Time  `json:"data_envio"`
	Delivered      bool       `json:"entregue"`
	ViewedAt       *time.Time `json:"data_visualizacao,omitempty"`
	Deleted        bool       `json:"-"`
}

func (m *Message) IsViewed() bool {
	return m.ViewedAt != nil
}

type MessagePage struct {
	Messages    []Message `json:"mensagens"`
	Total       int       `json:"total"`
	Pages       int       `json:"paginas"`
	CurrentPage int       `json:"pagina_atual"`
}
