package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditCategory string

const (
	AuditCategoryAuthentication AuditCategory = "authentication"
	AuditCategoryContact        AuditCategory = "contact"
	AuditCategoryConversation   AuditCategory = "conversation"
	AuditCategoryMessage        AuditCategory = "message"
	AuditCategorySystem         AuditCategory = "system"
)

func (c AuditCategory) Valid() bool {
	switch c {
	case AuditCategoryAuthentication, AuditCategoryContact, AuditCategoryConversation,
		AuditCategoryMessage, AuditCategorySystem:
		return true
	}
	return false
}

type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityError    AuditSeverity = "error"
	AuditSeverityCritical AuditSeverity = "critical"
)

func (s AuditSeverity) Valid() bool {
	switch s {
	case AuditSeverityInfo, AuditSeverityWarning, AuditSeverityError, AuditSeverityCritical:
		return true
	}
	return false
}

type AuditAction string

const (
	ActionWSConnect           AuditAction = "websocket_connect"
	ActionWSDisconnect        AuditAction = "websocket_disconnect"
	ActionWSJoinConversation  AuditAction = "websocket_join_conversation"
	ActionWSLeaveConversation AuditAction = "websocket_leave_conversation"
	ActionWSJoinDenied        AuditAction = "websocket_join_denied"
	ActionWSMessageSent       AuditAction = "websocket_message_sent"
	ActionWSMessageError      AuditAction = "websocket_message_error"
	ActionWSMessageRead       AuditAction = "websocket_message_read"
	ActionWSMessageReadError  AuditAction = "websocket_message_read_error"

	ActionConversationCreated AuditAction = "conversation_created"
	ActionConversationExists  AuditAction = "conversation_exists"
	ActionConversationDenied  AuditAction = "conversation_denied"
	ActionConversationCleared AuditAction = "conversation_cleared"
	ActionMessageCreated      AuditAction = "message_created"
	ActionMessageDeleted      AuditAction = "message_deleted"
	ActionMessageDeleteDenied AuditAction = "message_delete_denied"
)

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	ID        uuid.UUID       `json:"id"`
	UserID    *uuid.UUID      `json:"id_usuario,omitempty"`
	Category  AuditCategory   `json:"categoria"`
	Severity  AuditSeverity   `json:"severidade"`
	Action    AuditAction     `json:"acao"`
	Detail    string          `json:"detalhe,omitempty"`
	IP        string          `json:"ip_origem,omitempty"`
	Metadata  json.RawMessage `json:"metadados,omitempty"`
	CreatedAt time.Time       `json:"timestamp"`
}

// NewAuditEntry builds an entry for userID. A nil userID records a system
// action. Metadata that fails to marshal is dropped.
func NewAuditEntry(userID uuid.UUID, category AuditCategory, severity AuditSeverity, action AuditAction, detail string, metadata map[string]string) AuditEntry {
	entry := AuditEntry{
		ID:        uuid.New(),
		Category:  category,
		Severity:  severity,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if userID != uuid.Nil {
		id := userID
		entry.UserID = &id
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = raw
		}
	}
	return entry
}
