package service

import (
	"errors"

	"github.com/vedran77/conversa/pkg/apperr"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotMessageOwner      = errors.New("only the message sender can perform this action")
	ErrCannotConverseSelf   = errors.New("cannot start a conversation with yourself")
	ErrContactUnavailable   = errors.New("contact not found or blocked")
	ErrUserNotFound         = errors.New("user not found")
)

func conversationNotFound() error {
	return apperr.NotFound("NOT_FOUND", "Conversation not found", ErrConversationNotFound)
}

func messageNotFound() error {
	return apperr.NotFound("NOT_FOUND", "Message not found", ErrMessageNotFound)
}

func notParticipant() error {
	return apperr.Forbidden("FORBIDDEN", "You are not a participant of this conversation", ErrNotParticipant)
}

func storeError(message string, err error) error {
	return apperr.Store(message, err)
}
