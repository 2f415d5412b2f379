package validator

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxMessageLength = 10000
	DefaultPerPage   = 20
	MaxPerPage       = 100
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// ValidateMessageText checks the payload of a new message. The text may be
// ciphertext, so only emptiness and size are checked.
func ValidateMessageText(text string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(text) == "" {
		errs.Add("texto", "Message text cannot be empty")
	} else if utf8.RuneCountInString(text) > MaxMessageLength {
		errs.Add("texto", "Message text is too long")
	}

	return errs
}

// ParseID parses a required uuid field, recording a validation error under
// field when it is missing or malformed.
func ParseID(raw, field string, errs ValidationErrors) uuid.UUID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs.Add(field, field+" is required")
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		errs.Add(field, "Invalid "+field)
		return uuid.Nil
	}
	return id
}

// NormalizePage clamps page-based pagination parameters.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}
