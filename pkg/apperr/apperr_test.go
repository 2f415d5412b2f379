package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	sentinel := errors.New("message not found")

	tests := []struct {
		name string
		err  error
		kind Kind
		code string
	}{
		{"validation", Validation("MISSING_FIELDS", "incomplete data"), KindValidation, "MISSING_FIELDS"},
		{"not found", NotFound("NOT_FOUND", "message not found", sentinel), KindNotFound, "NOT_FOUND"},
		{"forbidden", Forbidden("FORBIDDEN", "not allowed", nil), KindAuthorization, "FORBIDDEN"},
		{"store", Store("saving message", errors.New("conn reset")), KindStore, "STORE_ERROR"},
		{"wrapped", fmt.Errorf("announce: %w", Validation("INVALID_ID", "bad id")), KindValidation, "INVALID_ID"},
		{"plain", errors.New("boom"), KindStore, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.code, CodeOf(tt.err))
			assert.True(t, IsKind(tt.err, tt.kind))
		})
	}
}

func TestNotFoundKeepsSentinel(t *testing.T) {
	sentinel := errors.New("message not found")
	err := NotFound("NOT_FOUND", "Message not found", sentinel)

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "Message not found: message not found", err.Error())
}

func TestPublicHidesStoreCause(t *testing.T) {
	err := Store("Could not update message", errors.New("pq: deadlock detected"))
	assert.Equal(t, "Could not update message", Public(err))
	assert.Equal(t, "Something went wrong", Public(errors.New("raw")))
}

func TestIsKindNil(t *testing.T) {
	assert.False(t, IsKind(nil, KindStore))
}
