package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestParseSubject(t *testing.T) {
	userID := uuid.New()
	token, err := IssueToken(userID, secret, time.Hour)
	require.NoError(t, err)

	got, err := ParseSubject(token, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestParseSubjectRejects(t *testing.T) {
	userID := uuid.New()

	expired, err := IssueToken(userID, secret, -time.Minute)
	require.NoError(t, err)

	wrongSecret, err := IssueToken(userID, "other", time.Hour)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject: userID.String(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	cases := map[string]string{
		"empty":        "",
		"garbage":      "abc.def.ghi",
		"expired":      expired,
		"wrong secret": wrongSecret,
		"bad subject":  badSubject,
		"wrong alg":    hs512,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSubject(token, secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
