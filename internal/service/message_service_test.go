package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedran77/conversa/internal/domain"
	"github.com/vedran77/conversa/pkg/apperr"
	"github.com/vedran77/conversa/pkg/validator"
)

func TestSendMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.conversation(t)

	msg, err := f.messages.Send(ctx, f.alice, conv.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, f.alice, msg.SenderID)
	assert.False(t, msg.Delivered)
	assert.Nil(t, msg.ViewedAt)
	assert.False(t, msg.SentAt.IsZero())

	_, err = f.messages.Send(ctx, f.alice, conv.ID, "   ")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.messages.Send(ctx, f.alice, conv.ID, strings.Repeat("x", validator.MaxMessageLength+1))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.messages.Send(ctx, f.carol, conv.ID, "sneaky")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	assert.Contains(t, f.sink.actions(), domain.ActionMessageCreated)
}

func TestListMessagesPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.conversation(t)
	for i := 0; i < 5; i++ {
		f.send(t, conv, f.alice, "m")
	}

	page, err := f.messages.List(ctx, f.bob, conv.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Len(t, page.Messages, 2)

	page, err = f.messages.List(ctx, f.bob, conv.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Messages, 5)

	page, err = f.messages.List(ctx, f.bob, conv.ID, 9, 2)
	require.NoError(t, err)
	assert.NotNil(t, page.Messages)
	assert.Empty(t, page.Messages)
}

func TestDeleteMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "oops")

	err := f.messages.Delete(ctx, f.bob, conv.ID, msg.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	assert.ErrorIs(t, err, ErrNotMessageOwner)

	err = f.messages.Delete(ctx, f.alice, conv.ID, uuid.New())
	assert.ErrorIs(t, err, ErrMessageNotFound)

	require.NoError(t, f.messages.Delete(ctx, f.alice, conv.ID, msg.ID))
	assert.True(t, f.message(t, msg.ID).Deleted)

	page, err := f.messages.List(ctx, f.alice, conv.ID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)

	actions := f.sink.actions()
	assert.Contains(t, actions, domain.ActionMessageDeleteDenied)
	assert.Contains(t, actions, domain.ActionMessageDeleted)
}
