package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedran77/conversa/internal/domain"
	"github.com/vedran77/conversa/internal/event"
	"github.com/vedran77/conversa/internal/repository"
	"github.com/vedran77/conversa/pkg/apperr"
)

func TestAnnounceOnlineRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	f.presence.Register(f.alice, aliceConn)
	f.presence.Register(f.bob, bobConn)

	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "hello bob")

	res, err := f.delivery.Announce(ctx, f.alice, conv.ID, msg.ID)
	require.NoError(t, err)
	assert.True(t, res.Pushed)
	assert.True(t, res.Delivered)
	assert.Equal(t, f.bob, res.RecipientID)

	frames := bobConn.events()
	require.Len(t, frames, 1)
	assert.Equal(t, event.TypeReceiveMessage, frames[0].Type)

	var p event.ReceiveMessagePayload
	require.NoError(t, json.Unmarshal(frames[0].Payload, &p))
	assert.Equal(t, msg.ID, p.MessageID)
	assert.Equal(t, conv.ID, p.ConversationID)
	assert.Equal(t, "hello bob", p.Text)
	assert.Equal(t, f.alice, p.SenderID)

	assert.Empty(t, aliceConn.events(), "sender gets nothing")
	assert.True(t, f.message(t, msg.ID).Delivered)
	assert.Contains(t, f.sink.actions(), domain.ActionWSMessageSent)
}

func TestAnnounceOfflineRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.presence.Register(f.alice, &fakeConn{})

	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "are you there?")

	res, err := f.delivery.Announce(ctx, f.alice, conv.ID, msg.ID)
	require.NoError(t, err)
	assert.False(t, res.Pushed)
	assert.False(t, res.Delivered)
	assert.False(t, f.message(t, msg.ID).Delivered)

	// Bob comes back later and reads history; nothing is replayed.
	bobConn := &fakeConn{}
	f.presence.Register(f.bob, bobConn)
	assert.Empty(t, bobConn.events())

	page, err := f.messages.List(ctx, f.bob, conv.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.False(t, page.Messages[0].Delivered)
}

func TestAnnounceRefusedSendCountsAsOffline(t *testing.T) {
	f := newFixture(t)
	f.presence.Register(f.bob, &fakeConn{refuse: true})

	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "hi")

	res, err := f.delivery.Announce(context.Background(), f.alice, conv.ID, msg.ID)
	require.NoError(t, err)
	assert.False(t, res.Pushed)
	assert.False(t, f.message(t, msg.ID).Delivered)
}

func TestAnnounceRecipientIsNeverTheSender(t *testing.T) {
	f := newFixture(t)
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	f.presence.Register(f.alice, aliceConn)
	f.presence.Register(f.bob, bobConn)

	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "hi")

	// Bob re-announcing Alice's message still targets Bob, never Alice.
	res, err := f.delivery.Announce(context.Background(), f.bob, conv.ID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, f.bob, res.RecipientID)
	assert.Empty(t, aliceConn.events())
}

func TestAnnounceErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "hi")

	t.Run("missing ids", func(t *testing.T) {
		_, err := f.delivery.Announce(ctx, f.alice, uuid.Nil, msg.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("unknown message", func(t *testing.T) {
		_, err := f.delivery.Announce(ctx, f.alice, conv.ID, uuid.New())
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
		assert.ErrorIs(t, err, ErrMessageNotFound)
	})

	t.Run("message in another conversation", func(t *testing.T) {
		_, err := f.delivery.Announce(ctx, f.alice, uuid.New(), msg.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("caller outside conversation", func(t *testing.T) {
		_, err := f.delivery.Announce(ctx, f.carol, conv.ID, msg.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestMarkReadConfirmsToSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	aliceConn := &fakeConn{}
	f.presence.Register(f.alice, aliceConn)

	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "read me")

	readAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.delivery.now = func() time.Time { return readAt }

	res, err := f.delivery.MarkRead(ctx, f.bob, msg.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Confirmed)

	frames := aliceConn.events()
	require.Len(t, frames, 1)
	assert.Equal(t, event.TypeMessageReadConfirmation, frames[0].Type)

	var p event.ReadConfirmationPayload
	require.NoError(t, json.Unmarshal(frames[0].Payload, &p))
	assert.Equal(t, msg.ID, p.MessageID)
	assert.True(t, readAt.Equal(p.ViewedAt))

	stored := f.message(t, msg.ID)
	require.NotNil(t, stored.ViewedAt)
	assert.True(t, readAt.Equal(*stored.ViewedAt))
	assert.Contains(t, f.sink.actions(), domain.ActionWSMessageRead)

	t.Run("second read changes nothing", func(t *testing.T) {
		f.delivery.now = func() time.Time { return readAt.Add(time.Hour) }

		res, err := f.delivery.MarkRead(ctx, f.bob, msg.ID)
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.False(t, res.Confirmed)
		assert.Len(t, aliceConn.events(), 1)
		assert.True(t, readAt.Equal(*f.message(t, msg.ID).ViewedAt))
	})
}

func TestMarkReadSenderOffline(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "hi")

	res, err := f.delivery.MarkRead(context.Background(), f.bob, msg.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Confirmed)
	assert.NotNil(t, f.message(t, msg.ID).ViewedAt)
}

func TestMarkReadOwnMessageIsNoop(t *testing.T) {
	f := newFixture(t)
	aliceConn := &fakeConn{}
	f.presence.Register(f.alice, aliceConn)
	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "mine")

	res, err := f.delivery.MarkRead(context.Background(), f.alice, msg.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Nil(t, f.message(t, msg.ID).ViewedAt)
	assert.Empty(t, aliceConn.events())
}

func TestMarkReadErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "hi")

	_, err := f.delivery.MarkRead(ctx, f.bob, uuid.Nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.delivery.MarkRead(ctx, f.bob, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = f.delivery.MarkRead(ctx, f.carol, msg.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.Nil(t, f.message(t, msg.ID).ViewedAt)
}

type failingMessages struct {
	repository.MessageRepository
	err error
}

func (r failingMessages) GetByID(context.Context, uuid.UUID) (*domain.Message, error) {
	return nil, r.err
}

func (r failingMessages) GetInConversation(context.Context, uuid.UUID, uuid.UUID) (*domain.Message, error) {
	return nil, r.err
}

func TestStoreFailuresAreClassified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "hi")

	boom := errors.New("connection reset")
	f.delivery.messages = failingMessages{MessageRepository: f.store.Messages(), err: boom}

	_, err := f.delivery.Announce(ctx, f.alice, conv.ID, msg.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindStore))
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, apperr.Public(err), "connection reset")

	_, err = f.delivery.MarkRead(ctx, f.bob, msg.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindStore))

	actions := f.sink.actions()
	assert.Contains(t, actions, domain.ActionWSMessageError)
	assert.Contains(t, actions, domain.ActionWSMessageReadError)
}

func TestConcurrentReadsConfirmOnce(t *testing.T) {
	f := newFixture(t)
	aliceConn := &fakeConn{}
	f.presence.Register(f.alice, aliceConn)
	conv := f.conversation(t)
	msg := f.send(t, conv, f.alice, "race")

	const n = 20
	changed := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			res, err := f.delivery.MarkRead(context.Background(), f.bob, msg.ID)
			if err != nil {
				changed <- false
				return
			}
			changed <- res.Changed
		}()
	}

	count := 0
	for i := 0; i < n; i++ {
		if <-changed {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, aliceConn.events(), 1)
}
