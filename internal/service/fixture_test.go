package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vedran77/conversa/internal/domain"
	"github.com/vedran77/conversa/internal/event"
	"github.com/vedran77/conversa/internal/observability/logging"
	"github.com/vedran77/conversa/internal/presence"
	"github.com/vedran77/conversa/internal/repository/memory"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (s *recordingSink) Record(_ context.Context, e domain.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *recordingSink) actions() []domain.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeConn struct {
	mu     sync.Mutex
	frames []event.Event
	refuse bool
}

func (c *fakeConn) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refuse {
		return false
	}
	var evt event.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		panic(err)
	}
	c.frames = append(c.frames, evt)
	return true
}

func (c *fakeConn) events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.frames...)
}

type fixture struct {
	store         *memory.Store
	sink          *recordingSink
	presence      *presence.Index
	conversations *ConversationService
	messages      *MessageService
	delivery      *DeliveryService

	alice, bob, carol uuid.UUID
}

// newFixture seeds three users. Alice and Bob are mutual contacts; Alice
// has Carol as a blocked contact.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.New(),
		sink:     &recordingSink{},
		presence: presence.New(nil),
		alice:    uuid.New(),
		bob:      uuid.New(),
		carol:    uuid.New(),
	}
	logger := logging.Discard()

	for _, id := range []uuid.UUID{f.alice, f.bob, f.carol} {
		f.store.PutUser(domain.User{ID: id, Email: id.String() + "@example.com", CreatedAt: time.Now()})
	}
	f.store.PutContact(domain.Contact{ID: uuid.New(), UserID: f.alice, ContactID: f.bob})
	f.store.PutContact(domain.Contact{ID: uuid.New(), UserID: f.bob, ContactID: f.alice})
	f.store.PutContact(domain.Contact{ID: uuid.New(), UserID: f.alice, ContactID: f.carol, Blocked: true})

	f.conversations = NewConversationService(f.store.Conversations(), f.store.Messages(), f.store.Contacts(), f.store.Users(), f.sink, logger)
	f.messages = NewMessageService(f.store.Messages(), f.conversations, f.sink, logger)
	f.delivery = NewDeliveryService(f.store.Messages(), f.store.Conversations(), f.presence, f.sink, logger)
	return f
}

func (f *fixture) conversation(t *testing.T) *domain.Conversation {
	t.Helper()
	conv, _, err := f.conversations.GetOrCreate(context.Background(), f.alice, f.bob)
	require.NoError(t, err)
	return conv
}

func (f *fixture) send(t *testing.T, conv *domain.Conversation, sender uuid.UUID, text string) *domain.Message {
	t.Helper()
	msg, err := f.messages.Send(context.Background(), sender, conv.ID, text)
	require.NoError(t, err)
	return msg
}

func (f *fixture) message(t *testing.T, id uuid.UUID) *domain.Message {
	t.Helper()
	msg, err := f.store.Messages().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, msg)
	return msg
}
