// Package memory is an in-process implementation of the repository
// interfaces. It backs STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/conversa/internal/domain"
	"github.com/vedran77/conversa/internal/repository"
)

// Store holds every table behind one mutex so each method behaves like a
// single transaction.
type Store struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]domain.User
	contacts      map[[2]uuid.UUID]domain.Contact
	conversations map[uuid.UUID]domain.Conversation
	messages      map[uuid.UUID]domain.Message
	audit         []domain.AuditEntry
}

func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]domain.User),
		contacts:      make(map[[2]uuid.UUID]domain.Contact),
		conversations: make(map[uuid.UUID]domain.Conversation),
		messages:      make(map[uuid.UUID]domain.Message),
	}
}

func (s *Store) Users() *UserRepo                 { return &UserRepo{s} }
func (s *Store) Contacts() *ContactRepo           { return &ContactRepo{s} }
func (s *Store) Conversations() *ConversationRepo { return &ConversationRepo{s} }
func (s *Store) Messages() *MessageRepo           { return &MessageRepo{s} }
func (s *Store) Audit() *AuditRepo                { return &AuditRepo{s} }

// PutUser and PutContact seed data owned by collaborators outside this service.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) PutContact(c domain.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[[2]uuid.UUID{c.UserID, c.ContactID}] = c
}

// AuditEntries returns a copy of everything recorded so far.
func (s *Store) AuditEntries() []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

type UserRepo struct{ s *Store }

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type ContactRepo struct{ s *Store }

func (r *ContactRepo) Get(_ context.Context, userID, contactID uuid.UUID) (*domain.Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.contacts[[2]uuid.UUID{userID, contactID}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type ConversationRepo struct{ s *Store }

func (r *ConversationRepo) Create(_ context.Context, conv *domain.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u1, u2 := domain.CanonicalPair(conv.User1ID, conv.User2ID)
	for _, c := range r.s.conversations {
		if c.User1ID == u1 && c.User2ID == u2 {
			return repository.ErrConversationExists
		}
	}
	conv.User1ID, conv.User2ID = u1, u2
	r.s.conversations[conv.ID] = *conv
	return nil
}

func (r *ConversationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *ConversationRepo) GetByUsers(_ context.Context, user1ID, user2ID uuid.UUID) (*domain.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u1, u2 := domain.CanonicalPair(user1ID, user2ID)
	for _, c := range r.s.conversations {
		if c.User1ID == u1 && c.User2ID == u2 {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *ConversationRepo) ListSummaries(_ context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.ConversationSummary
	for _, c := range r.s.conversations {
		if !c.HasParticipant(userID) {
			continue
		}
		other, ok := r.s.users[c.OtherParticipant(userID)]
		if !ok {
			continue
		}
		sum := domain.ConversationSummary{
			ID:          c.ID,
			OtherUserID: other.ID,
			OtherName:   other.Name,
			OtherEmail:  other.Email,
			CreatedAt:   c.CreatedAt,
		}
		for _, m := range r.s.messages {
			if m.ConversationID != c.ID {
				continue
			}
			if sum.LastMessageAt == nil || m.SentAt.After(*sum.LastMessageAt) {
				at := m.SentAt
				sum.LastMessageAt = &at
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type MessageRepo struct{ s *Store }

func (r *MessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages[msg.ID] = *msg
	return nil
}

func (r *MessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *MessageRepo) GetInConversation(_ context.Context, id, conversationID uuid.UUID) (*domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.messages[id]
	if !ok || m.ConversationID != conversationID {
		return nil, nil
	}
	return &m, nil
}

func (r *MessageRepo) ListPage(_ context.Context, conversationID, viewerID uuid.UUID, offset, limit int) ([]domain.Message, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []domain.Message
	for _, m := range r.s.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if m.Deleted && m.SenderID == viewerID {
			continue
		}
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SentAt.After(all[j].SentAt) })

	total := len(all)
	if offset >= total {
		return []domain.Message{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *MessageRepo) MarkDelivered(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok || m.Delivered {
		return false, nil
	}
	m.Delivered = true
	r.s.messages[id] = m
	return true, nil
}

func (r *MessageRepo) MarkViewed(_ context.Context, id, viewerID uuid.UUID, at time.Time) (*domain.Message, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, false, nil
	}
	if m.SenderID == viewerID || m.ViewedAt != nil {
		return &m, false, nil
	}
	viewed := at
	m.ViewedAt = &viewed
	r.s.messages[id] = m
	return &m, true, nil
}

func (r *MessageRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m, ok := r.s.messages[id]; ok {
		m.Deleted = true
		r.s.messages[id] = m
	}
	return nil
}

func (r *MessageRepo) SoftDeleteBySender(_ context.Context, conversationID, senderID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, m := range r.s.messages {
		if m.ConversationID == conversationID && m.SenderID == senderID && !m.Deleted {
			m.Deleted = true
			r.s.messages[id] = m
			n++
		}
	}
	return n, nil
}

type AuditRepo struct{ s *Store }

func (r *AuditRepo) Insert(_ context.Context, entry *domain.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

var (
	_ repository.UserRepository         = (*UserRepo)(nil)
	_ repository.ContactRepository      = (*ContactRepo)(nil)
	_ repository.ConversationRepository = (*ConversationRepo)(nil)
	_ repository.MessageRepository      = (*MessageRepo)(nil)
	_ repository.AuditRepository        = (*AuditRepo)(nil)
)
