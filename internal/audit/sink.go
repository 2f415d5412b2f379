// Package audit records security and business relevant actions. Recording
// is best-effort: callers never see a failure.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vedran77/conversa/internal/domain"
	"github.com/vedran77/conversa/internal/observability/metrics"
	"github.com/vedran77/conversa/internal/repository"
)

const writeTimeout = 5 * time.Second

type Sink interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, domain.AuditEntry) {}

// AsyncSink queues entries and writes them from a single worker goroutine
// so recording never blocks the caller. Entries arriving while the queue is
// full are dropped.
type AsyncSink struct {
	repo   repository.AuditRepository
	logger *slog.Logger
	queue  chan domain.AuditEntry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsyncSink(repo repository.AuditRepository, buffer int, logger *slog.Logger) *AsyncSink {
	if buffer <= 0 {
		buffer = 1024
	}
	s := &AsyncSink{
		repo:   repo,
		logger: logger,
		queue:  make(chan domain.AuditEntry, buffer),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AsyncSink) Record(ctx context.Context, entry domain.AuditEntry) {
	if !entry.Category.Valid() || !entry.Severity.Valid() {
		s.logger.Warn("audit: rejecting malformed entry",
			"action", entry.Action, "category", entry.Category, "severity", entry.Severity)
		metrics.AuditEntriesTotal.WithLabelValues("invalid").Inc()
		return
	}
	if entry.IP == "" {
		entry.IP = RemoteAddrFromContext(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		metrics.AuditEntriesTotal.WithLabelValues("dropped").Inc()
		return
	}
	select {
	case s.queue <- entry:
	default:
		s.logger.Warn("audit: queue full, dropping entry", "action", entry.Action)
		metrics.AuditEntriesTotal.WithLabelValues("dropped").Inc()
	}
}

// Close stops accepting entries and waits for queued ones to be written or
// for ctx to expire.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for entry := range s.queue {
		s.write(entry)
	}
}

func (s *AsyncSink) write(entry domain.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.repo.Insert(ctx, &entry); err != nil {
		s.logger.Error("audit: write failed", "action", entry.Action, "error", err)
		metrics.AuditEntriesTotal.WithLabelValues("failed").Inc()
		return
	}
	metrics.AuditEntriesTotal.WithLabelValues("written").Inc()
}

type ctxKey struct{}

// WithRemoteAddr attaches the caller address used for entries that do not
// set IP themselves.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ctxKey{}, addr)
}

func RemoteAddrFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}
