package presence

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vedran77/conversa/internal/audit"
	"github.com/vedran77/conversa/internal/domain"
	"github.com/vedran77/conversa/internal/observability/metrics"
)

// AuditObserver mirrors presence changes into the audit sink and the
// connection gauge.
type AuditObserver struct {
	sink   audit.Sink
	logger *slog.Logger
}

func NewAuditObserver(sink audit.Sink, logger *slog.Logger) *AuditObserver {
	return &AuditObserver{sink: sink, logger: logger}
}

func (o *AuditObserver) OnRegister(userID uuid.UUID, _ Conn, evicted Conn) {
	if evicted != nil {
		o.logger.Info("presence: replaced existing connection", "user_id", userID)
	} else {
		metrics.WSConnections.Inc()
	}
	o.sink.Record(context.Background(), domain.NewAuditEntry(userID,
		domain.AuditCategoryConversation, domain.AuditSeverityInfo, domain.ActionWSConnect,
		"websocket connection established", nil))
}

func (o *AuditObserver) OnUnregister(userID uuid.UUID, _ Conn) {
	metrics.WSConnections.Dec()
	o.sink.Record(context.Background(), domain.NewAuditEntry(userID,
		domain.AuditCategoryConversation, domain.AuditSeverityInfo, domain.ActionWSDisconnect,
		"websocket connection closed", nil))
}
