package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/conversa/internal/domain"
)

const messageColumns = `id, conversation_id, sender_id, text, sent_at, delivered, viewed_at, deleted`

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, text, sent_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Text, msg.SentAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	return scanMessage(r.pool.QueryRow(ctx, query, id))
}

func (r *MessageRepo) GetInConversation(ctx context.Context, id, conversationID uuid.UUID) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1 AND conversation_id = $2`
	return scanMessage(r.pool.QueryRow(ctx, query, id, conversationID))
}

func (r *MessageRepo) ListPage(ctx context.Context, conversationID, viewerID uuid.UUID, offset, limit int) ([]domain.Message, int, error) {
	const visible = `conversation_id = $1 AND NOT (deleted AND sender_id = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE `+visible, conversationID, viewerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE ` + visible + `
		ORDER BY sent_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, conversationID, viewerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, *msg)
	}
	return messages, total, rows.Err()
}

func (r *MessageRepo) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE messages SET delivered = TRUE WHERE id = $1 AND NOT delivered`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *MessageRepo) MarkViewed(ctx context.Context, id, viewerID uuid.UUID, at time.Time) (*domain.Message, bool, error) {
	var (
		msg     *domain.Message
		changed bool
	)
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		msg, err = scanMessage(tx.QueryRow(ctx,
			`SELECT `+messageColumns+` FROM messages WHERE id = $1 FOR UPDATE`, id))
		if err != nil || msg == nil {
			return err
		}
		if msg.SenderID == viewerID || msg.ViewedAt != nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `UPDATE messages SET viewed_at = $1 WHERE id = $2`, at, id); err != nil {
			return err
		}
		msg.ViewedAt = &at
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return msg, changed, nil
}

func (r *MessageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE messages SET deleted = TRUE WHERE id = $1`, id)
	return err
}

func (r *MessageRepo) SoftDeleteBySender(ctx context.Context, conversationID, senderID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE messages SET deleted = TRUE WHERE conversation_id = $1 AND sender_id = $2 AND NOT deleted`,
		conversationID, senderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var msg domain.Message
	err := row.Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Text,
		&msg.SentAt, &msg.Delivered, &msg.ViewedAt, &msg.Deleted,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
