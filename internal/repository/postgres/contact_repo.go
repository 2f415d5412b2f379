package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/conversa/internal/domain"
)

type ContactRepo struct {
	pool *pgxpool.Pool
}

func NewContactRepo(pool *pgxpool.Pool) *ContactRepo {
	return &ContactRepo{pool: pool}
}

func (r *ContactRepo) Get(ctx context.Context, userID, contactID uuid.UUID) (*domain.Contact, error) {
	query := `
		SELECT id, user_id, contact_id, blocked, created_at
		FROM contacts
		WHERE user_id = $1 AND contact_id = $2`
	var c domain.Contact
	err := r.pool.QueryRow(ctx, query, userID, contactID).Scan(
		&c.ID, &c.UserID, &c.ContactID, &c.Blocked, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &c, err
}
