package order

import (
	"assistbot/app/config"
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	client_name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	service TEXT NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	external_handle TEXT NOT NULL DEFAULT '',
	chat_id BIGINT NOT NULL
)`

const insertOrder = `
INSERT INTO orders (created_at, client_name, email, service, comment, external_handle, chat_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type PgStore struct {
	pool *pgxpool.Pool
}

func ConnString(cfg config.DB) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Pass),
		Host:   cfg.Host,
		Path:   "/" + cfg.Database,
	}

	return u.String()
}

func NewPgStore(ctx context.Context, cfg config.DB) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if _, err = pool.Exec(ctx, createOrdersTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create orders table: %w", err)
	}

	return &PgStore{pool: pool}, nil
}

func (s *PgStore) Append(ctx context.Context, r Record) error {
	_, err := s.pool.Exec(ctx, insertOrder,
		r.Timestamp,
		r.ClientName,
		r.Email,
		r.Service,
		r.Comment,
		r.ExternalHandle,
		r.ConversationID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (s *PgStore) Shutdown() error {
	s.pool.Close()
	return nil
}
