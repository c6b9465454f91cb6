package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions in Postgres via pgx.
type PostgresStore struct {
	pool       *pgxpool.Pool
	maxHistory int
}

func NewPostgresStore(ctx context.Context, dsn string, maxHistory int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	s := &PostgresStore{pool: pool, maxHistory: maxHistory}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
	id         UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS exchanges (
	id         BIGSERIAL PRIMARY KEY,
	session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS exchanges_session_idx ON exchanges (session_id, id);`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate session schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.pool.Exec(ctx, `INSERT INTO sessions (id) VALUES ($1)`, id); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) History(ctx context.Context, sessionID string) (string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT question, answer
		FROM exchanges
		WHERE session_id = $1
		ORDER BY id DESC
		LIMIT $2`, sessionID, s.maxHistory)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var exchanges []exchange
	for rows.Next() {
		var e exchange
		if err := rows.Scan(&e.question, &e.answer); err != nil {
			return "", fmt.Errorf("scan exchange: %w", err)
		}
		exchanges = append(exchanges, e)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	// Query returned newest first; history reads oldest first.
	for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
		exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
	}
	return formatHistory(exchanges), nil
}

func (s *PostgresStore) AddExchange(ctx context.Context, sessionID, question, answer string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO exchanges (session_id, question, answer)
		VALUES ($1, $2, $3)`, sessionID, question, answer)
	if err != nil {
		// Sessions created elsewhere (or expired) get re-registered
		// rather than failing the whole query.
		if strings.Contains(err.Error(), "foreign key") {
			if _, insErr := s.pool.Exec(ctx, `INSERT INTO sessions (id) VALUES ($1) ON CONFLICT DO NOTHING`, sessionID); insErr != nil {
				return fmt.Errorf("register session: %w", insErr)
			}
			if _, retryErr := s.pool.Exec(ctx, `
				INSERT INTO exchanges (session_id, question, answer)
				VALUES ($1, $2, $3)`, sessionID, question, answer); retryErr != nil {
				return fmt.Errorf("record exchange: %w", retryErr)
			}
			return nil
		}
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
