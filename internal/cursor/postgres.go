package cursor

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradewatch/tradewatch/internal/market"
)

// PostgresStore keeps cursors in a chat_cursors table, for deployments where
// the daemon has no durable local filesystem.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chat_cursors (
			chat_id    text PRIMARY KEY,
			message_id bigint NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Load(ctx context.Context) (map[market.ChatID]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT chat_id, message_id FROM chat_cursors`)
	if err != nil {
		return nil, fmt.Errorf("query cursors: %w", err)
	}
	defer rows.Close()

	out := map[market.ChatID]int64{}
	for rows.Next() {
		var chatID string
		var messageID int64
		if err := rows.Scan(&chatID, &messageID); err != nil {
			return nil, fmt.Errorf("scan cursor row: %w", err)
		}
		out[market.ChatID(chatID)] = messageID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cursor rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, cursors map[market.ChatID]int64) error {
	batch := &pgx.Batch{}
	for chatID, messageID := range cursors {
		batch.Queue(`
			INSERT INTO chat_cursors (chat_id, message_id, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (chat_id) DO UPDATE
			SET message_id = EXCLUDED.message_id, updated_at = now()`,
			string(chatID), messageID)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range cursors {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert cursor: %w", err)
		}
	}
	return nil
}
