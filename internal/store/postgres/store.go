// Package postgres implements the message log on PostgreSQL via pgx.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/quickchat/backend/internal/model/chat"
	"github.com/zhouzirui/quickchat/backend/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	insertMessage = `
		INSERT INTO messages (sender, text, created_at)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	selectMessages = `
		SELECT sender, text, created_at
		FROM messages
		ORDER BY id ASC`
)

// Store persists messages in the "messages" table. Ordering is the
// BIGSERIAL id, i.e. insertion order.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to databaseURL, verifies the connection and applies pending
// migrations before returning the store.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is required")
	}

	if err := Migrate(databaseURL); err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, databaseURL)
	if err != nil {
		return nil, store.Wrap("create connection pool", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, store.Wrap("ping database", err)
	}

	return New(pool), nil
}

// Migrate applies the embedded schema migrations.
func Migrate(databaseURL string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return store.Wrap("create migrator", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return store.Wrap("apply migrations", err)
	}
	return nil
}

// Append inserts one row. A single INSERT is atomic, so no transaction is
// opened here.
func (s *Store) Append(ctx context.Context, message chat.Message) (chat.Message, error) {
	message = store.Stamp(message)

	var createdAt time.Time
	err := s.pool.QueryRow(ctx, insertMessage, string(message.Sender), message.Text, message.Timestamp).Scan(&createdAt)
	if err != nil {
		return chat.Message{}, store.Wrap("insert message", err)
	}

	message.Timestamp = createdAt.UTC()
	return message, nil
}

// List replays the whole log in insertion order.
func (s *Store) List(ctx context.Context) ([]chat.Message, error) {
	rows, err := s.pool.Query(ctx, selectMessages)
	if err != nil {
		return nil, store.Wrap("select messages", err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0, 32)
	for rows.Next() {
		var (
			sender string
			m      chat.Message
		)
		if err := rows.Scan(&sender, &m.Text, &m.Timestamp); err != nil {
			return nil, store.Wrap("scan message", err)
		}
		m.Sender = chat.Sender(sender)
		m.Timestamp = m.Timestamp.UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("iterate messages", err)
	}

	return messages, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
