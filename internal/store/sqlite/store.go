// Package sqlite implements the message log on a local SQLite file using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/quickchat/backend/internal/model/chat"
	"github.com/zhouzirui/quickchat/backend/internal/store"
)

const (
	createTable = `
CREATE TABLE IF NOT EXISTS messages (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sender TEXT NOT NULL CHECK (sender IN ('user', 'bot')),
  text TEXT NOT NULL,
  created_at TEXT NOT NULL
);`

	insertMessage = `INSERT INTO messages (sender, text, created_at) VALUES (?, ?, ?);`

	selectMessages = `SELECT sender, text, created_at FROM messages ORDER BY id ASC;`
)

// Store persists messages in a single SQLite table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.Wrap("open sqlite", err)
	}
	// SQLite allows one writer; a single connection serializes appends.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return store.Wrap("create messages table", err)
	}
	return nil
}

// Append inserts one row and returns the stored message.
func (s *Store) Append(ctx context.Context, message chat.Message) (chat.Message, error) {
	message = store.Stamp(message)

	_, err := s.db.ExecContext(ctx, insertMessage, string(message.Sender), message.Text, message.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return chat.Message{}, store.Wrap("insert message", err)
	}
	return message, nil
}

// List replays the log in insertion order.
func (s *Store) List(ctx context.Context) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, selectMessages)
	if err != nil {
		return nil, store.Wrap("select messages", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var sender, text, createdAt string
		if err := rows.Scan(&sender, &text, &createdAt); err != nil {
			return nil, store.Wrap("scan message", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, store.Wrap("parse created_at", fmt.Errorf("%q: %w", createdAt, err))
		}
		messages = append(messages, chat.Message{Sender: chat.Sender(sender), Text: text, Timestamp: ts})
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("iterate messages", err)
	}
	return messages, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
