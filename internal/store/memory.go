package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zhouzirui/quickchat/backend/internal/model/chat"
)

var errInvalidSender = errors.New("invalid sender")

// MemoryStore keeps the log in process memory. Records live in an arena slice
// and are addressed only by their insertion index.
type MemoryStore struct {
	mu      sync.RWMutex
	records []chat.Message
	now     func() time.Time
}

// NewMemoryStore bootstraps an empty in-memory log suitable for development
// and tests.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make([]chat.Message, 0, 64),
		now:     time.Now,
	}
}

// Append stores message at the next index and returns the stored copy.
func (s *MemoryStore) Append(ctx context.Context, message chat.Message) (chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return chat.Message{}, Wrap("append message", err)
	}
	if !message.Sender.Valid() {
		return chat.Message{}, Wrap("append message", fmt.Errorf("%w %q", errInvalidSender, message.Sender))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	message = stamp(message, s.now)
	s.records = append(s.records, message)
	return message, nil
}

// List returns the log in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]chat.Message, error) {
	return s.Messages(), nil
}

// Messages returns a copy of every stored record.
func (s *MemoryStore) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.records))
	copy(copied, s.records)
	return copied
}

// Len reports how many records have been appended.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
