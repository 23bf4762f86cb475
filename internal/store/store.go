// Package store persists chat messages in a single, globally shared,
// append-only log. There is no conversation scoping: every request from every
// client appends to the same log, ordered by insertion.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zhouzirui/quickchat/backend/internal/model/chat"
)

// ErrStorage marks failures of the underlying storage (connectivity,
// constraint violations, closed handles).
var ErrStorage = errors.New("storage error")

// Store appends messages to the log. Append must be atomic per call;
// implementations serialize their own writes.
type Store interface {
	Append(ctx context.Context, message chat.Message) (chat.Message, error)
}

// Lister is implemented by stores that can replay the log in insertion order.
type Lister interface {
	List(ctx context.Context) ([]chat.Message, error)
}

// stamp fills the server-side timestamp when the caller left it empty.
func stamp(message chat.Message, now func() time.Time) chat.Message {
	if message.Timestamp.IsZero() {
		message.Timestamp = now().UTC()
	}
	return message
}

// Stamp is exported for the database-backed stores in subpackages.
func Stamp(message chat.Message) chat.Message {
	return stamp(message, time.Now)
}

// Wrap tags err as a storage failure while keeping the original cause.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
