package client

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/zhouzirui/quickchat/backend/internal/model/chat"
)

// Entry is one rendered line of the conversation. It has no id and no
// timestamp; its position is its insertion order.
type Entry struct {
	Sender chat.Sender `json:"sender"`
	Text   string      `json:"text"`
}

// Snapshot is an immutable view of the store after a transition.
type Snapshot struct {
	Version uint64
	Entries []Entry
	Pending int
}

// Option configures a MessageStore.
type Option func(*MessageStore)

// WithOnChange registers fn to receive a snapshot after every transition.
// Calls are serialized and never deliver an older version after a newer one.
func WithOnChange(fn func(Snapshot)) Option {
	return func(s *MessageStore) {
		s.onChange = fn
	}
}

// MessageStore owns the ordered message list shown to the user.
//
// Submitting appends the user entry immediately (optimistically) and starts
// one send in the background. A successful send appends the bot entry to the
// list as it is at that moment, so replies land in completion order. A failed
// send is logged and changes nothing: the user entry stays and no error entry
// is inserted.
type MessageStore struct {
	sender Sender
	logger *zap.Logger

	mu      sync.Mutex
	entries []Entry
	pending map[uint64]string
	nextID  uint64
	version uint64

	notifyMu  sync.Mutex
	delivered uint64
	onChange  func(Snapshot)

	inflight sync.WaitGroup
}

// NewMessageStore creates an empty store that sends through sender.
func NewMessageStore(sender Sender, logger *zap.Logger, opts ...Option) *MessageStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MessageStore{
		sender:  sender,
		logger:  logger,
		pending: make(map[uint64]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit appends text as a user entry and sends it. Empty or whitespace-only
// text is ignored and Submit reports false.
func (s *MessageStore) Submit(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.mu.Lock()
	s.entries = append(s.entries, Entry{Sender: chat.SenderUser, Text: text})
	s.nextID++
	id := s.nextID
	s.pending[id] = text
	snap := s.snapshotLocked()
	s.inflight.Add(1)
	s.mu.Unlock()

	s.notify(snap)

	go s.resolve(id, text)
	return true
}

func (s *MessageStore) resolve(id uint64, text string) {
	defer s.inflight.Done()

	// Sends are not tied to any caller context: there is no cancellation.
	reply, err := s.sender.Send(context.Background(), text)

	s.mu.Lock()
	delete(s.pending, id)
	if err == nil {
		s.entries = append(s.entries, Entry{Sender: chat.SenderBot, Text: reply})
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("chat send failed", zap.Uint64("request", id), zap.Error(err))
	}
	s.notify(snap)
}

func (s *MessageStore) snapshotLocked() Snapshot {
	s.version++
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return Snapshot{Version: s.version, Entries: entries, Pending: len(s.pending)}
}

func (s *MessageStore) notify(snap Snapshot) {
	if s.onChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Version <= s.delivered {
		return
	}
	s.delivered = snap.Version
	s.onChange(snap)
}

// Messages returns a copy of the current list.
func (s *MessageStore) Messages() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Pending reports how many sends are still in flight.
func (s *MessageStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Wait blocks until every in-flight send has resolved and its change has
// been delivered.
func (s *MessageStore) Wait() {
	s.inflight.Wait()
}
