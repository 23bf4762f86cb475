package chat

import "time"

// Sender 标识一条消息的发送方。
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Message is one persisted side of a turn. The timestamp is assigned by the
// server when the record is stored; no identifier is exposed to clients.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage builds the record for an inbound user message.
func NewUserMessage(text string) Message {
	return Message{Sender: SenderUser, Text: text}
}

// NewBotMessage builds the record for a generated reply.
func NewBotMessage(text string) Message {
	return Message{Sender: SenderBot, Text: text}
}
