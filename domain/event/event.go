package event

import (
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	ChatID() string
}

// MessagePosted is the room-scoped broadcast emitted after a message has
// been persisted. The JSON shape is the server-to-client wire contract and
// the backplane envelope payload.
type MessagePosted struct {
	ID         uuid.UUID `json:"id"`
	Chat       string    `json:"chat_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m MessagePosted) ChatID() string {
	return m.Chat
}
