// This file defines Message entries and related read-state rules.
// Messages are immutable apart from the is-read transition.
package domain

import (
	"github.com/google/uuid"
	"time"
)

// Message represents one persisted chat entry.
type Message struct {
	ID        uuid.UUID // unique identifier
	ChatID    string
	SenderID  string
	Content   string
	CreatedAt time.Time
	IsRead    bool
}

// EnrichedMessage is a Message carrying the resolved sender display name,
// as served by history and inbox views.
type EnrichedMessage struct {
	Message
	SenderName string
}

// ChatSummary is one entry of a user's inbox: the chat, the resolved peer,
// the most recent message if any, and how many peer messages are unread.
type ChatSummary struct {
	Chat        Chat
	Peer        User
	LastMessage *EnrichedMessage
	UnreadCount int
}
