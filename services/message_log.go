//go:generate go run go.uber.org/mock/mockgen -source=message_log.go -destination=../mocks/mock_message_log.go -package=mocks
package services

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"peerchat/domain"
	apperrors "peerchat/errors"
	"peerchat/moderation"
	"peerchat/repositories"
)

// DefaultHistoryLimit bounds a history read when the caller does not ask
// for a specific window.
const DefaultHistoryLimit = 50

// UnknownSender replaces the display name of a sender whose account no
// longer resolves. History never fails over a deleted account.
const UnknownSender = "Unknown"

// IMessageLog is the append-only per-chat message sequence with
// read-state tracking.
type IMessageLog interface {
	Append(chatID, senderID, content string) (domain.Message, error)
	History(chatID string, limit int) ([]domain.EnrichedMessage, error)
	MarkRead(chatID, readerID string) error
}

type MessageLog struct {
	chats     repositories.IChatRepository
	messages  repositories.IMessageRepository
	users     repositories.IUserRepository
	moderator *moderation.Moderator
	log       *slog.Logger
}

func NewMessageLog(chats repositories.IChatRepository, messages repositories.IMessageRepository,
	users repositories.IUserRepository, log *slog.Logger) MessageLog {
	return MessageLog{chats: chats, messages: messages, users: users, log: log}
}

// WithModerator censors content on append. Without it messages are
// stored verbatim.
func (s MessageLog) WithModerator(moderator *moderation.Moderator) MessageLog {
	s.moderator = moderator
	return s
}

// Append validates, stamps and persists one message. The timestamp is
// assigned here, monotonic per process; the storage key's UUID tiebreak
// totals the order across processes.
func (s MessageLog) Append(chatID, senderID, content string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, apperrors.ErrInvalidMessage
	}
	chat, err := retryRead(s.log, "chat lookup", func() (domain.Chat, error) {
		return s.chats.FindChatByID(chatID)
	})
	if err != nil {
		return domain.Message{}, err
	}
	if !chat.HasParticipant(senderID) {
		return domain.Message{}, apperrors.ErrUnauthorized
	}

	if s.moderator != nil {
		censored, words := s.moderator.Censor(content)
		if len(words) > 0 {
			s.log.Info("message censored", "chat_id", chatID, "sender_id", senderID, "words", len(words))
			content = censored
		}
	}

	message := domain.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		IsRead:    false,
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// History returns up to limit messages ascending by created_at, each
// enriched with the sender's display name.
func (s MessageLog) History(chatID string, limit int) ([]domain.EnrichedMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	messages, err := retryRead(s.log, "history", func() ([]domain.Message, error) {
		return s.messages.GetMessages(chatID, limit)
	})
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	enriched := make([]domain.EnrichedMessage, 0, len(messages))
	for _, message := range messages {
		enriched = append(enriched, domain.EnrichedMessage{
			Message:    message,
			SenderName: s.senderName(names, message.SenderID),
		})
	}
	return enriched, nil
}

// MarkRead flips the unread flag on every peer message of the chat.
// Applying it twice has no additional effect.
func (s MessageLog) MarkRead(chatID, readerID string) error {
	chat, err := retryRead(s.log, "chat lookup", func() (domain.Chat, error) {
		return s.chats.FindChatByID(chatID)
	})
	if err != nil {
		return err
	}
	if !chat.HasParticipant(readerID) {
		return apperrors.ErrUnauthorized
	}
	return s.messages.MarkRead(chatID, readerID)
}

func (s MessageLog) senderName(cache map[string]string, senderID string) string {
	if name, ok := cache[senderID]; ok {
		return name
	}
	name := UnknownSender
	user, err := retryRead(s.log, "sender lookup", func() (domain.User, error) {
		return s.users.FindUser(senderID)
	})
	switch {
	case err == nil:
		name = user.DisplayName
	case !errors.Is(err, apperrors.ErrNotFound):
		s.log.Warn("sender lookup failed", "user_id", senderID, "error", err)
	}
	cache[senderID] = name
	return name
}
