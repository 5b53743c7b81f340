//go:generate go run go.uber.org/mock/mockgen -source=chat_listing.go -destination=../mocks/mock_chat_listing.go -package=mocks
package services

import (
	"errors"
	"log/slog"

	"peerchat/domain"
	apperrors "peerchat/errors"
	"peerchat/repositories"
)

// IChatListing composes chats, last messages and peer identities into the
// inbox view.
type IChatListing interface {
	ListForUser(userID string) ([]domain.ChatSummary, error)
}

type ChatListing struct {
	chats    repositories.IChatRepository
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
	log      *slog.Logger
}

func NewChatListing(chats repositories.IChatRepository, messages repositories.IMessageRepository,
	users repositories.IUserRepository, log *slog.Logger) ChatListing {
	return ChatListing{chats: chats, messages: messages, users: users, log: log}
}

// ListForUser returns the user's chats newest first, each with the resolved
// peer, the last message if any, and the unread count. A chat whose peer can
// no longer be resolved (deleted account) is skipped rather than surfaced
// with a broken reference; one bad entry never fails the whole listing.
func (s ChatListing) ListForUser(userID string) ([]domain.ChatSummary, error) {
	chats, err := retryRead(s.log, "list chats", func() ([]domain.Chat, error) {
		return s.chats.ListChatsForUser(userID)
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		peerID, ok := chat.PeerOf(userID)
		if !ok {
			s.log.Warn("chat without requester among participants", "chat_id", chat.ID)
			continue
		}
		peer, err := retryRead(s.log, "peer lookup", func() (domain.User, error) {
			return s.users.FindUser(peerID)
		})
		if err != nil {
			s.log.Warn("skipping chat, peer unresolved", "chat_id", chat.ID, "peer_id", peerID, "error", err)
			continue
		}

		summary := domain.ChatSummary{Chat: chat, Peer: peer}
		summary.LastMessage = s.lastMessage(chat.ID)
		summary.UnreadCount = s.unreadCount(chat.ID, userID)
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s ChatListing) lastMessage(chatID string) *domain.EnrichedMessage {
	last, err := retryRead(s.log, "last message", func() (domain.Message, error) {
		return s.messages.LastMessage(chatID)
	})
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	case err != nil:
		s.log.Warn("last message lookup failed", "chat_id", chatID, "error", err)
		return nil
	}

	name := UnknownSender
	if sender, err := s.users.FindUser(last.SenderID); err == nil {
		name = sender.DisplayName
	}
	return &domain.EnrichedMessage{Message: last, SenderName: name}
}

func (s ChatListing) unreadCount(chatID, userID string) int {
	count, err := retryRead(s.log, "unread count", func() (int, error) {
		return s.messages.CountUnread(chatID, userID)
	})
	if err != nil {
		s.log.Warn("unread count failed", "chat_id", chatID, "error", err)
		return 0
	}
	return count
}
