//go:generate go run go.uber.org/mock/mockgen -source=chat_resolver.go -destination=../mocks/mock_chat_resolver.go -package=mocks
package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"peerchat/domain"
	apperrors "peerchat/errors"
	"peerchat/repositories"
)

// IChatResolver owns the canonical identity of a two-party conversation:
// one chat record per unordered pair, created lazily on first contact.
type IChatResolver interface {
	GetOrCreate(userA, userB string) (domain.Chat, error)
	GetByID(chatID, requesterID string) (domain.Chat, error)
}

type ChatResolver struct {
	chats repositories.IChatRepository
	log   *slog.Logger
}

func NewChatResolver(chats repositories.IChatRepository, log *slog.Logger) ChatResolver {
	return ChatResolver{chats: chats, log: log}
}

// GetOrCreate canonicalizes the pair before every lookup and insert, so
// GetOrCreate(a, b) and GetOrCreate(b, a) always resolve to the same chat.
// When both directions race on first contact, the storage-level pair
// constraint lets exactly one insert win; the loser re-reads the winner
// instead of surfacing the conflict.
func (s ChatResolver) GetOrCreate(userA, userB string) (domain.Chat, error) {
	if userA == userB {
		return domain.Chat{}, apperrors.ErrSelfChatNotAllowed
	}
	pair := domain.CanonicalPair(userA, userB)

	chat, err := retryRead(s.log, "pair lookup", func() (domain.Chat, error) {
		return s.chats.FindChatByParticipants(pair)
	})
	switch {
	case err == nil:
		return chat, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return domain.Chat{}, err
	}

	created, err := s.chats.InsertChat(domain.Chat{
		ID:           uuid.NewString(),
		Participants: pair,
		CreatedAt:    time.Now().UTC(),
	})
	switch {
	case err == nil:
		s.log.Info("chat created", "chat_id", created.ID)
		return created, nil
	case errors.Is(err, apperrors.ErrChatExists):
		// Lost the race, or the pair was bound between lookup and insert.
		if created.ID != "" {
			return created, nil
		}
		return s.chats.FindChatByParticipants(pair)
	}
	return domain.Chat{}, fmt.Errorf("resolving chat: %w", err)
}

// GetByID loads a chat and, when a requester is supplied, hides it from
// non-participants. Unauthorized access and a missing chat are deliberately
// indistinguishable to avoid leaking that the conversation exists.
func (s ChatResolver) GetByID(chatID, requesterID string) (domain.Chat, error) {
	chat, err := retryRead(s.log, "chat lookup", func() (domain.Chat, error) {
		return s.chats.FindChatByID(chatID)
	})
	if err != nil {
		return domain.Chat{}, err
	}
	if requesterID != "" && !chat.HasParticipant(requesterID) {
		s.log.Debug("chat access denied", "chat_id", chatID, "user_id", requesterID)
		return domain.Chat{}, apperrors.ErrNotFound
	}
	return chat, nil
}
