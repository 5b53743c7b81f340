//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"peerchat/domain"
	apperrors "peerchat/errors"
)

type IChatRepository interface {
	InsertChat(chat domain.Chat) (domain.Chat, error)
	FindChatByParticipants(pair [2]string) (domain.Chat, error)
	FindChatByID(id string) (domain.Chat, error)
	ListChatsForUser(userID string) ([]domain.Chat, error)
}

type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) ChatRepository {
	return ChatRepository{db: db, log: log}
}

// DiskChat mirrors the on-disk chat document:
// {_id, participants: [idLow, idHigh], created_at}
type DiskChat struct {
	ID           string    `json:"_id"`
	Participants [2]string `json:"participants"`
	CreatedAt    int64     `json:"created_at"`
}

func chatKey(id string) []byte {
	return []byte(fmt.Sprintf("chat:%s", id))
}

// pairKey is the uniqueness constraint on the canonical participant pair.
// The pair entry and the chat document are written in one transaction, so
// at most one chat record can ever exist for an unordered pair.
func pairKey(pair [2]string) []byte {
	return []byte(fmt.Sprintf("pair:%s:%s", pair[0], pair[1]))
}

func inboxKey(userID, chatID string) []byte {
	return []byte(fmt.Sprintf("inbox:%s:%s", userID, chatID))
}

// InsertChat persists a chat whose participants are already canonical.
// When the pair is already bound it returns the winning chat together with
// ErrChatExists. A concurrent first-contact from the other direction makes
// the badger transaction fail with a conflict, also reported as
// ErrChatExists so the caller retries the lookup.
func (r ChatRepository) InsertChat(chat domain.Chat) (domain.Chat, error) {
	var winner *DiskChat
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(chat.Participants))
		switch err {
		case nil:
			return item.Value(func(val []byte) error {
				existing, err := r.loadChat(txn, string(val))
				if err != nil {
					return err
				}
				winner = &existing
				return nil
			})
		case badger.ErrKeyNotFound:
			// Pair is free, claim it.
		default:
			return err
		}

		doc := fromChat(chat)
		bytes, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err := txn.Set(pairKey(chat.Participants), []byte(chat.ID)); err != nil {
			return err
		}
		if err := txn.Set(chatKey(chat.ID), bytes); err != nil {
			return err
		}
		for _, participant := range chat.Participants {
			if err := txn.Set(inboxKey(participant, chat.ID), []byte(chat.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case err == badger.ErrConflict:
		return domain.Chat{}, fmt.Errorf("inserting chat: %w", apperrors.ErrChatExists)
	case err != nil:
		return domain.Chat{}, fmt.Errorf("inserting chat: %w", err)
	case winner != nil:
		return toChat(*winner), fmt.Errorf("inserting chat: %w", apperrors.ErrChatExists)
	}
	return chat, nil
}

func (r ChatRepository) FindChatByParticipants(pair [2]string) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(pair))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			found, err := r.loadChat(txn, string(val))
			if err != nil {
				return err
			}
			chat = toChat(found)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Chat{}, apperrors.ErrNotFound
	}
	if err != nil {
		return domain.Chat{}, fmt.Errorf("finding chat by participants: %w", err)
	}
	return chat, nil
}

func (r ChatRepository) FindChatByID(id string) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.loadChat(txn, id)
		if err != nil {
			return err
		}
		chat = toChat(found)
		return nil
	})
	if err == badger.ErrKeyNotFound {
		return domain.Chat{}, apperrors.ErrNotFound
	}
	if err != nil {
		return domain.Chat{}, fmt.Errorf("finding chat %s: %w", id, err)
	}
	return chat, nil
}

// ListChatsForUser resolves the user's inbox index into chat documents,
// newest chat first.
func (r ChatRepository) ListChatsForUser(userID string) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("inbox:%s:", userID))
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = true
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				found, err := r.loadChat(txn, string(val))
				if err != nil {
					return err
				}
				chats = append(chats, toChat(found))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing chats for %s: %w", userID, err)
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].CreatedAt.After(chats[j].CreatedAt)
	})
	return chats, nil
}

func (r ChatRepository) loadChat(txn *badger.Txn, id string) (DiskChat, error) {
	item, err := txn.Get(chatKey(id))
	if err != nil {
		return DiskChat{}, err
	}
	var doc DiskChat
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	})
	return doc, err
}

func fromChat(chat domain.Chat) DiskChat {
	return DiskChat{
		ID:           chat.ID,
		Participants: chat.Participants,
		CreatedAt:    chat.CreatedAt.UnixNano(),
	}
}

func toChat(doc DiskChat) domain.Chat {
	return domain.Chat{
		ID:           doc.ID,
		Participants: doc.Participants,
		CreatedAt:    time.Unix(0, doc.CreatedAt).UTC(),
	}
}
