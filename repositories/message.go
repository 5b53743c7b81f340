//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"peerchat/domain"
	apperrors "peerchat/errors"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessages(chatID string, limit int) ([]domain.Message, error)
	LastMessage(chatID string) (domain.Message, error)
	MarkRead(chatID, readerID string) error
	CountUnread(chatID, readerID string) (int, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// DiskMessage mirrors the on-disk message document:
// {_id, chat_id, sender_id, content, created_at, is_read}
type DiskMessage struct {
	ID        string `json:"_id"`
	ChatID    string `json:"chat_id"`
	SenderID  string `json:"sender_id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
	IsRead    bool   `json:"is_read"`
}

// messageKey is formatted as "msg:{chat_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Keep a total order via the UUID tiebreak if two messages arrive
//     at the same nanosecond.
func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s",
		message.ChatID,
		message.CreatedAt.UnixNano(),
		message.ID,
	))
}

func messagePrefix(chatID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", chatID))
}

func (r MessageRepository) StoreMessage(message domain.Message) error {
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), bytes)
	})
	if err != nil {
		return fmt.Errorf("storing message: %w", err)
	}
	return nil
}

// GetMessages returns the chat's messages ascending by created_at.
// Thanks to the padded timestamp in the key, messages are naturally sorted
// by time; iteration stops once limit is reached (limit <= 0 means all).
func (r MessageRepository) GetMessages(chatID string, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(chatID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(messages) == limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d messages reached", limit))
				break
			}
			err := it.Item().Value(func(val []byte) error {
				message, err := decodeMessage(val)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching messages of chat %s: %w", chatID, err)
	}
	return messages, nil
}

// LastMessage seeks past the newest possible key and walks backwards to the
// most recent entry of the chat.
func (r MessageRepository) LastMessage(chatID string) (domain.Message, error) {
	var message domain.Message
	found := false
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(chatID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		return it.Item().Value(func(val []byte) error {
			decoded, err := decodeMessage(val)
			if err != nil {
				return err
			}
			message = decoded
			found = true
			return nil
		})
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("fetching last message of chat %s: %w", chatID, err)
	}
	if !found {
		return domain.Message{}, apperrors.ErrNotFound
	}
	return message, nil
}

// MarkRead flips is_read on every unread message not sent by readerID.
// Running it twice leaves the chat unchanged.
func (r MessageRepository) MarkRead(chatID, readerID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		prefix := messagePrefix(chatID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		type pending struct {
			key   []byte
			value []byte
		}
		var updates []pending
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			err := item.Value(func(val []byte) error {
				var doc DiskMessage
				if err := json.Unmarshal(val, &doc); err != nil {
					return err
				}
				if doc.SenderID == readerID || doc.IsRead {
					return nil
				}
				doc.IsRead = true
				bytes, err := json.Marshal(doc)
				if err != nil {
					return err
				}
				updates = append(updates, pending{key: key, value: bytes})
				return nil
			})
			if err != nil {
				return err
			}
		}
		for _, u := range updates {
			if err := txn.Set(u.key, u.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("marking chat %s read: %w", chatID, err)
	}
	return nil
}

// CountUnread counts messages addressed to readerID that are still unread.
func (r MessageRepository) CountUnread(chatID, readerID string) (int, error) {
	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(chatID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var doc DiskMessage
				if err := json.Unmarshal(val, &doc); err != nil {
					return err
				}
				if doc.SenderID != readerID && !doc.IsRead {
					count++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting unread of chat %s: %w", chatID, err)
	}
	return count, nil
}

func fromMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:        message.ID.String(),
		ChatID:    message.ChatID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt.UnixNano(),
		IsRead:    message.IsRead,
	}
}

func decodeMessage(val []byte) (domain.Message, error) {
	var doc DiskMessage
	if err := json.Unmarshal(val, &doc); err != nil {
		return domain.Message{}, err
	}
	parsedID, err := uuid.Parse(doc.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		ChatID:    doc.ChatID,
		SenderID:  doc.SenderID,
		Content:   doc.Content,
		CreatedAt: time.Unix(0, doc.CreatedAt).UTC(),
		IsRead:    doc.IsRead,
	}, nil
}
