//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"peerchat/domain"
	apperrors "peerchat/errors"
)

// IUserRepository is the lookup and account store for users. Only
// password hashes are persisted, never plain credentials.
type IUserRepository interface {
	FindUser(id string) (domain.User, error)
	// FindUserByName returns the user and its stored password hash.
	FindUserByName(username string) (domain.User, string, error)
	// CreateUser claims the username and persists the account.
	CreateUser(username, passwordHash string) (domain.User, error)
	SaveUser(user domain.User) error
	SearchUsers(query string, limit int) ([]domain.User, error)
}

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

// DiskUser mirrors the on-disk user document: {_id, username, password_hash}.
type DiskUser struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash,omitempty"`
}

func userKey(id string) []byte {
	return []byte(fmt.Sprintf("user:%s", id))
}

// usernameKey indexes the lowercased username for uniqueness and login.
func usernameKey(username string) []byte {
	return []byte(fmt.Sprintf("username:%s", strings.ToLower(username)))
}

func (r UserRepository) FindUser(id string) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var doc DiskUser
			if err := json.Unmarshal(val, &doc); err != nil {
				return err
			}
			user = domain.User{ID: doc.ID, DisplayName: doc.Username}
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, apperrors.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("finding user %s: %w", id, err)
	}
	return user, nil
}

func (r UserRepository) FindUserByName(username string) (domain.User, string, error) {
	var user domain.User
	var hash string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err != nil {
			return err
		}
		var id []byte
		if id, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get(userKey(string(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var doc DiskUser
			if err := json.Unmarshal(val, &doc); err != nil {
				return err
			}
			user = domain.User{ID: doc.ID, DisplayName: doc.Username}
			hash = doc.PasswordHash
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, "", apperrors.ErrNotFound
	}
	if err != nil {
		return domain.User{}, "", fmt.Errorf("finding user %q: %w", username, err)
	}
	return user, hash, nil
}

// CreateUser claims the username index and stores the account in one
// transaction, so two concurrent registrations cannot share a name.
func (r UserRepository) CreateUser(username, passwordHash string) (domain.User, error) {
	user := domain.User{ID: uuid.NewString(), DisplayName: username}
	bytes, err := json.Marshal(DiskUser{ID: user.ID, Username: username, PasswordHash: passwordHash})
	if err != nil {
		return domain.User{}, fmt.Errorf("encoding user: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(usernameKey(username))
		if err == nil {
			return apperrors.ErrUserExists
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(usernameKey(username), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), bytes)
	})
	if err == badger.ErrConflict {
		return domain.User{}, apperrors.ErrUserExists
	}
	if err != nil {
		if err == apperrors.ErrUserExists {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("creating user %q: %w", username, err)
	}
	return user, nil
}

func (r UserRepository) SaveUser(user domain.User) error {
	bytes, err := json.Marshal(DiskUser{ID: user.ID, Username: user.DisplayName})
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), bytes)
	})
	if err != nil {
		return fmt.Errorf("saving user %s: %w", user.ID, err)
	}
	return nil
}

// SearchUsers scans the users collection for display names containing
// query, case-insensitive. The collection is small enough that a prefix
// scan beats maintaining a separate name index.
func (r UserRepository) SearchUsers(query string, limit int) ([]domain.User, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}
	var users []domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(users) == limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var doc DiskUser
				if err := json.Unmarshal(val, &doc); err != nil {
					return err
				}
				if strings.Contains(strings.ToLower(doc.Username), needle) {
					users = append(users, domain.User{ID: doc.ID, DisplayName: doc.Username})
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
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return users, nil
}
