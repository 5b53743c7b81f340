package repositories

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"peerchat/domain"
	apperrors "peerchat/errors"
)

func Test_Create_User_And_Find(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db, slog.Default())

	created, err := repository.CreateUser("Alice", "encoded-hash")
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal("Alice", created.DisplayName)

	found, err := repository.FindUser(created.ID)
	req.NoError(err)
	req.Equal(created, found)

	// The name lookup is case-insensitive and carries the stored hash
	byName, hash, err := repository.FindUserByName("alice")
	req.NoError(err)
	req.Equal(created.ID, byName.ID)
	req.Equal("encoded-hash", hash)
}

func Test_Create_User_Name_Taken(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db, slog.Default())

	_, err := repository.CreateUser("alice", "hash-one")
	req.NoError(err)

	// Same name with different casing still collides
	_, err = repository.CreateUser("ALICE", "hash-two")
	req.ErrorIs(err, apperrors.ErrUserExists)
}

func Test_Find_User_Not_Found(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db, slog.Default())

	_, err := repository.FindUser("missing")
	req.ErrorIs(err, apperrors.ErrNotFound)

	_, _, err = repository.FindUserByName("nobody")
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func Test_Save_User_Overwrites(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db, slog.Default())

	user := domain.User{ID: "u-1", DisplayName: "Alice"}
	req.NoError(repository.SaveUser(user))

	user.DisplayName = "Alice B."
	req.NoError(repository.SaveUser(user))

	found, err := repository.FindUser("u-1")
	req.NoError(err)
	req.Equal("Alice B.", found.DisplayName)
}

func Test_Search_Users(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db, slog.Default())

	for _, name := range []string{"Alice", "Alicia", "Bob"} {
		_, err := repository.CreateUser(name, "hash")
		req.NoError(err)
	}

	// When searching case-insensitively
	users, err := repository.SearchUsers("ALI", 0)
	req.NoError(err)
	req.Len(users, 2)

	// Then the limit caps the result
	users, err = repository.SearchUsers("ali", 1)
	req.NoError(err)
	req.Len(users, 1)

	// And a blank query matches nobody
	users, err = repository.SearchUsers("   ", 0)
	req.NoError(err)
	req.Empty(users)
}
