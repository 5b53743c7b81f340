package services

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"peerchat/auth"
	"peerchat/domain"
	apperrors "peerchat/errors"
	"peerchat/mocks"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	usersMock := mocks.NewMockIUserRepository(ctrl)
	authenticator := auth.NewAuthenticator("test-secret")
	svc := NewAuthService(usersMock, authenticator, slog.Default())

	t.Run("should register and issue a valid token", func(t *testing.T) {
		req := require.New(t)

		// The stored hash must never be the plain password
		usersMock.EXPECT().
			CreateUser("alice", gomock.Not("Str0ngEnough!")).
			Return(domain.User{ID: "user-1", DisplayName: "alice"}, nil).
			Times(1)

		token, err := svc.Register("alice", "Str0ngEnough!")

		req.NoError(err)
		req.NotEmpty(token)

		identity, err := authenticator.ValidateToken(string(token))
		req.NoError(err)
		req.Equal("user-1", identity.UserID)
		req.Equal("alice", identity.DisplayName)
	})

	t.Run("should refuse a weak password before hashing", func(t *testing.T) {
		req := require.New(t)

		// The repository is never reached
		token, err := svc.Register("alice", "short")

		req.ErrorIs(err, apperrors.ErrWeakPassword)
		req.Empty(token)
	})

	t.Run("should surface a taken username", func(t *testing.T) {
		req := require.New(t)

		usersMock.EXPECT().
			CreateUser("alice", gomock.Any()).
			Return(domain.User{}, apperrors.ErrUserExists).
			Times(1)

		_, err := svc.Register("alice", "Str0ngEnough!")

		req.ErrorIs(err, apperrors.ErrUserExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	usersMock := mocks.NewMockIUserRepository(ctrl)
	authenticator := auth.NewAuthenticator("test-secret")
	svc := NewAuthService(usersMock, authenticator, slog.Default())

	user := domain.User{ID: "user-1", DisplayName: "alice"}

	t.Run("should login with the right password", func(t *testing.T) {
		req := require.New(t)
		hash, err := auth.HashPassword("Str0ngEnough!")
		req.NoError(err)

		usersMock.EXPECT().FindUserByName("alice").Return(user, hash, nil).Times(1)

		token, err := svc.Login("alice", "Str0ngEnough!")

		req.NoError(err)
		req.NotEmpty(token)

		identity, err := authenticator.ValidateToken(string(token))
		req.NoError(err)
		req.Equal("user-1", identity.UserID)
	})

	t.Run("should answer the same for a wrong password and an unknown user", func(t *testing.T) {
		req := require.New(t)
		hash, err := auth.HashPassword("Str0ngEnough!")
		req.NoError(err)

		usersMock.EXPECT().FindUserByName("alice").Return(user, hash, nil).Times(1)
		_, wrongPassword := svc.Login("alice", "not-the-one")

		usersMock.EXPECT().FindUserByName("nobody").Return(domain.User{}, "", apperrors.ErrNotFound).Times(1)
		_, unknownUser := svc.Login("nobody", "whatever")

		req.ErrorIs(wrongPassword, apperrors.ErrInvalidCredentials)
		req.Equal(wrongPassword, unknownUser)
	})
}
