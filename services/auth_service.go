package services

import (
	"errors"
	"fmt"
	"log/slog"

	"peerchat/auth"
	apperrors "peerchat/errors"
	"peerchat/repositories"
)

type IAuthService interface {
	Register(username, password string) (Token, error)
	Login(username, password string) (Token, error)
}

type AuthService struct {
	users  repositories.IUserRepository
	tokens *auth.Authenticator
	log    *slog.Logger
}

type Token string

func NewAuthService(users repositories.IUserRepository, tokens *auth.Authenticator, log *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// Register creates the account and issues the initial session token.
// Validation runs before the expensive hashing work.
func (s *AuthService) Register(username, password string) (Token, error) {
	req := auth.RegisterRequest{Username: username, Password: password}
	if err := auth.ValidateRegister(req); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrWeakPassword, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.users.CreateUser(username, hash)
	if err != nil {
		return "", err
	}
	s.log.Info("user registered", "user_id", user.ID, "username", username)

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}

// Login verifies the password and issues a token. Unknown users and
// wrong passwords answer identically to block user enumeration.
func (s *AuthService) Login(username, password string) (Token, error) {
	user, hash, err := s.users.FindUserByName(username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.Error("login lookup failed", "username", username, "error", err)
		}
		return "", apperrors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, hash)
	if err != nil || !match {
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}
