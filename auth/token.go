package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"peerchat/domain"
	apperrors "peerchat/errors"
)

const defaultTokenTTL = 24 * time.Hour

type CustomClaims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies the tokens carried by both the
// HTTP API and the websocket handshake.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: defaultTokenTTL}
}

func (a *Authenticator) GenerateToken(user domain.User) (string, error) {
	now := time.Now().UTC()
	claims := CustomClaims{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("unable to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a signed token and returns the identity it
// carries. Any parsing or signature failure maps to ErrUnauthorized
// so callers never leak the underlying reason to clients.
func (a *Authenticator) ValidateToken(tokenString string) (domain.Identity, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, apperrors.ErrUnauthorized
	}
	if claims.UserID == "" {
		return domain.Identity{}, apperrors.ErrUnauthorized
	}

	return domain.Identity{
		UserID:          claims.UserID,
		DisplayName:     claims.DisplayName,
		IsAuthenticated: true,
	}, nil
}
