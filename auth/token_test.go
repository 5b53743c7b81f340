package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"peerchat/domain"
	apperrors "peerchat/errors"
)

func Test_Token_Roundtrip(t *testing.T) {
	req := require.New(t)
	authenticator := NewAuthenticator("test-secret")

	signed, err := authenticator.GenerateToken(domain.User{ID: "user-1", DisplayName: "Alice"})
	req.NoError(err)
	req.NotEmpty(signed)

	identity, err := authenticator.ValidateToken(signed)
	req.NoError(err)
	req.Equal("user-1", identity.UserID)
	req.Equal("Alice", identity.DisplayName)
	req.True(identity.IsAuthenticated)
}

func Test_Token_Garbage_Rejected(t *testing.T) {
	req := require.New(t)
	authenticator := NewAuthenticator("test-secret")

	_, err := authenticator.ValidateToken("definitely.not.a.token")
	req.ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = authenticator.ValidateToken("")
	req.ErrorIs(err, apperrors.ErrUnauthorized)
}

func Test_Token_Wrong_Secret_Rejected(t *testing.T) {
	req := require.New(t)
	signer := NewAuthenticator("secret-one")
	verifier := NewAuthenticator("secret-two")

	signed, err := signer.GenerateToken(domain.User{ID: "user-1", DisplayName: "Alice"})
	req.NoError(err)

	// Then the signature check fails without leaking why
	_, err = verifier.ValidateToken(signed)
	req.ErrorIs(err, apperrors.ErrUnauthorized)
}
