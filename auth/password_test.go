package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Password_Hash_And_Compare(t *testing.T) {
	req := require.New(t)

	encoded, err := HashPassword("correct horse battery staple")
	req.NoError(err)
	req.True(strings.HasPrefix(encoded, "$argon2id$"))

	match, err := ComparePassword("correct horse battery staple", encoded)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong password", encoded)
	req.NoError(err)
	req.False(match)
}

func Test_Password_Hash_Is_Salted(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("same password")
	req.NoError(err)
	second, err := HashPassword("same password")
	req.NoError(err)

	// Two hashes of the same password never collide
	req.NotEqual(first, second)
}

func Test_Compare_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("anything", "not-an-encoded-hash")
	req.Error(err)

	_, err = ComparePassword("anything", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA")
	req.Error(err)
}

func Test_Register_Request_Validation(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateRegister(RegisterRequest{Username: "alice42", Password: "longenough"}))

	// Short password
	req.Error(ValidateRegister(RegisterRequest{Username: "alice42", Password: "short"}))

	// Username with forbidden characters
	req.Error(ValidateRegister(RegisterRequest{Username: "al ice!", Password: "longenough"}))

	// Username too short
	req.Error(ValidateRegister(RegisterRequest{Username: "al", Password: "longenough"}))
}
