package errors

import "fmt"

var (
	// ErrSelfChatNotAllowed rejects a conversation between an identity and itself.
	ErrSelfChatNotAllowed = fmt.Errorf("cannot start a chat with yourself")
	// ErrNotFound covers unknown chats and users. Unauthorized access is
	// reported through the same error so callers cannot probe for existence.
	ErrNotFound = fmt.Errorf("not found")
	// ErrUnauthorized marks a non-participant acting on a chat. Every outward
	// surface maps it to ErrNotFound before answering.
	ErrUnauthorized = fmt.Errorf("unauthorized")
	// ErrInvalidMessage rejects empty or whitespace-only content.
	ErrInvalidMessage = fmt.Errorf("message content is empty")
	// ErrChatExists signals a duplicate insert for an already-bound canonical
	// pair. The resolver retries the lookup instead of surfacing it.
	ErrChatExists = fmt.Errorf("chat already exists for this pair")
	// ErrRateLimited rejects a sender exceeding its per-connection budget.
	ErrRateLimited = fmt.Errorf("too many messages, slow down")
	// ErrUserExists signals a registration against a taken username.
	ErrUserExists = fmt.Errorf("username already taken")
	// ErrInvalidCredentials covers both unknown users and wrong passwords,
	// deliberately indistinguishable.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	// ErrWeakPassword rejects a registration failing the password rules.
	ErrWeakPassword = fmt.Errorf("password does not meet requirements")
	// ErrWorkerPanic reports a supervised worker that crashed and was recovered.
	ErrWorkerPanic = fmt.Errorf("worker panicked")
)
