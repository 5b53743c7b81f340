package domain

import "time"

// Chat is a conversation between exactly two distinct participants.
// Participants are always held in canonical order, so the same unordered
// pair maps to the same stored representation.
type Chat struct {
	ID           string
	Participants [2]string
	CreatedAt    time.Time
}

// CanonicalPair returns the two user ids in their fixed, order-independent
// representation (lexicographically sorted). Callers must canonicalize
// before every lookup or insert; caller-supplied order is never trusted.
func CanonicalPair(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// HasParticipant reports whether userID is one of the two participants.
func (c Chat) HasParticipant(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// PeerOf returns the participant that is not userID.
// ok is false when userID is not a participant at all.
func (c Chat) PeerOf(userID string) (peer string, ok bool) {
	switch userID {
	case c.Participants[0]:
		return c.Participants[1], true
	case c.Participants[1]:
		return c.Participants[0], true
	}
	return "", false
}
