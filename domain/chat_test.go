package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Canonical_Pair_Is_Order_Independent(t *testing.T) {
	req := require.New(t)

	req.Equal(CanonicalPair("alice", "bob"), CanonicalPair("bob", "alice"))
	req.Equal([2]string{"alice", "bob"}, CanonicalPair("bob", "alice"))
}

func Test_Peer_Of(t *testing.T) {
	req := require.New(t)
	chat := Chat{ID: "chat-1", Participants: [2]string{"alice", "bob"}}

	peer, ok := chat.PeerOf("alice")
	req.True(ok)
	req.Equal("bob", peer)

	peer, ok = chat.PeerOf("bob")
	req.True(ok)
	req.Equal("alice", peer)

	_, ok = chat.PeerOf("mallory")
	req.False(ok)

	req.True(chat.HasParticipant("alice"))
	req.False(chat.HasParticipant("mallory"))
}
