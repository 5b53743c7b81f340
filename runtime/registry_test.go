package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"peerchat/domain/event"
	"peerchat/mocks"
)

func TestRegistry_Broadcast_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	posted := event.MessagePosted{Chat: "chat-1", SenderID: "alice", Content: "hello"}

	senderSink := mocks.NewMockEventSink(ctrl)
	peerSink := mocks.NewMockEventSink(ctrl)

	// Given both ends of the chat subscribed
	registry.Subscribe("chat-1", "conn-alice", senderSink)
	registry.Subscribe("chat-1", "conn-bob", peerSink)

	req.Equal(2, registry.MemberCount("chat-1"))

	// Then only the peer receives the event
	peerSink.EXPECT().Consume(gomock.Any(), posted).Return(nil).Times(1)

	registry.Broadcast(context.Background(), "chat-1", posted, "conn-alice")
}

func TestRegistry_Broadcast_Evicts_Failing_Sink(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	posted := event.MessagePosted{Chat: "chat-1", SenderID: "alice", Content: "hello"}

	stalledSink := mocks.NewMockEventSink(ctrl)
	healthySink := mocks.NewMockEventSink(ctrl)
	evictor := mocks.NewMockEvictor(ctrl)
	registry.WithEvictor(evictor)

	registry.Subscribe("chat-1", "conn-stalled", stalledSink)
	registry.Subscribe("chat-1", "conn-healthy", healthySink)

	stalledSink.EXPECT().
		Consume(gomock.Any(), posted).
		Return(fmt.Errorf("delivery timeout")).
		Times(1)
	evictor.EXPECT().Evict("conn-stalled").Times(1)

	// The healthy member is still served
	healthySink.EXPECT().Consume(gomock.Any(), posted).Return(nil).Times(1)

	registry.Broadcast(context.Background(), "chat-1", posted, "")

	req.Equal(2, registry.MemberCount("chat-1"))
}

func TestRegistry_Unsubscribe_Drops_Empty_Rooms(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	sink := mocks.NewMockEventSink(ctrl)

	registry.Subscribe("chat-1", "conn-1", sink)
	registry.Subscribe("chat-1", "conn-2", sink)
	registry.Subscribe("chat-2", "conn-1", sink)

	req.Equal(2, registry.RoomCount())
	req.Equal(3, registry.SubscriptionCount())

	registry.Unsubscribe("chat-1", "conn-1")
	req.Equal(2, registry.RoomCount())
	req.Equal(1, registry.MemberCount("chat-1"))

	// When the last member leaves, the room disappears
	registry.Unsubscribe("chat-1", "conn-2")
	req.Equal(1, registry.RoomCount())
	req.Zero(registry.MemberCount("chat-1"))

	// Leaving a room twice is harmless
	registry.Unsubscribe("chat-1", "conn-2")
	req.Equal(1, registry.RoomCount())
}

func TestRegistry_Broadcast_Empty_Room(t *testing.T) {
	registry := NewRegistry(slog.Default())

	// No member, no panic
	registry.Broadcast(context.Background(), "nowhere", event.MessagePosted{Chat: "nowhere"}, "")
}
