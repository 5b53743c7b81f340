package sink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"peerchat/domain/event"
)

func Test_Sink_Buffers_Until_Full(t *testing.T) {
	req := require.New(t)
	s := NewWebsocketSink(2, 10*time.Millisecond)
	posted := event.MessagePosted{Chat: "chat-1", Content: "hello"}

	// Two events fit the buffer without a reader
	req.NoError(s.Consume(context.Background(), posted))
	req.NoError(s.Consume(context.Background(), posted))

	// The third waits for the delivery timeout, then fails
	start := time.Now()
	err := s.Consume(context.Background(), posted)
	req.Error(err)
	req.GreaterOrEqual(time.Since(start), 10*time.Millisecond)
}

func Test_Sink_Delivers_To_Reader(t *testing.T) {
	req := require.New(t)
	s := NewWebsocketSink(1, time.Second)
	posted := event.MessagePosted{Chat: "chat-1", Content: "hello"}

	req.NoError(s.Consume(context.Background(), posted))

	select {
	case received := <-s.Events:
		req.Equal(posted, received)
	case <-time.After(time.Second):
		req.Fail("expected the event on the channel")
	}
}

func Test_Sink_Honors_Context_Cancel(t *testing.T) {
	req := require.New(t)
	s := NewWebsocketSink(0, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Consume(ctx, event.MessagePosted{Chat: "chat-1"})
	req.ErrorIs(err, context.Canceled)
}
