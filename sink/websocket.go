package sink

import (
	"context"
	"fmt"
	"time"

	"peerchat/domain/event"
)

// WebsocketSink bridges broadcast fan-out to a single websocket
// connection. Events are handed off through a buffered channel so a
// slow reader never blocks the room; when the buffer stays full past
// the delivery timeout the sink reports failure and the registry
// evicts the connection.
type WebsocketSink struct {
	Events          chan event.DomainEvent
	deliveryTimeout time.Duration
}

func NewWebsocketSink(bufferSize int, deliveryTimeout time.Duration) *WebsocketSink {
	return &WebsocketSink{
		Events:          make(chan event.DomainEvent, bufferSize),
		deliveryTimeout: deliveryTimeout,
	}
}

func (s *WebsocketSink) Consume(ctx context.Context, e event.DomainEvent) error {
	timer := time.NewTimer(s.deliveryTimeout)
	defer timer.Stop()

	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("delivery timeout after %s, connection too slow", s.deliveryTimeout)
	}
}
