package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"
	"github.com/prometheus/client_golang/prometheus"

	"peerchat/contract"
	"peerchat/domain/event"
)

const pollInterval = 500 * time.Millisecond

// Envelope is the JSON frame exchanged between instances. Origin lets a
// subscriber drop frames it published itself.
type Envelope struct {
	Origin string              `json:"origin"`
	Event  event.MessagePosted `json:"event"`
}

// Backplane is the distributed variant of the registry: membership stays
// local, but every broadcast is also published to the other instances
// over a zmq PUB socket, and remote broadcasts are replayed into the
// local room. Swapping Registry for Backplane requires no change in the
// gateway since both satisfy contract.IRegistry.
type Backplane struct {
	local  *Registry
	origin string
	log    *slog.Logger

	zctx *zmq.Context
	pub  *zmq.Socket
	sub  *zmq.Socket
	// zmq sockets are not safe for concurrent use
	pubMu sync.Mutex

	published prometheus.Counter
	replayed  prometheus.Counter
}

// NewBackplane binds the PUB socket on publishAddr and subscribes to every
// peer instance. origin must be unique per process.
func NewBackplane(local *Registry, origin, publishAddr string, peerAddrs []string, log *slog.Logger) (*Backplane, error) {
	zctx, err := zmq.NewContext()
	if err != nil {
		return nil, fmt.Errorf("creating zmq context: %w", err)
	}

	pub, err := zctx.NewSocket(zmq.PUB)
	if err != nil {
		return nil, fmt.Errorf("creating pub socket: %w", err)
	}
	if err := pub.Bind(publishAddr); err != nil {
		pub.Close()
		return nil, fmt.Errorf("binding pub socket on %s: %w", publishAddr, err)
	}

	sub, err := zctx.NewSocket(zmq.SUB)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("creating sub socket: %w", err)
	}
	for _, addr := range peerAddrs {
		if err := sub.Connect(addr); err != nil {
			pub.Close()
			sub.Close()
			return nil, fmt.Errorf("connecting sub socket to %s: %w", addr, err)
		}
	}
	if err := sub.SetSubscribe(""); err != nil {
		pub.Close()
		sub.Close()
		return nil, fmt.Errorf("subscribing: %w", err)
	}

	return &Backplane{
		local:  local,
		origin: origin,
		log:    log,
		zctx:   zctx,
		pub:    pub,
		sub:    sub,
	}, nil
}

// WithCounters attaches the publish and replay counters.
func (b *Backplane) WithCounters(published, replayed prometheus.Counter) *Backplane {
	b.published = published
	b.replayed = replayed
	return b
}

func (b *Backplane) Subscribe(chatID, connID string, sink contract.EventSink) {
	b.local.Subscribe(chatID, connID, sink)
}

func (b *Backplane) Unsubscribe(chatID, connID string) {
	b.local.Unsubscribe(chatID, connID)
}

// Broadcast fans out locally first, then publishes to the peers.
// A publish failure only costs remote delivery, never the local one.
func (b *Backplane) Broadcast(ctx context.Context, chatID string, e event.DomainEvent, excludeConnID string) {
	b.local.Broadcast(ctx, chatID, e, excludeConnID)

	posted, ok := e.(event.MessagePosted)
	if !ok {
		return
	}
	bytes, err := json.Marshal(Envelope{Origin: b.origin, Event: posted})
	if err != nil {
		b.log.Error("encoding backplane envelope", "chat_id", chatID, "error", err)
		return
	}

	b.pubMu.Lock()
	_, err = b.pub.SendBytes(bytes, zmq.DONTWAIT)
	b.pubMu.Unlock()
	if err != nil {
		b.log.Warn("backplane publish failed", "chat_id", chatID, "error", err)
		return
	}
	if b.published != nil {
		b.published.Inc()
	}
}

// Run receives peer envelopes until the context is cancelled. Frames this
// instance published itself are dropped; the rest are replayed into the
// local room with no exclusion, since the remote sender has no local
// connection.
func (b *Backplane) Run(ctx context.Context) error {
	poller := zmq.NewPoller()
	poller.Add(b.sub, zmq.POLLIN)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sockets, err := poller.Poll(pollInterval)
		if err != nil {
			b.log.Warn("backplane poll error", "error", err)
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		bytes, err := b.sub.RecvBytes(0)
		if err != nil {
			b.log.Warn("backplane receive failed", "error", err)
			continue
		}
		var envelope Envelope
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			b.log.Warn("dropping malformed backplane envelope", "error", err)
			continue
		}
		if envelope.Origin == b.origin {
			continue
		}
		b.local.Broadcast(ctx, envelope.Event.ChatID(), envelope.Event, "")
		if b.replayed != nil {
			b.replayed.Inc()
		}
	}
}

// Close releases both sockets. Call after Run has returned.
func (b *Backplane) Close() {
	if err := b.pub.Close(); err != nil {
		b.log.Warn("closing pub socket", "error", err)
	}
	if err := b.sub.Close(); err != nil {
		b.log.Warn("closing sub socket", "error", err)
	}
}
