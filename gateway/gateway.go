// Package gateway terminates websocket connections and bridges them
// to the room registry.
package gateway

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"peerchat/auth"
	"peerchat/contract"
	"peerchat/observability"
	"peerchat/services"
	"peerchat/sink"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxFrameBytes   = 8 << 10
	sinkBufferSize  = 32
	deliveryTimeout = 5 * time.Second
)

type Gateway struct {
	auth     *auth.Authenticator
	registry contract.IRegistry
	resolver services.IChatResolver
	messages services.IMessageLog
	metrics  *observability.Metrics
	log      *slog.Logger

	upgrader  websocket.Upgrader
	validate  *validator.Validate
	sendRate  rate.Limit
	sendBurst int

	mu    sync.Mutex
	conns map[string]*connection
}

func NewGateway(authn *auth.Authenticator, registry contract.IRegistry, resolver services.IChatResolver,
	messages services.IMessageLog, metrics *observability.Metrics, messagesPerSecond float64, log *slog.Logger) *Gateway {
	return &Gateway{
		auth:     authn,
		registry: registry,
		resolver: resolver,
		messages: messages,
		metrics:  metrics,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		validate:  validator.New(),
		sendRate:  rate.Limit(messagesPerSecond),
		sendBurst: int(messagesPerSecond) + 1,
		conns:     make(map[string]*connection),
	}
}

// HandleWS authenticates the handshake and upgrades it. A missing or
// invalid token is rejected with 401 before any upgrade happens.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	identity, err := g.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &connection{
		id:       uuid.NewString(),
		identity: identity,
		ws:       ws,
		sink:     sink.NewWebsocketSink(sinkBufferSize, deliveryTimeout),
		limiter:  rate.NewLimiter(g.sendRate, g.sendBurst),
		joined:   make(map[string]struct{}),
		done:     make(chan struct{}),
		gateway:  g,
	}

	g.mu.Lock()
	g.conns[c.id] = c
	g.mu.Unlock()
	g.metrics.ConnectionsLive.Inc()

	g.log.Info("connection opened", "conn_id", c.id, "user_id", identity.UserID)

	go c.writePump()
	c.readPump()
}

// Evict force-closes a connection whose sink stopped draining. Called
// by the registry while fanning out, so it must not block.
func (g *Gateway) Evict(connID string) {
	g.mu.Lock()
	c, ok := g.conns[connID]
	g.mu.Unlock()
	if ok {
		g.metrics.DeliveryFailures.Inc()
		c.close()
	}
}

func (g *Gateway) remove(c *connection) {
	g.mu.Lock()
	_, present := g.conns[c.id]
	delete(g.conns, c.id)
	g.mu.Unlock()
	if present {
		g.metrics.ConnectionsLive.Dec()
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
