package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"peerchat/domain"
	"peerchat/domain/event"
	apperrors "peerchat/errors"
	"peerchat/sink"
)

const (
	eventJoin    = "join"
	eventLeave   = "leave"
	eventMessage = "message"
	eventJoined  = "joined"
	eventLeft    = "left"
	eventError   = "error"
)

// clientFrame is everything a client may send over the socket.
type clientFrame struct {
	Event   string `json:"event" validate:"required,oneof=join leave message"`
	ChatID  string `json:"chat_id" validate:"required"`
	Content string `json:"content"`
}

type serverFrame struct {
	Event   string               `json:"event"`
	ChatID  string               `json:"chat_id,omitempty"`
	Message *event.MessagePosted `json:"message,omitempty"`
	Error   string               `json:"error,omitempty"`
}

type connection struct {
	id        string
	identity  domain.Identity
	ws        *websocket.Conn
	sink      *sink.WebsocketSink
	limiter   *rate.Limiter
	joined    map[string]struct{}
	done      chan struct{}
	closeOnce sync.Once
	gateway   *Gateway

	// wmu serializes socket writes: acks go out from the read side
	// while writePump pushes messages and pings.
	wmu sync.Mutex
}

// readPump owns all reads and all registry membership for this
// connection. It returns when the socket dies, the connection is
// evicted, or the client leaves.
func (c *connection) readPump() {
	defer c.cleanup()

	c.ws.SetReadLimit(maxFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gateway.log.Warn("read failed", "conn_id", c.id, "error", err)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.sendError("", "malformed frame")
			continue
		}
		if err := c.gateway.validate.Struct(frame); err != nil {
			c.sendError(frame.ChatID, "invalid frame")
			continue
		}

		c.handle(frame)

		select {
		case <-c.done:
			return
		default:
		}
	}
}

func (c *connection) handle(frame clientFrame) {
	switch frame.Event {
	case eventJoin:
		c.handleJoin(frame.ChatID)
	case eventLeave:
		c.handleLeave(frame.ChatID)
	case eventMessage:
		c.handleMessage(frame.ChatID, frame.Content)
	}
}

func (c *connection) handleJoin(chatID string) {
	if _, ok := c.joined[chatID]; ok {
		return
	}
	if _, err := c.gateway.resolver.GetByID(chatID, c.identity.UserID); err != nil {
		c.sendError(chatID, "chat not found")
		return
	}
	c.gateway.registry.Subscribe(chatID, c.id, c.sink)
	c.joined[chatID] = struct{}{}
	c.send(serverFrame{Event: eventJoined, ChatID: chatID})
}

func (c *connection) handleLeave(chatID string) {
	if _, ok := c.joined[chatID]; !ok {
		return
	}
	c.gateway.registry.Unsubscribe(chatID, c.id)
	delete(c.joined, chatID)
	c.send(serverFrame{Event: eventLeft, ChatID: chatID})
}

func (c *connection) handleMessage(chatID, content string) {
	if _, ok := c.joined[chatID]; !ok {
		c.sendError(chatID, "join the chat before sending")
		return
	}
	if !c.limiter.Allow() {
		c.sendError(chatID, apperrors.ErrRateLimited.Error())
		return
	}

	msg, err := c.gateway.messages.Append(chatID, c.identity.UserID, content)
	if err != nil {
		c.sendError(chatID, appendErrorMessage(err))
		return
	}
	c.gateway.metrics.MessagesAppended.Inc()

	posted := event.MessagePosted{
		ID:         msg.ID,
		Chat:       msg.ChatID,
		SenderID:   msg.SenderID,
		SenderName: c.identity.DisplayName,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
	}
	c.gateway.metrics.BroadcastsTotal.Inc()
	c.gateway.registry.Broadcast(context.Background(), chatID, posted, c.id)
}

func appendErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidMessage):
		return "message content must not be empty"
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrUnauthorized):
		return "chat not found"
	default:
		return "message could not be stored"
	}
}

// writePump owns all writes to the socket. Events arrive through the
// sink channel so registry fan-out never touches the connection.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e := <-c.sink.Events:
			posted, ok := e.(event.MessagePosted)
			if !ok {
				continue
			}
			if !c.write(serverFrame{Event: eventMessage, ChatID: posted.Chat, Message: &posted}) {
				c.close()
				return
			}
		case <-ticker.C:
			if !c.ping() {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *connection) send(f serverFrame) {
	if !c.write(f) {
		c.close()
	}
}

func (c *connection) sendError(chatID, message string) {
	c.send(serverFrame{Event: eventError, ChatID: chatID, Error: message})
}

func (c *connection) write(f serverFrame) bool {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(f) == nil
}

func (c *connection) ping() bool {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.PingMessage, nil) == nil
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// cleanup runs exactly once, on every exit path, and always drops all
// room memberships before the connection is forgotten.
func (c *connection) cleanup() {
	c.close()
	for chatID := range c.joined {
		c.gateway.registry.Unsubscribe(chatID, c.id)
	}
	c.gateway.remove(c)
	c.gateway.log.Info("connection closed", "conn_id", c.id, "user_id", c.identity.UserID)
}
