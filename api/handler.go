// Package api exposes the chat query operations over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"peerchat/domain"
	apperrors "peerchat/errors"
	"peerchat/repositories"
	"peerchat/services"
)

const defaultSearchLimit = 20

type ChatHandler struct {
	resolver services.IChatResolver
	messages services.IMessageLog
	listing  services.IChatListing
	users    repositories.IUserRepository
	log      *slog.Logger
}

func NewChatHandler(resolver services.IChatResolver, messages services.IMessageLog,
	listing services.IChatListing, users repositories.IUserRepository, log *slog.Logger) *ChatHandler {
	return &ChatHandler{
		resolver: resolver,
		messages: messages,
		listing:  listing,
		users:    users,
		log:      log,
	}
}

// ListChats returns every chat of the authenticated user, newest first.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	summaries, err := h.listing.ListForUser(identity.UserID)
	if err != nil {
		h.log.Error("chat listing failed", "user_id", identity.UserID, "error", err)
		writeError(w, "could not retrieve chats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// StartChat resolves (or creates) the chat between the caller and the
// target user. Calling it twice returns the same chat.
func (h *ChatHandler) StartChat(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	peerID := mux.Vars(r)["userID"]
	if _, err := h.users.FindUser(peerID); err != nil {
		writeError(w, "user not found", http.StatusNotFound)
		return
	}

	chat, err := h.resolver.GetOrCreate(identity.UserID, peerID)
	switch {
	case errors.Is(err, apperrors.ErrSelfChatNotAllowed):
		writeError(w, "cannot start a chat with yourself", http.StatusBadRequest)
		return
	case err != nil:
		h.log.Error("chat resolution failed", "user_id", identity.UserID, "peer_id", peerID, "error", err)
		writeError(w, "could not start chat", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// GetChat returns a single chat, as long as the caller participates in
// it. Anything else looks like a missing chat.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	chat, err := h.resolver.GetByID(mux.Vars(r)["chatID"], identity.UserID)
	if err != nil {
		h.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// GetMessages returns the chat history oldest first and marks the
// peer's messages as read, mirroring what opening the conversation
// does in the UI.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	chatID := mux.Vars(r)["chatID"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	if _, err := h.resolver.GetByID(chatID, identity.UserID); err != nil {
		h.writeChatError(w, err)
		return
	}

	history, err := h.messages.History(chatID, limit)
	if err != nil {
		h.log.Error("history fetch failed", "chat_id", chatID, "error", err)
		writeError(w, "could not retrieve messages", http.StatusInternalServerError)
		return
	}

	if err := h.messages.MarkRead(chatID, identity.UserID); err != nil {
		h.log.Warn("mark read failed", "chat_id", chatID, "user_id", identity.UserID, "error", err)
	}
	writeJSON(w, http.StatusOK, history)
}

// MarkRead marks every message from the peer as read.
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	chatID := mux.Vars(r)["chatID"]

	if err := h.messages.MarkRead(chatID, identity.UserID); err != nil {
		h.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SearchUsers finds users whose name contains the query, excluding the
// caller from the results.
func (h *ChatHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, []domain.User{})
		return
	}

	users, err := h.users.SearchUsers(query, defaultSearchLimit)
	if err != nil {
		h.log.Error("user search failed", "error", err)
		writeError(w, "could not search users", http.StatusInternalServerError)
		return
	}

	results := lo.Filter(users, func(u domain.User, _ int) bool {
		return u.ID != identity.UserID
	})
	writeJSON(w, http.StatusOK, results)
}

// writeChatError hides the difference between a chat that does not
// exist and a chat the caller is not part of.
func (h *ChatHandler) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrUnauthorized):
		writeError(w, "chat not found", http.StatusNotFound)
	default:
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
