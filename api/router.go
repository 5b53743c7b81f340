package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"peerchat/auth"
)

// NewRouter wires the authenticated API, the websocket endpoint and
// the operational endpoints onto a single mux.
func NewRouter(h *ChatHandler, a *AuthHandler, ws http.HandlerFunc, authn *auth.Authenticator,
	gatherer prometheus.Gatherer, log *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(NewLoggingMiddleware(log))

	r.HandleFunc("/ws", ws)
	r.HandleFunc("/auth/register", a.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", a.Login).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(NewJWTMiddleware(authn))
	apiRouter.HandleFunc("/chats", h.ListChats).Methods(http.MethodGet)
	apiRouter.HandleFunc("/chats/start/{userID}", h.StartChat).Methods(http.MethodPost)
	apiRouter.HandleFunc("/chats/{chatID}", h.GetChat).Methods(http.MethodGet)
	apiRouter.HandleFunc("/chats/{chatID}/messages", h.GetMessages).Methods(http.MethodGet)
	apiRouter.HandleFunc("/chats/{chatID}/read", h.MarkRead).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/search", h.SearchUsers).Methods(http.MethodGet)

	return r
}
