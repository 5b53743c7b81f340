package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "peerchat/errors"
	"peerchat/services"
)

type AuthHandler struct {
	auth services.IAuthService
	log  *slog.Logger
}

func NewAuthHandler(auth services.IAuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates the account and immediately logs the caller in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "malformed request", http.StatusBadRequest)
		return
	}

	token, err := h.auth.Register(req.Username, req.Password)
	switch {
	case errors.Is(err, apperrors.ErrWeakPassword):
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, apperrors.ErrUserExists):
		writeError(w, "username already taken", http.StatusConflict)
		return
	case err != nil:
		h.log.Error("registration failed", "username", req.Username, "error", err)
		writeError(w, "could not register", http.StatusInternalServerError)
		return
	}
	h.writeToken(w, token)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "malformed request", http.StatusBadRequest)
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		writeError(w, "invalid credentials", http.StatusUnauthorized)
		return
	case err != nil:
		h.log.Error("login failed", "username", req.Username, "error", err)
		writeError(w, "could not log in", http.StatusInternalServerError)
		return
	}
	h.writeToken(w, token)
}

// writeToken answers with the token both as a cookie for the page
// layer and in the body for API clients.
func (h *AuthHandler) writeToken(w http.ResponseWriter, token services.Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    string(token),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"token": string(token)})
}
