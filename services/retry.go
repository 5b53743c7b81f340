package services

import (
	"errors"
	"log/slog"

	apperrors "peerchat/errors"
)

// isDomainError tells apart business outcomes from storage failures.
// Only the latter are worth retrying.
func isDomainError(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrUnauthorized) ||
		errors.Is(err, apperrors.ErrInvalidMessage) ||
		errors.Is(err, apperrors.ErrSelfChatNotAllowed) ||
		errors.Is(err, apperrors.ErrChatExists)
}

// retryRead runs an idempotent read once more after a storage failure.
// Writes are never retried here.
func retryRead[T any](log *slog.Logger, op string, fn func() (T, error)) (T, error) {
	res, err := fn()
	if err == nil || isDomainError(err) {
		return res, err
	}
	log.Warn("retrying read after storage error", "op", op, "error", err)
	return fn()
}
