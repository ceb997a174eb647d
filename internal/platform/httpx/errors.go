package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps err to a JSON error body. Internal failures are logged and
// reported with a generic message.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", slog.Any("error", err))
		}
		Error(w, status, "internal server error")
		return
	}
	body := ErrorBody{Error: shared.UserSafeMessage(err), Status: status}
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		body.Missing = verr.Missing
		body.Item = verr.Item
	}
	JSON(w, status, body)
}
