package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/reveal-be/internal/apperr"
)

type messageBody struct {
	Message string `json:"message"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("respond: encode payload failed", zap.Error(err))
	}
}

// Message writes a body holding only a human-readable message.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, messageBody{Message: message})
}

// Error renders err with the status of its kind. Internal failures are logged
// and only their generic message reaches the client.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error("unhandled error", zap.Error(err))
		Message(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if appErr.Kind == apperr.Internal {
		log.Error(appErr.Message, zap.Error(appErr.Err))
	}
	Message(w, appErr.Status(), appErr.Message)
}

// Decode reads a JSON body into v. An empty body leaves v untouched so that
// field validation can name what is missing.
func Decode(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.New(apperr.Validation, "invalid JSON payload")
	}
	return nil
}
