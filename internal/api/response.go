package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/kizunavi/kizunavi/internal/middleware"
	"github.com/kizunavi/kizunavi/internal/services"
	"github.com/kizunavi/kizunavi/internal/utils"
)

// envelope is the uniform response shape. Every handler goes through
// writeData or writeError so clients can always rely on it.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: true, Message: msg})
}

// writeError maps the service error taxonomy onto HTTP statuses. Anything
// that is not a ServiceError is logged and hidden behind a generic localized
// message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if se, ok := services.AsServiceError(err); ok {
		writeJSON(w, statusFor(se.Code), envelope{Success: false, Message: se.Message})
		return
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: utils.T(locale, "error.generic")})
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	case services.ErrorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, services.NewInvalidError("invalid request body"))
		return false
	}
	return true
}
