package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gupshup-api/internal/domain"
)

const msgInternal = "Internal server error"

// Envelope is the success wrapper shared by every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorEnvelope is the failure wrapper.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type ErrorBody struct {
	Message string `json:"message"`
}

// AuthEnvelope wraps responses that issue an access token.
type AuthEnvelope struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Data        *domain.User `json:"data,omitempty"`
	AccessToken string       `json:"accessToken"`
}

// OTPEnvelope wraps responses that ask the client for an OTP.
type OTPEnvelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Email      string            `json:"email,omitempty"`
	OTPPurpose domain.OTPPurpose `json:"otpPurpose"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, status int, msg string, data interface{}) {
	writeJSON(w, status, Envelope{Success: true, Message: msg, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: ErrorBody{Message: msg}})
}

// httpError maps a service error onto its status code. Anything that is not a
// public domain error is logged and reported as a bare 500.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(domain.KindOf(err))
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, status, domain.MessageOf(err, msgInternal))
}

func statusOf(k domain.Kind) int {
	switch k {
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindTooManyRequests:
		return http.StatusTooManyRequests
	case domain.KindNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// maxJSONBody caps JSON request bodies. Uploads go through formFile instead.
const maxJSONBody = 1 << 20

// decodeJSON reads at most maxJSONBody bytes of the request body into v,
// answering 413 when it is larger and 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
