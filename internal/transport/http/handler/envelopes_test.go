package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gupshup-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestHTTPError_MapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.BadRequest("bad"), http.StatusBadRequest, "bad"},
		{domain.Unauthorized("who"), http.StatusUnauthorized, "who"},
		{domain.Forbidden("no"), http.StatusForbidden, "no"},
		{domain.NotFound("gone"), http.StatusNotFound, "gone"},
		{domain.Conflict("taken"), http.StatusConflict, "taken"},
		{domain.TooManyRequests("slow"), http.StatusTooManyRequests, "slow"},
		{domain.NotImplemented("later"), http.StatusNotImplemented, "later"},
		{domain.Failure("Failed to send", errors.New("smtp")), http.StatusInternalServerError, "Failed to send"},
		{domain.Internal("db exploded", errors.New("x")), http.StatusInternalServerError, msgInternal},
		{errors.New("raw"), http.StatusInternalServerError, msgInternal},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		httpError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.msg)
		assert.JSONEq(t, `{"success":false,"error":{"message":"`+tc.msg+`"}}`, rr.Body.String())
	}
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandler().Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"message":"ok"}`, rr.Body.String())
}
