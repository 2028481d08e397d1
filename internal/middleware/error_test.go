package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"studyhub/internal/domain"
	"studyhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "studyhub_session"

func newErrorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(cookieName)})
	app.Get("/", func(c *fiber.Ctx) error { return err })
	return app
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"not found", domain.NewNotFoundError("The requested item was not found."), http.StatusNotFound, "NOT_FOUND", "The requested item was not found."},
		{"invalid input", domain.NewInvalidInputError("Invalid request body"), http.StatusBadRequest, "INVALID_INPUT", "Invalid request body"},
		{"no answers", domain.NewError(domain.CodeNoAnswers, "Select an answer first.", nil), http.StatusUnprocessableEntity, "NO_ANSWERS", "Select an answer first."},
		{"backend rejected", domain.NewError(domain.CodeBackendRejected, "Quiz closed.", nil), http.StatusUnprocessableEntity, "BACKEND_REJECTED", "Quiz closed."},
		{"invalid state", domain.NewInvalidStateError(domain.StateNotStarted, "submit"), http.StatusConflict, "INVALID_STATE", "cannot submit while quiz is NOT_STARTED"},
		{"upstream", domain.NewError(domain.CodeUpstream, "The learning platform is unavailable.", nil), http.StatusBadGateway, "UPSTREAM_ERROR", "The learning platform is unavailable."},
		{"network", domain.NewError(domain.CodeNetwork, "Could not reach the learning platform.", errors.New("dial tcp")), http.StatusBadGateway, "NETWORK_ERROR", "Could not reach the learning platform."},
		{"internal hides details", domain.NewInternalError("failed to encode flow", errors.New("boom")), http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong. Please try again."},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong. Please try again."},
		{"fiber error", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "HTTP_ERROR", "Method Not Allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newErrorApp(tt.err).Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body middleware.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Empty(t, resp.Header.Get(fiber.HeaderSetCookie))
		})
	}
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	verrs := domain.ValidationErrors{
		domain.NewMissingFieldError("title"),
		domain.NewInvalidFormatError("due_date", "tomorrow"),
	}
	resp, err := newErrorApp(verrs).Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body middleware.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(domain.CodeValidation), body.Code)
	require.Len(t, body.Errors, 2)
	assert.Equal(t, "title", body.Errors[0].Field)
	assert.Equal(t, domain.CodeInvalidFormat, body.Errors[1].Code)
}

func TestErrorHandler_UnauthorizedExpiresCookie(t *testing.T) {
	resp, err := newErrorApp(domain.ErrSessionExpired).Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			found = true
			assert.Empty(t, c.Value)
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found, "session cookie should be expired")
}
