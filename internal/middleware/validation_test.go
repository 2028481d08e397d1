package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"studyhub/internal/domain"
	"studyhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIDParams(t *testing.T) {
	vm := middleware.NewValidationMiddleware()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(cookieName)})
	app.Get("/quizzes/:quizID/attempts/:attemptID", vm.ValidateIDParams("quizID", "attemptID"), func(c *fiber.Ctx) error {
		sum := middleware.ValidatedID(c, "quizID") + middleware.ValidatedID(c, "attemptID")
		return c.SendString(strconv.FormatInt(sum, 10))
	})

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{"/quizzes/5/attempts/12", fiber.StatusOK},
		{"/quizzes/abc/attempts/12", fiber.StatusBadRequest},
		{"/quizzes/5/attempts/0", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tt.expectedStatus, resp.StatusCode, tt.path)
		if tt.expectedStatus == fiber.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, "17", string(body))
		}
	}
}

func TestValidateQueryID(t *testing.T) {
	vm := middleware.NewValidationMiddleware()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(cookieName)})
	app.Get("/attempts", vm.ValidateQueryID("quiz"), func(c *fiber.Ctx) error {
		return c.SendString(strconv.FormatInt(middleware.ValidatedID(c, "quiz"), 10))
	})

	for query, want := range map[string]string{"": "0", "?quiz=9": "9"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/attempts"+query, nil), -1)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, want, string(body))
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/attempts?quiz=nine", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRequestLoggerReportsHandledStatus(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(cookieName)})
	app.Use(middleware.RequestLogger())
	app.Get("/missing", func(c *fiber.Ctx) error {
		return domain.NewNotFoundError("The requested item was not found.")
	})
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
