package handler

import (
	"studyhub/internal/config"
	"studyhub/internal/domain"
	"studyhub/internal/dto"
	"studyhub/internal/logger"
	"studyhub/internal/middleware"
	"studyhub/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	sessions service.SessionService
	notifier service.Notifier
	cookie   config.SessionConfig
}

func NewAuthHandler(sessions service.SessionService, notifier service.Notifier, cookie config.SessionConfig) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		notifier: notifier,
		cookie:   cookie,
	}
}

// Login exchanges credentials for a session cookie.
// @Summary Log in
// @Description Authenticates against the learning platform and starts a browser session.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}

	sess, err := h.sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	middleware.SetSessionCookie(c, h.cookie, sess.ID)
	logger.Get().Info("User logged in", zap.String("sessionID", sess.ID))
	return c.JSON(dto.LoginResponse{User: dto.NewUserResponse(sess.User)})
}

// Logout ends the session.
// @Summary Log out
// @Description Clears tokens, cached quiz state and notices, and expires the session cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := middleware.SessionID(c)
	if err := h.sessions.Logout(c.UserContext(), sid); err != nil {
		// the cookie is cleared anyway; leftover keys expire on their own
		logger.Get().Error("Failed to clear session state", zap.String("sessionID", sid), zap.Error(err))
	}
	middleware.ClearSessionCookie(c, h.cookie.CookieName)
	return c.JSON(dto.MessageResponse{Message: "Logged out"})
}

// Me returns the logged-in user.
// @Summary Get current user
// @Tags auth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)
	if sess == nil || sess.User == nil {
		return domain.ErrSessionExpired
	}
	return c.JSON(dto.NewUserResponse(sess.User))
}

// Notices drains the pending toasts of the session.
// @Summary Get pending notices
// @Description Each notice is returned once.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.NoticesResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /notices [get]
func (h *AuthHandler) Notices(c *fiber.Ctx) error {
	notices, err := h.notifier.Drain(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return domain.NewInternalError("failed to read notices", err)
	}
	if notices == nil {
		notices = []dto.Notice{}
	}
	return c.JSON(dto.NoticesResponse{Notices: notices})
}
