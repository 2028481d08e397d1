package middleware

import (
	"time"

	"studyhub/internal/config"
	"studyhub/internal/domain"
	"studyhub/internal/logger"
	"studyhub/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	SessionIDKey = "sessionID" // Key for storing the session ID in fiber.Ctx locals
	SessionKey   = "session"
)

// RequireSession is a middleware function that protects routes by requiring a live
// session cookie. It loads the session and sets its ID and value in the context.
func RequireSession(sessions service.SessionService, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(cookieName)
		if sid == "" {
			return domain.NewUnauthorizedError("Please log in to continue.", nil)
		}

		sess, err := sessions.Load(c.UserContext(), sid)
		if err != nil {
			logger.Get().Debug("RequireSession: session rejected", zap.String("path", c.Path()), zap.Error(err))
			return err
		}

		c.Locals(SessionIDKey, sess.ID)
		c.Locals(SessionKey, sess)
		return c.Next()
	}
}

// SessionID returns the session ID set by RequireSession.
func SessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(SessionIDKey).(string)
	return sid
}

// CurrentSession returns the session loaded by RequireSession, or nil.
func CurrentSession(c *fiber.Ctx) *service.Session {
	sess, _ := c.Locals(SessionKey).(*service.Session)
	return sess
}

// SetSessionCookie writes the HttpOnly session cookie.
func SetSessionCookie(c *fiber.Ctx, cfg config.SessionConfig, sid string) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(cfg.TTL),
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: "Lax",
	})
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(c *fiber.Ctx, cookieName string) {
	c.Cookie(&fiber.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
