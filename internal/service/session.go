package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"studyhub/internal/apiclient"
	"studyhub/internal/domain"
	"studyhub/internal/logger"
	"studyhub/internal/util"
	"studyhub/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Session is the server-side state of one browser session.
type Session struct {
	ID        string        `json:"id"`
	Token     *oauth2.Token `json:"token"`
	User      *domain.User  `json:"user,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// SessionService owns login state: it is the explicit init (Login) and teardown
// (Logout) point for everything a browser session holds.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	// Load returns domain.ErrSessionExpired for an unknown or expired session.
	Load(ctx context.Context, sid string) (*Session, error)
	// Client returns an API client authenticated as the session's user.
	Client(sid string) *apiclient.Client
	Logout(ctx context.Context, sid string) error
}

type sessionServiceImpl struct {
	cache     domain.Cache
	api       *apiclient.Client
	validator *validation.Validator
	ttl       time.Duration
	now       func() time.Time
}

// NewSessionService creates a SessionService storing sessions for ttl.
func NewSessionService(cache domain.Cache, api *apiclient.Client, ttl time.Duration) SessionService {
	return &sessionServiceImpl{
		cache:     cache,
		api:       api,
		validator: validation.NewValidator(),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *sessionServiceImpl) Login(ctx context.Context, email, password string) (*Session, error) {
	if errs := s.validator.ValidateLogin(email, password); len(errs) > 0 {
		return nil, errs
	}

	tok, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sess := &Session{ID: util.NewULID(), Token: tok, CreatedAt: s.now()}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	user, err := s.Client(sess.ID).Me(ctx)
	if err != nil {
		logger.Get().Warn("Failed to load user profile after login", zap.String("sessionID", sess.ID), zap.Error(err))
		if logoutErr := s.Logout(ctx, sess.ID); logoutErr != nil {
			logger.Get().Error("Failed to discard half-created session", zap.Error(logoutErr))
		}
		return nil, err
	}

	// the refresh inside Me may have rotated the tokens
	current, err := s.Load(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	current.User = user
	if err := s.save(ctx, current); err != nil {
		return nil, err
	}

	logger.Get().Info("User logged in", zap.String("sessionID", sess.ID), zap.Int64("userID", user.ID))
	return current, nil
}

func (s *sessionServiceImpl) Load(ctx context.Context, sid string) (*Session, error) {
	if !s.validator.ValidateSessionID(sid) {
		return nil, domain.ErrSessionExpired
	}

	data, err := s.cache.Get(ctx, sessionKey(sid))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrSessionExpired
		}
		logger.Get().Error("Failed to read session", zap.String("sessionID", sid), zap.Error(err))
		return nil, domain.NewInternalError("failed to read session", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		logger.Get().Error("Discarding unreadable session", zap.String("sessionID", sid), zap.Error(err))
		_ = s.cache.Delete(ctx, sessionKey(sid))
		return nil, domain.ErrSessionExpired
	}
	return &sess, nil
}

func (s *sessionServiceImpl) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return domain.NewInternalError("failed to encode session", err)
	}
	if err := s.cache.Set(ctx, sessionKey(sess.ID), string(data), s.ttl); err != nil {
		logger.Get().Error("Failed to store session", zap.String("sessionID", sess.ID), zap.Error(err))
		return domain.NewInternalError("failed to store session", err)
	}
	return nil
}

func (s *sessionServiceImpl) Client(sid string) *apiclient.Client {
	return s.api.WithTokens(&sessionTokens{svc: s, sid: sid})
}

// Logout removes the session record, every stored quiz flow and pending notices.
// It keeps going after a failed delete and reports the first failure.
func (s *sessionServiceImpl) Logout(ctx context.Context, sid string) error {
	var firstErr error
	remove := func(key string) {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Get().Error("Failed to delete session state", zap.String("key", key), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	flows, err := s.cache.HGetAll(ctx, flowIndexKey(sid))
	if err != nil {
		logger.Get().Error("Failed to list quiz flows of session", zap.String("sessionID", sid), zap.Error(err))
		firstErr = err
	}
	for field := range flows {
		quizID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		remove(flowKey(sid, quizID))
	}
	remove(flowIndexKey(sid))
	remove(noticeKey(sid))
	remove(sessionKey(sid))

	if firstErr != nil {
		return domain.NewInternalError(fmt.Sprintf("failed to tear down session %s", sid), firstErr)
	}
	logger.Get().Info("Session closed", zap.String("sessionID", sid), zap.Int("quizFlows", len(flows)))
	return nil
}

// sessionTokens is the apiclient.TokenStore view of one session.
type sessionTokens struct {
	svc *sessionServiceImpl
	sid string
}

func (t *sessionTokens) Tokens(ctx context.Context) (*oauth2.Token, error) {
	sess, err := t.svc.Load(ctx, t.sid)
	if err != nil {
		return nil, err
	}
	return sess.Token, nil
}

func (t *sessionTokens) SaveTokens(ctx context.Context, tok *oauth2.Token) error {
	sess, err := t.svc.Load(ctx, t.sid)
	if err != nil {
		return err
	}
	sess.Token = tok
	return t.svc.save(ctx, sess)
}

func (t *sessionTokens) ClearTokens(ctx context.Context) error {
	return t.svc.Logout(ctx, t.sid)
}
