package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"studyhub/internal/domain"
	"studyhub/internal/dto"
	"studyhub/internal/logger"
	"studyhub/internal/util"

	"go.uber.org/zap"
)

// GenericErrorMessage is shown for unexpected and upstream failures.
const GenericErrorMessage = "Something went wrong. Please try again later."

// Notifier queues toasts per session. Each notice is returned by exactly one Drain.
type Notifier interface {
	Push(ctx context.Context, sid, level, message string) error
	// Drain returns the queued notices oldest first and removes them.
	Drain(ctx context.Context, sid string) ([]dto.Notice, error)
}

type notifierImpl struct {
	cache domain.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewNotifier creates a Notifier whose queues expire ttl after the last push.
func NewNotifier(cache domain.Cache, ttl time.Duration) Notifier {
	return &notifierImpl{cache: cache, ttl: ttl, now: time.Now}
}

func (n *notifierImpl) Push(ctx context.Context, sid, level, message string) error {
	notice := dto.Notice{
		ID:        util.NewULID(),
		Level:     level,
		Message:   message,
		CreatedAt: n.now(),
	}
	data, err := json.Marshal(notice)
	if err != nil {
		return domain.NewInternalError("failed to encode notice", err)
	}

	key := noticeKey(sid)
	if err := n.cache.HSet(ctx, key, notice.ID, string(data)); err != nil {
		logger.Get().Error("Failed to queue notice", zap.String("sessionID", sid), zap.Error(err))
		return domain.NewInternalError("failed to queue notice", err)
	}
	if n.ttl > 0 {
		if err := n.cache.Expire(ctx, key, n.ttl); err != nil {
			logger.Get().Warn("Failed to set notice queue expiry", zap.String("key", key), zap.Error(err))
		}
	}
	logger.Get().Debug("Notice queued", zap.String("sessionID", sid), zap.String("level", level), zap.String("message", message))
	return nil
}

func (n *notifierImpl) Drain(ctx context.Context, sid string) ([]dto.Notice, error) {
	key := noticeKey(sid)
	entries, err := n.cache.HGetAll(ctx, key)
	if err != nil {
		logger.Get().Error("Failed to read notices", zap.String("sessionID", sid), zap.Error(err))
		return nil, domain.NewInternalError("failed to read notices", err)
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	// ULIDs sort by creation time
	sort.Strings(ids)

	notices := make([]dto.Notice, 0, len(ids))
	for _, id := range ids {
		var notice dto.Notice
		if err := json.Unmarshal([]byte(entries[id]), &notice); err != nil {
			logger.Get().Warn("Dropping unreadable notice", zap.String("id", id), zap.Error(err))
			continue
		}
		notices = append(notices, notice)
	}

	if len(ids) > 0 {
		if err := n.cache.HDel(ctx, key, ids...); err != nil {
			logger.Get().Error("Failed to remove drained notices", zap.String("sessionID", sid), zap.Error(err))
			return nil, domain.NewInternalError("failed to remove drained notices", err)
		}
	}
	return notices, nil
}
