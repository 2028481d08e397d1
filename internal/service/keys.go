package service

import (
	"strconv"

	"studyhub/internal/cache"
)

func sessionKey(sid string) string {
	return cache.GenerateCacheKey("session", "data", sid)
}

func flowKey(sid string, quizID int64) string {
	return cache.GenerateCacheKey("quiz", "flow", sid, strconv.FormatInt(quizID, 10))
}

// flowLockKey guards read-modify-write of one flow.
func flowLockKey(sid string, quizID int64) string {
	return cache.GenerateCacheKey("quiz", "lock", sid, strconv.FormatInt(quizID, 10))
}

// flowIndexKey is a hash of the quiz IDs with a stored flow for the session.
func flowIndexKey(sid string) string {
	return cache.GenerateCacheKey("quiz", "flows", sid)
}

func noticeKey(sid string) string {
	return cache.GenerateCacheKey("notify", "queue", sid)
}
