package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyhub/internal/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisCacheAdapter_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	key := "studyhub:session:data:sid"
	expectedValue := `{"id":"sid"}`

	t.Run("Success", func(t *testing.T) {
		mock.ExpectGet(key).SetVal(expectedValue)
		val, err := adapter.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, expectedValue, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CacheMiss", func(t *testing.T) {
		mock.ExpectGet(key).SetErr(redis.Nil)
		val, err := adapter.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
		assert.Empty(t, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectGet(key).SetErr(redisErr)
		val, err := adapter.Get(ctx, key)
		assert.ErrorIs(t, err, redisErr)
		assert.Empty(t, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheAdapter_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	key := "studyhub:session:data:sid"
	value := `{"id":"sid"}`
	expiration := 168 * time.Hour

	t.Run("Success", func(t *testing.T) {
		mock.ExpectSet(key, value, expiration).SetVal("OK")
		err := adapter.Set(ctx, key, value, expiration)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectSet(key, value, expiration).SetErr(redisErr)
		err := adapter.Set(ctx, key, value, expiration)
		assert.ErrorIs(t, err, redisErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheAdapter_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	key := "studyhub:session:data:sid"

	t.Run("Success", func(t *testing.T) {
		mock.ExpectDel(key).SetVal(1) // 1 key deleted
		err := adapter.Delete(ctx, key)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SuccessKeyNotFound", func(t *testing.T) {
		mock.ExpectDel(key).SetVal(0) // 0 keys deleted
		err := adapter.Delete(ctx, key)
		assert.NoError(t, err) // Delete should not error if key not found
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectDel(key).SetErr(redisErr)
		err := adapter.Delete(ctx, key)
		assert.ErrorIs(t, err, redisErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheAdapter_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectPing().SetVal("PONG")
		err := adapter.Ping(ctx)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectPing().SetErr(redisErr)
		err := adapter.Ping(ctx)
		assert.ErrorIs(t, err, redisErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheAdapter_HGetAll(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	key := "studyhub:notify:queue:sid"

	t.Run("Success", func(t *testing.T) {
		mock.ExpectHGetAll(key).SetVal(map[string]string{"01A": "hello"})
		val, err := adapter.HGetAll(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, map[string]string{"01A": "hello"}, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectHGetAll(key).RedisNil()
		val, err := adapter.HGetAll(ctx, key)
		assert.NoError(t, err)
		assert.Empty(t, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectHGetAll(key).SetErr(redisErr)
		_, err := adapter.HGetAll(ctx, key)
		assert.ErrorIs(t, err, redisErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheAdapter_HashWrites(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	key := "studyhub:quiz:flows:sid"

	mock.ExpectHSet(key, "12", "1").SetVal(1)
	assert.NoError(t, adapter.HSet(ctx, key, "12", "1"))

	mock.ExpectHDel(key, "12", "13").SetVal(2)
	assert.NoError(t, adapter.HDel(ctx, key, "12", "13"))

	// no fields is a no-op and must not reach Redis
	assert.NoError(t, adapter.HDel(ctx, key))

	mock.ExpectExpire(key, time.Hour).SetVal(true)
	assert.NoError(t, adapter.Expire(ctx, key, time.Hour))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheAdapter_Lock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	key := "studyhub:quiz:lock:sid:5"
	ttl := 2 * time.Minute

	t.Run("Acquired", func(t *testing.T) {
		mock.ExpectSetNX(key, "token-1", ttl).SetVal(true)
		ok, err := adapter.TryLock(ctx, key, "token-1", ttl)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Held", func(t *testing.T) {
		mock.ExpectSetNX(key, "token-2", ttl).SetVal(false)
		ok, err := adapter.TryLock(ctx, key, "token-2", ttl)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unlock", func(t *testing.T) {
		mock.ExpectEval(unlockScript, []string{key}, "token-1").SetVal(int64(1))
		err := adapter.Unlock(ctx, key, "token-1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("connection refused")
		mock.ExpectSetNX(key, "token-3", ttl).SetErr(redisErr)
		_, err := adapter.TryLock(ctx, key, "token-3", ttl)
		assert.ErrorIs(t, err, redisErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
