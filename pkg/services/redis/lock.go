package redisservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionLockKey = Prefix + "sessionLock-%s"

// unlockScript deletes the key only if it still holds our value.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// LockSession claims a session for this instance, so only one instance
// starts a recognizer for it. lockValue is needed to unlock.
func (s *RedisService) LockSession(ctx context.Context, sessionId uuid.UUID, ttl time.Duration) (acquired bool, lockValue string, err error) {
	key := fmt.Sprintf(sessionLockKey, sessionId.String())
	val := uuid.NewString()

	ok, err := s.rc.SetNX(ctx, key, val, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("redis SetNX error for key %s: %w", key, err)
	}
	if !ok {
		return false, "", nil
	}
	return true, val, nil
}

// UnlockSession releases a lock taken with LockSession.
func (s *RedisService) UnlockSession(ctx context.Context, sessionId uuid.UUID, lockValue string) error {
	if lockValue == "" {
		return nil
	}
	key := fmt.Sprintf(sessionLockKey, sessionId.String())

	_, err := unlockScript.Run(ctx, s.rc, []string{key}, lockValue).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
