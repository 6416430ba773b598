package redisservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"
)

const (
	ActiveSessionsKey = Prefix + "active_sessions"
	LocaleUsageKey    = Prefix + "usage:%s"

	totalUsageField = "total_usage"
)

// HandleSessionUsage records the start of a session, or on stop returns how many
// seconds it lasted and adds them to the usage of the session locale.
func (s *RedisService) HandleSessionUsage(ctx context.Context, session speech.Session, isStarted bool) (int64, error) {
	id := session.ID.String()

	if isStarted {
		pipe := s.rc.TxPipeline()
		pipe.HSet(ctx, ActiveSessionsKey, id, time.Now().Unix())
		pipe.Expire(ctx, ActiveSessionsKey, config.UsageKeyTTL)
		_, err := pipe.Exec(ctx)
		return 0, err
	}

	startTimeStr, err := s.rc.HGet(ctx, ActiveSessionsKey, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	if err := s.rc.HDel(ctx, ActiveSessionsKey, id).Err(); err != nil {
		s.logger.WithError(err).Error("failed to delete active speech session")
	}

	startTime, err := strconv.ParseInt(startTimeStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse start time '%s': %w", startTimeStr, err)
	}
	duration := max(time.Now().Unix()-startTime, 0)

	usageKey := fmt.Sprintf(LocaleUsageKey, session.Locale.String())
	pipe := s.rc.TxPipeline()
	pipe.HIncrBy(ctx, usageKey, id, duration)
	pipe.HIncrBy(ctx, usageKey, totalUsageField, duration)
	pipe.Expire(ctx, usageKey, config.UsageKeyTTL)
	if _, err = pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return duration, nil
}

// GetLocaleUsage returns the seconds recorded per session for a locale, plus
// the "total_usage" field. With cleanup the counters are removed.
func (s *RedisService) GetLocaleUsage(ctx context.Context, locale language.Tag, cleanup bool) (map[string]int64, error) {
	key := fmt.Sprintf(LocaleUsageKey, locale.String())
	var res *redis.MapStringStringCmd

	_, err := s.rc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		res = pipe.HGetAll(ctx, key)
		if cleanup {
			pipe.Del(ctx, key)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	rawMap, err := res.Result()
	if err != nil {
		return nil, err
	}

	usage := make(map[string]int64, len(rawMap))
	for k, v := range rawMap {
		val, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.logger.WithError(err).Warnf("could not parse usage value '%s' for key '%s'", v, k)
			continue
		}
		usage[k] = val
	}
	return usage, nil
}

// CountActiveSessions returns the number of sessions started and not yet stopped, across all instances.
func (s *RedisService) CountActiveSessions(ctx context.Context) (int64, error) {
	return s.rc.HLen(ctx, ActiveSessionsKey).Result()
}
