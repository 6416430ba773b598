package factory

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisConnection connects to redis, through sentinel when sentinel
// addresses are configured, and stores the client in appCnf.RDS.
func NewRedisConnection(ctx context.Context, appCnf *config.AppConfig) error {
	rf := appCnf.RedisInfo
	var rdb *redis.Client
	var tlsConfig *tls.Config

	if rf.UseTLS {
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	if len(rf.SentinelAddresses) > 0 {
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			SentinelAddrs:    rf.SentinelAddresses,
			SentinelUsername: rf.SentinelUsername,
			SentinelPassword: rf.SentinelPassword,
			MasterName:       rf.MasterName,
			Username:         rf.Username,
			Password:         rf.Password,
			DB:               rf.DBName,
			TLSConfig:        tlsConfig,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:      rf.Host,
			Username:  rf.Username,
			Password:  rf.Password,
			DB:        rf.DBName,
			TLSConfig: tlsConfig,
		})
	}

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return err
	}

	if info, err := rdb.Info(ctx, "server").Result(); err == nil {
		for _, line := range strings.Split(info, "\r\n") {
			if version, ok := strings.CutPrefix(line, "redis_version:"); ok {
				appCnf.Logger.WithField("version", version).Info("successfully connected to Redis")
				break
			}
		}
	}

	appCnf.RDS = rdb
	return nil
}
