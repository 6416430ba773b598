package redisservice

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	Prefix = "pnm:speech:"
)

type RedisService struct {
	rc     *redis.Client
	logger *logrus.Entry
}

func New(rc *redis.Client, logger *logrus.Logger) *RedisService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisService{
		rc:     rc,
		logger: logger.WithField("service", "redis"),
	}
}
