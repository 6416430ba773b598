package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

var (
	appCnf *AppConfig
	mu     sync.RWMutex
)

type AppConfig struct {
	RDS       *redis.Client
	Logger    *logrus.Logger
	NatsConn  *nats.Conn
	JetStream jetstream.JetStream

	RootWorkingDir string
	LogSettings    LogSettings  `yaml:"log_settings"`
	RedisInfo      RedisInfo    `yaml:"redis_info"`
	NatsInfo       NatsInfo     `yaml:"nats_info"`
	Speech         SpeechConfig `yaml:"speech"`
}

type LogSettings struct {
	LogLevel   *string `yaml:"log_level"`
	Format     string  `yaml:"format"` // text or json
	LogFile    string  `yaml:"log_file"`
	MaxSize    int     `yaml:"max_size"`
	MaxBackups int     `yaml:"max_backups"`
	MaxAge     int     `yaml:"max_age"`
}

type RedisInfo struct {
	Host              string   `yaml:"host"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	DBName            int      `yaml:"db"`
	UseTLS            bool     `yaml:"use_tls"`
	MasterName        string   `yaml:"sentinel_master_name"`
	SentinelUsername  string   `yaml:"sentinel_username"`
	SentinelPassword  string   `yaml:"sentinel_password"`
	SentinelAddresses []string `yaml:"sentinel_addresses"`
}

type NatsInfo struct {
	NatsUrls []string     `yaml:"nats_urls"`
	User     string       `yaml:"user"`
	Password string       `yaml:"password"`
	Nkey     *string      `yaml:"nkey"`
	Subjects NatsSubjects `yaml:"subjects"`
}

type NatsSubjects struct {
	// Tasks receives start, stop and cancel requests.
	Tasks string `yaml:"tasks"`
	// Events receives every session lifecycle event.
	Events string `yaml:"events"`
	// Results is a prefix, the session id is appended.
	Results string `yaml:"results"`
	// Audio is a prefix, the session id is appended.
	Audio string `yaml:"audio"`
}

// New applies defaults and validates the config. It also becomes the process config.
func New(a *AppConfig) (*AppConfig, error) {
	if a.Speech.Provider == "" {
		a.Speech.Provider = DefaultSpeechProvider
	}
	a.Speech.Provider = strings.ToLower(a.Speech.Provider)

	if a.Speech.DefaultLocale == "" {
		a.Speech.DefaultLocale = DefaultLocale
	}
	if _, err := language.Parse(a.Speech.DefaultLocale); err != nil {
		return nil, fmt.Errorf("invalid speech.default_locale %q: %w", a.Speech.DefaultLocale, err)
	}
	if a.Speech.IncludePartialResults == nil {
		include := true
		a.Speech.IncludePartialResults = &include
	}
	if a.Speech.StreamBufferSize <= 0 {
		a.Speech.StreamBufferSize = DefaultStreamBufferSize
	}
	if a.Speech.ShutdownWorkers <= 0 {
		a.Speech.ShutdownWorkers = DefaultShutdownWorkers
	}

	s := &a.NatsInfo.Subjects
	if s.Tasks == "" {
		s.Tasks = DefaultTasksSubject
	}
	if s.Events == "" {
		s.Events = DefaultEventsSubject
	}
	if s.Results == "" {
		s.Results = DefaultResultsSubject
	}
	if s.Audio == "" {
		s.Audio = DefaultAudioSubject
	}

	SetAppConfig(a)
	return a, nil
}

// SetAppConfig stores the process config.
func SetAppConfig(a *AppConfig) {
	mu.Lock()
	appCnf = a
	mu.Unlock()
}

// GetConfig returns the process config, nil before New was called.
func GetConfig() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	return appCnf
}

// DefaultLocaleTag returns the parsed default locale.
func (a *AppConfig) DefaultLocaleTag() language.Tag {
	tag, err := language.Parse(a.Speech.DefaultLocale)
	if err != nil {
		return language.MustParse(DefaultLocale)
	}
	return tag
}
