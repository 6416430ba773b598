package natsservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	Prefix = "pnm-speech-"

	// DefaultTTL of the session status bucket
	DefaultTTL = 24 * time.Hour
)

type NatsService struct {
	ctx    context.Context
	app    *config.AppConfig
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

func New(app *config.AppConfig) *NatsService {
	if app == nil {
		app = config.GetConfig()
	}
	logger := app.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &NatsService{
		ctx:    context.Background(),
		app:    app,
		nc:     app.NatsConn,
		js:     app.JetStream,
		logger: logger.WithField("service", "nats"),
	}
}

// ResultsSubject is where the results of one session are published.
func (s *NatsService) ResultsSubject(sessionId uuid.UUID) string {
	return fmt.Sprintf("%s.%s", s.app.NatsInfo.Subjects.Results, sessionId.String())
}

// AudioSubject is where clients publish the audio of one session.
func (s *NatsService) AudioSubject(sessionId uuid.UUID) string {
	return fmt.Sprintf("%s.%s", s.app.NatsInfo.Subjects.Audio, sessionId.String())
}
