package speechservice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/services/nats"
	"github.com/mynaparrot/plugnmeet-speech/pkg/services/redis"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

var (
	ErrSessionNotFound   = errors.New("speech session not found")
	ErrUnsupportedLocale = errors.New("locale is not supported by the speech engine")
)

// SpeechService owns the engine, the registry of live recognizers and the
// base handler scope every session starts from.
type SpeechService struct {
	ctx          context.Context
	conf         *config.AppConfig
	engine       speech.Engine
	registry     speech.Registry
	handlers     *speech.Handlers
	natsService  *natsservice.NatsService
	redisService *redisservice.RedisService
	logger       *logrus.Entry
	// ids of started sessions, feeds WatchRecognizers
	started *speech.Subject[uuid.NullUUID]

	lock sync.Mutex
	sub  *nats.Subscription
}

// New creates the service. natsService and redisService are optional; without
// them no events are published and no usage is recorded.
func New(ctx context.Context, conf *config.AppConfig, engine speech.Engine, natsService *natsservice.NatsService, redisService *redisservice.RedisService, logger *logrus.Logger) *SpeechService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithField("service", "speech")

	s := &SpeechService{
		ctx:          ctx,
		conf:         conf,
		engine:       engine,
		registry:     speech.NewRegistry(log),
		natsService:  natsService,
		redisService: redisService,
		logger:       log,
		started:      speech.NewSubject[uuid.NullUUID](conf.Speech.StreamBufferSize).WithLogger(log),
	}
	s.handlers = s.baseHandlers()
	return s
}

// baseHandlers attaches usage accounting and NATS publishing. Session scopes
// are derived from it, so these run after the session's own handlers.
func (s *SpeechService) baseHandlers() *speech.Handlers {
	h := speech.NewHandlers(s.logger).
		OnStart(speech.SendSessionIDTo(s.started))

	if s.redisService != nil {
		h = h.OnStart(s.recordUsage(true)).
			OnStop(s.recordUsage(false)).
			OnCancel(s.recordUsage(false)).
			OnRecognize(speech.OnRecognize(false, nil, func(session speech.Session, _ error) {
				s.recordUsage(false)(session)
			}))
	}

	if s.natsService != nil {
		includePartial := true
		if s.conf.Speech.IncludePartialResults != nil {
			includePartial = *s.conf.Speech.IncludePartialResults
		}
		h = h.OnStart(speech.SendSessionTo(s.natsService.EventSink(speech.EventStart))).
			OnStop(speech.SendSessionTo(s.natsService.EventSink(speech.EventStop))).
			OnCancel(speech.SendSessionTo(s.natsService.EventSink(speech.EventCancel))).
			OnRecognize(speech.OnRecognize(includePartial, s.publishResult, s.publishError))
	}

	return h
}

func (s *SpeechService) recordUsage(isStarted bool) speech.SessionHandler {
	return func(session speech.Session) {
		duration, err := s.redisService.HandleSessionUsage(s.ctx, session, isStarted)
		log := s.logger.WithField("sessionId", session.ID.String())
		if err != nil {
			log.WithError(err).Errorln("failed to record session usage")
			return
		}
		if !isStarted && duration > 0 {
			log.WithField("seconds", duration).Infoln("session usage recorded")
		}
	}
}

func (s *SpeechService) publishResult(session speech.Session, result *speech.Result) {
	if err := s.natsService.PublishResult(session, result); err != nil {
		s.logger.WithError(err).WithField("sessionId", session.ID.String()).Errorln("failed to publish result")
	}
}

func (s *SpeechService) publishError(session speech.Session, err error) {
	if perr := s.natsService.PublishError(session, err); perr != nil {
		s.logger.WithError(perr).WithField("sessionId", session.ID.String()).Errorln("failed to publish error")
	}
}

// Handlers returns the base scope. Derive session scopes from it.
func (s *SpeechService) Handlers() *speech.Handlers {
	return s.handlers
}

// Registry returns the registry of live recognizers.
func (s *SpeechService) Registry() speech.Registry {
	return s.registry
}

// StartSession starts recording for a new session in locale.
// With a nil scope the base scope is used.
func (s *SpeechService) StartSession(ctx context.Context, locale language.Tag, scope *speech.Handlers) (*speech.Recognizer, error) {
	return s.startSession(ctx, speech.NewSession(locale), scope)
}

func (s *SpeechService) startSession(ctx context.Context, session speech.Session, scope *speech.Handlers) (*speech.Recognizer, error) {
	if err := s.checkLocale(ctx, session.Locale); err != nil {
		return nil, err
	}
	if scope == nil {
		scope = s.handlers
	}

	return speech.StartRecognizer(ctx, speech.Options{
		Engine:   s.engine,
		Registry: s.registry,
		Handlers: scope,
		Logger:   s.logger,
	}, session)
}

func (s *SpeechService) checkLocale(ctx context.Context, locale language.Tag) error {
	if s.engine == nil {
		return speech.ErrNoEngine
	}
	supported, err := speech.SupportedLocales(ctx, s.engine)
	if err != nil {
		return fmt.Errorf("failed to get supported locales: %w", err)
	}
	if supported.Contains(locale) {
		return nil
	}
	if tags := supported.Sorted(); len(tags) > 0 {
		if _, _, conf := language.NewMatcher(tags).Match(locale); conf >= language.High {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedLocale, locale)
}

// WatchRecognizers emits the recognizer of every session started from now on
// until ctx ends. Sessions that are gone by the time they are resolved are skipped.
func (s *SpeechService) WatchRecognizers(ctx context.Context) <-chan *speech.Recognizer {
	return speech.MapResolved(ctx, s.registry, s.started.Subscribe(ctx), func(r *speech.Recognizer) *speech.Recognizer {
		return r
	})
}

// Recognizer resolves an optional session id to its live recognizer.
func (s *SpeechService) Recognizer(id uuid.NullUUID) (*speech.Recognizer, bool) {
	return speech.Resolve(s.registry, id)
}

func (s *SpeechService) lookup(id uuid.UUID) (*speech.Recognizer, error) {
	r, ok := s.registry.Lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return r, nil
}

// StopSession ends the audio input of a session. Final results still arrive.
func (s *SpeechService) StopSession(id uuid.UUID) error {
	r, err := s.lookup(id)
	if err != nil {
		return err
	}
	return r.Stop()
}

// CancelSession drops a session without waiting for results.
func (s *SpeechService) CancelSession(id uuid.UUID) error {
	r, err := s.lookup(id)
	if err != nil {
		return err
	}
	return r.Cancel()
}

// WriteAudio forwards a chunk of audio to the session's recognizer.
func (s *SpeechService) WriteAudio(id uuid.UUID, chunk []byte) error {
	r, err := s.lookup(id)
	if err != nil {
		return err
	}
	_, err = r.Write(chunk)
	return err
}

// SupportedLocales returns the engine's locales ordered by tag.
func (s *SpeechService) SupportedLocales(ctx context.Context) ([]language.Tag, error) {
	if s.engine == nil {
		return nil, speech.ErrNoEngine
	}
	set, err := speech.SupportedLocales(ctx, s.engine)
	if err != nil {
		return nil, err
	}
	return set.Sorted(), nil
}

// Shutdown stops listening for tasks and cancels every live recognizer.
func (s *SpeechService) Shutdown() {
	s.lock.Lock()
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			s.logger.WithError(err).Errorln("failed to unsubscribe from NATS")
		}
		s.sub = nil
	}
	s.lock.Unlock()

	workers := s.conf.Speech.ShutdownWorkers
	if workers <= 0 {
		workers = config.DefaultShutdownWorkers
	}
	wp := workerpool.New(workers)

	var toCancel []*speech.Recognizer
	s.registry.Range(func(_ uuid.UUID, r *speech.Recognizer) bool {
		toCancel = append(toCancel, r)
		return true
	})
	for _, r := range toCancel {
		wp.Submit(func() {
			if err := r.Cancel(); err != nil && !errors.Is(err, speech.ErrNotRecording) {
				s.logger.WithError(err).WithField("sessionId", r.ID().String()).Warnln("failed to cancel recognizer")
			}
		})
	}
	wp.StopWait()
	s.started.Complete()

	if len(toCancel) > 0 {
		s.logger.Infof("cancelled %d speech sessions", len(toCancel))
	}
}
