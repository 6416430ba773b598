package speechservice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech/speechtest"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/language"
)

type SpeechServiceTestSuite struct {
	suite.Suite
	engine  *speechtest.Engine
	service *SpeechService
}

func (s *SpeechServiceTestSuite) SetupTest() {
	conf, err := config.New(&config.AppConfig{})
	s.Require().NoError(err)

	logger, _ := test.NewNullLogger()
	s.engine = speechtest.NewEngine(language.MustParse("en-US"), language.German)
	s.service = New(context.Background(), conf, s.engine, nil, nil, logger)
}

func (s *SpeechServiceTestSuite) TearDownTest() {
	for _, st := range s.engine.Streams() {
		st.Finish()
	}
}

func (s *SpeechServiceTestSuite) waitDone(r *speech.Recognizer) {
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		s.FailNow("recognizer did not finish")
	}
}

func (s *SpeechServiceTestSuite) TestStartStopSession() {
	var texts []string
	scope := s.service.Handlers().OnRecognize(speech.OnRecognizeText(false, func(text string) {
		texts = append(texts, text)
	}))

	r, err := s.service.StartSession(context.Background(), language.MustParse("en-US"), scope)
	s.Require().NoError(err)

	got, ok := s.service.Recognizer(r.Session().NullID())
	s.Require().True(ok)
	s.Same(r, got)

	s.NoError(s.service.WriteAudio(r.ID(), []byte{1, 2, 3}))
	stream := s.engine.Last()
	s.Equal([]byte{1, 2, 3}, stream.Audio())

	s.NoError(s.service.StopSession(r.ID()))
	s.ErrorIs(s.service.WriteAudio(r.ID(), []byte{4}), speech.ErrNotRecording)

	stream.Emit("partial", true)
	stream.Emit("final text", false)
	stream.Finish()
	s.waitDone(r)

	s.Equal([]string{"final text"}, texts)
	s.Equal(speech.StateFinished, r.State())
	_, ok = s.service.Recognizer(r.Session().NullID())
	s.False(ok)
}

func (s *SpeechServiceTestSuite) TestCancelSession() {
	r, err := s.service.StartSession(context.Background(), language.German, nil)
	s.Require().NoError(err)

	s.NoError(s.service.CancelSession(r.ID()))
	s.Equal(speech.StateCancelled, r.State())
	s.ErrorIs(s.service.CancelSession(r.ID()), ErrSessionNotFound)
}

func (s *SpeechServiceTestSuite) TestUnknownSession() {
	id := uuid.New()
	s.ErrorIs(s.service.StopSession(id), ErrSessionNotFound)
	s.ErrorIs(s.service.CancelSession(id), ErrSessionNotFound)
	s.ErrorIs(s.service.WriteAudio(id, []byte{1}), ErrSessionNotFound)

	_, ok := s.service.Recognizer(uuid.NullUUID{})
	s.False(ok)
}

func (s *SpeechServiceTestSuite) TestLocales() {
	_, err := s.service.StartSession(context.Background(), language.Japanese, nil)
	s.ErrorIs(err, ErrUnsupportedLocale)

	// close enough to a supported locale
	_, err = s.service.StartSession(context.Background(), language.MustParse("de-AT"), nil)
	s.NoError(err)

	locales, err := s.service.SupportedLocales(context.Background())
	s.Require().NoError(err)
	s.Equal([]language.Tag{language.German, language.MustParse("en-US")}, locales)
}

func (s *SpeechServiceTestSuite) TestStartTask() {
	id := uuid.New()
	handled, err := s.service.handleTask(&TaskPayload{Task: TaskStart, SessionId: id})
	s.True(handled)
	s.Require().NoError(err)

	r, ok := s.service.Registry().Lookup(id)
	s.Require().True(ok)
	s.Equal(language.MustParse("en-US"), r.Locale())

	handled, err = s.service.handleTask(&TaskPayload{Task: TaskStop, SessionId: id})
	s.True(handled)
	s.NoError(err)

	// sessions of other instances are ignored
	handled, err = s.service.handleTask(&TaskPayload{Task: TaskCancel, SessionId: uuid.New()})
	s.False(handled)
	s.NoError(err)
}

func (s *SpeechServiceTestSuite) TestStartTaskValidation() {
	handled, err := s.service.handleTask(&TaskPayload{Task: TaskStart})
	s.True(handled)
	s.Error(err)

	handled, err = s.service.handleTask(&TaskPayload{Task: TaskStart, SessionId: uuid.New(), Locale: "??"})
	s.True(handled)
	s.Error(err)

	handled, _ = s.service.handleTask(&TaskPayload{Task: "pause", SessionId: uuid.New()})
	s.False(handled)
}

func (s *SpeechServiceTestSuite) TestShutdownCancelsEverything() {
	var cancelled []uuid.UUID
	done := make(chan uuid.UUID, 3)
	scope := s.service.Handlers().OnCancel(func(session speech.Session) {
		done <- session.ID
	})

	for i := 0; i < 3; i++ {
		_, err := s.service.StartSession(context.Background(), language.German, scope)
		s.Require().NoError(err)
	}
	s.Equal(3, s.service.Registry().Len())

	s.service.Shutdown()
	close(done)
	for id := range done {
		cancelled = append(cancelled, id)
	}

	s.Len(cancelled, 3)
	s.Equal(0, s.service.Registry().Len())
}

func (s *SpeechServiceTestSuite) TestWatchRecognizers() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watched := s.service.WatchRecognizers(ctx)

	r, err := s.service.StartSession(context.Background(), language.German, nil)
	s.Require().NoError(err)

	select {
	case got := <-watched:
		s.Same(r, got)
		s.Equal("test (de)", got.DisplayName())
	case <-time.After(2 * time.Second):
		s.FailNow("recognizer was not emitted")
	}

	cancel()
	s.Eventually(func() bool {
		_, open := <-watched
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *SpeechServiceTestSuite) TestUnreadWatcherDoesNotBlockStarts() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = s.service.WatchRecognizers(ctx)

	started := make(chan int)
	go func() {
		n := 0
		for i := 0; i < 100; i++ {
			if _, err := s.service.StartSession(context.Background(), language.German, nil); err == nil {
				n++
			}
		}
		started <- n
	}()

	select {
	case n := <-started:
		s.Equal(100, n)
	case <-time.After(5 * time.Second):
		s.FailNow("StartSession blocked on a watcher that never reads")
	}
	s.Equal(100, s.service.Registry().Len())
}

func TestSpeechServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SpeechServiceTestSuite))
}
