package speech_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech/speechtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// eventLog records lifecycle and recognition callbacks in arrival order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) handlers() *speech.Handlers {
	return speech.NewHandlers(nil).
		OnStart(func(speech.Session) { l.add("start") }).
		OnStop(func(speech.Session) { l.add("stop") }).
		OnCancel(func(speech.Session) { l.add("cancel") }).
		OnRecognize(speech.OnRecognize(true,
			func(_ speech.Session, r *speech.Result) { l.add("result:" + r.BestTranscription().FormattedString) },
			func(_ speech.Session, err error) { l.add("error:" + err.Error()) }))
}

func waitDone(t *testing.T, r *speech.Recognizer) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("recognizer did not finish")
	}
}

func TestRecognizer_StopLifecycle(t *testing.T) {
	reg := speech.NewRegistry(nil)
	engine := speechtest.NewEngine()
	log := &eventLog{}

	session := speech.NewSession(language.AmericanEnglish)
	r, err := speech.StartRecognizer(context.Background(), speech.Options{
		Engine:   engine,
		Registry: reg,
		Handlers: log.handlers(),
	}, session)
	require.NoError(t, err)
	stream := engine.Last()

	got, ok := reg.Lookup(session.ID)
	require.True(t, ok)
	assert.Same(t, r, got)
	assert.Equal(t, speech.StateRecording, r.State())
	assert.Equal(t, "test (en-US)", r.DisplayName())

	n, err := r.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{1, 2, 3}, stream.Audio())

	stream.Emit("hel", true)
	require.Eventually(t, func() bool { return len(log.all()) == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, r.Stop())
	assert.Equal(t, speech.StateStopping, r.State())
	assert.Equal(t, 1, stream.CloseCount())

	// still registered until the engine delivers the final result
	_, ok = reg.Lookup(session.ID)
	assert.True(t, ok)

	_, err = r.Write([]byte{4})
	assert.ErrorIs(t, err, speech.ErrNotRecording)
	assert.ErrorIs(t, r.Stop(), speech.ErrNotRecording)

	stream.Emit("hello", false)
	stream.Finish()
	waitDone(t, r)

	assert.Equal(t, speech.StateFinished, r.State())
	assert.Equal(t, "hello", r.LastTranscript())
	_, ok = reg.Lookup(session.ID)
	assert.False(t, ok)

	assert.Equal(t, []string{"start", "result:hel", "stop", "result:hello"}, log.all())
}

func TestRecognizer_Cancel(t *testing.T) {
	reg := speech.NewRegistry(nil)
	engine := speechtest.NewEngine()
	log := &eventLog{}

	r, err := speech.StartRecognizer(context.Background(), speech.Options{
		Engine:   engine,
		Registry: reg,
		Handlers: log.handlers(),
	}, speech.NewSession(language.German))
	require.NoError(t, err)
	stream := engine.Last()

	require.NoError(t, r.Cancel())
	assert.Equal(t, speech.StateCancelled, r.State())
	_, ok := reg.Lookup(r.ID())
	assert.False(t, ok)
	<-stream.Closed()

	// late results are dropped
	stream.Emit("too late", false)
	stream.Finish()
	waitDone(t, r)

	assert.Equal(t, speech.StateCancelled, r.State())
	assert.ErrorIs(t, r.Cancel(), speech.ErrNotRecording)
	assert.Equal(t, []string{"start", "cancel"}, log.all())
}

func TestRecognizer_CancelAfterStop(t *testing.T) {
	reg := speech.NewRegistry(nil)
	engine := speechtest.NewEngine()
	log := &eventLog{}

	r, err := speech.StartRecognizer(context.Background(), speech.Options{
		Engine:   engine,
		Registry: reg,
		Handlers: log.handlers(),
	}, speech.NewSession(language.German))
	require.NoError(t, err)
	stream := engine.Last()

	require.NoError(t, r.Stop())
	require.NoError(t, r.Cancel())
	assert.Equal(t, speech.StateCancelled, r.State())
	_, ok := reg.Lookup(r.ID())
	assert.False(t, ok)
	assert.ErrorIs(t, r.Cancel(), speech.ErrNotRecording)

	// pending results are dropped
	stream.Emit("final", false)
	stream.Finish()
	waitDone(t, r)

	assert.Equal(t, 1, stream.CloseCount())
	assert.Equal(t, []string{"start", "stop"}, log.all())
}

func TestRecognizer_FailureAfterStop(t *testing.T) {
	reg := speech.NewRegistry(nil)
	engine := speechtest.NewEngine()
	log := &eventLog{}

	r, err := speech.StartRecognizer(context.Background(), speech.Options{
		Engine:   engine,
		Registry: reg,
		Handlers: log.handlers(),
	}, speech.NewSession(language.German))
	require.NoError(t, err)

	require.NoError(t, r.Stop())
	engine.Last().FailWith(errors.New("connection reset"))
	waitDone(t, r)

	assert.Equal(t, speech.StateFailed, r.State())
	_, ok := reg.Lookup(r.ID())
	assert.False(t, ok)
	assert.Equal(t, []string{"start", "stop"}, log.all())
}

func TestRecognizer_Failure(t *testing.T) {
	reg := speech.NewRegistry(nil)
	engine := speechtest.NewEngine()
	log := &eventLog{}

	r, err := speech.StartRecognizer(context.Background(), speech.Options{
		Engine:   engine,
		Registry: reg,
		Handlers: log.handlers(),
	}, speech.NewSession(language.French))
	require.NoError(t, err)

	stream := engine.Last()
	stream.Emit("bon", true)
	stream.FailWith(errors.New("network down"))
	waitDone(t, r)

	assert.Equal(t, speech.StateFailed, r.State())
	_, ok := reg.Lookup(r.ID())
	assert.False(t, ok)
	assert.Equal(t, []string{"start", "result:bon", "error:network down"}, log.all())
}

func TestRecognizer_TranscribeError(t *testing.T) {
	reg := speech.NewRegistry(nil)
	engine := speechtest.NewEngine()
	engine.TranscribeErr = errors.New("no credentials")

	var started bool
	h := speech.NewHandlers(nil).OnStart(func(speech.Session) { started = true })

	_, err := speech.StartRecognizer(context.Background(), speech.Options{Engine: engine, Registry: reg, Handlers: h}, speech.NewSession(language.English))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.TranscribeErr)
	assert.False(t, started)
	assert.Equal(t, 0, reg.Len())

	_, err = speech.StartRecognizer(context.Background(), speech.Options{}, speech.NewSession(language.English))
	assert.ErrorIs(t, err, speech.ErrNoEngine)
}

func TestRecognizer_RegisteredBeforeStartHandlers(t *testing.T) {
	reg := speech.NewRegistry(nil)
	engine := speechtest.NewEngine()

	var resolved bool
	h := speech.NewHandlers(nil).OnStart(func(s speech.Session) {
		_, resolved = speech.Resolve(reg, s.NullID())
	})

	r, err := speech.StartRecognizer(context.Background(), speech.Options{Engine: engine, Registry: reg, Handlers: h}, speech.NewSession(language.English))
	require.NoError(t, err)
	assert.True(t, resolved)

	engine.Last().Finish()
	waitDone(t, r)
}

func TestRecognizer_DoesNotUnregisterReplacement(t *testing.T) {
	reg := speech.NewRegistry(nil)
	engine := speechtest.NewEngine()

	r1, err := speech.StartRecognizer(context.Background(), speech.Options{Engine: engine, Registry: reg}, speech.NewSession(language.English))
	require.NoError(t, err)
	first := engine.Last()
	other := newDetachedRecognizer(t, engine, language.English)

	reg.Register(r1.ID(), other)
	first.Finish()
	waitDone(t, r1)

	got, ok := reg.Lookup(r1.ID())
	require.True(t, ok)
	assert.Same(t, other, got)
}

func TestSupportedLocales(t *testing.T) {
	engine := speechtest.NewEngine(language.AmericanEnglish, language.German)
	locales, err := speech.SupportedLocales(context.Background(), engine)
	require.NoError(t, err)

	assert.True(t, locales.Contains(language.German))
	assert.False(t, locales.Contains(language.Japanese))
	assert.Equal(t, []language.Tag{language.German, language.AmericanEnglish}, locales.Sorted())
}
