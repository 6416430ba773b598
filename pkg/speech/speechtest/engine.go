// Package speechtest provides a scripted speech engine for tests.
package speechtest

import (
	"context"
	"errors"
	"sync"

	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"golang.org/x/text/language"
)

// Engine is an in-memory speech.Engine. Every Transcribe call creates a Stream
// that the test drives by hand.
type Engine struct {
	EngineName    string
	Locales       []language.Tag
	TranscribeErr error

	mu      sync.Mutex
	streams []*Stream
}

// NewEngine creates an engine named "test" that supports the given locales.
func NewEngine(locales ...language.Tag) *Engine {
	return &Engine{
		EngineName: "test",
		Locales:    locales,
	}
}

func (e *Engine) Name() string {
	return e.EngineName
}

func (e *Engine) Transcribe(_ context.Context, session speech.Session) (speech.TranscriptionStream, error) {
	if e.TranscribeErr != nil {
		return nil, e.TranscribeErr
	}
	s := &Stream{
		Session: session,
		results: make(chan *speech.Result, 16),
		closed:  make(chan struct{}),
	}
	e.mu.Lock()
	e.streams = append(e.streams, s)
	e.mu.Unlock()
	return s, nil
}

func (e *Engine) SupportedLocales(_ context.Context) (speech.LocaleSet, error) {
	return speech.NewLocaleSet(e.Locales...), nil
}

// Streams returns every stream opened so far.
func (e *Engine) Streams() []*Stream {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Stream, len(e.streams))
	copy(out, e.streams)
	return out
}

// Last returns the most recently opened stream.
func (e *Engine) Last() *Stream {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.streams) == 0 {
		return nil
	}
	return e.streams[len(e.streams)-1]
}

// Stream is a scripted speech.TranscriptionStream.
// Closing it doesn't end the results; call Finish or FailWith for that.
type Stream struct {
	Session speech.Session

	mu       sync.Mutex
	audio    []byte
	results  chan *speech.Result
	closed   chan struct{}
	ended    bool
	err      error
	closeCnt int
}

var ErrStreamClosed = errors.New("stream closed")

func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeCnt > 0 {
		return 0, ErrStreamClosed
	}
	s.audio = append(s.audio, p...)
	return len(p), nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCnt++
	if s.closeCnt == 1 {
		close(s.closed)
	}
	return nil
}

func (s *Stream) Results() <-chan *speech.Result {
	return s.results
}

func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Emit pushes a result to the recognizer.
func (s *Stream) Emit(text string, isPartial bool) {
	s.results <- speech.NewResult(text, isPartial)
}

// Finish ends the stream successfully.
func (s *Stream) Finish() {
	s.end(nil)
}

// FailWith ends the stream with err.
func (s *Stream) FailWith(err error) {
	s.end(err)
}

func (s *Stream) end(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.err = err
	close(s.results)
}

// Closed is closed once the recognizer has closed the stream.
func (s *Stream) Closed() <-chan struct{} {
	return s.closed
}

// CloseCount reports how many times Close was called.
func (s *Stream) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCnt
}

// Audio returns everything written so far.
func (s *Stream) Audio() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.audio))
	copy(out, s.audio)
	return out
}
