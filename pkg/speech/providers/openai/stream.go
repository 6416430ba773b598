package openai

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech/media"
	"github.com/sirupsen/logrus"
)

var ErrStreamClosed = errors.New("openai stream is closed")

type stream struct {
	ctx    context.Context
	engine *Engine
	lang   string
	log    *logrus.Entry

	buf     *media.PCMBuffer
	results chan *speech.Result

	mu     sync.Mutex
	closed bool
	err    error
}

func (s *stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStreamClosed
	}
	return s.buf.Write(p)
}

// Close sends the buffered audio for transcription.
func (s *stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	go s.run()
	return nil
}

func (s *stream) run() {
	defer close(s.results)

	if s.buf.Len() == 0 {
		s.log.Debugln("no audio received, skipping transcription")
		return
	}

	wav, err := s.buf.WAV()
	if err != nil {
		s.setErr(err)
		return
	}

	s.log.WithField("bytes", len(wav)).Infoln("sending audio for transcription")
	text, err := s.engine.transcribe(s.ctx, wav, s.lang)
	if err != nil {
		s.setErr(err)
		return
	}

	if text = strings.TrimSpace(text); text != "" {
		s.results <- speech.NewResult(text, false)
	}
}

func (s *stream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *stream) Results() <-chan *speech.Result {
	return s.results
}

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
