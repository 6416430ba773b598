package azure

import (
	"errors"
	"sync"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	speechpkg "github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/sirupsen/logrus"
)

// stream adapts the push stream and the recognizer callbacks to speech.TranscriptionStream.
type stream struct {
	pushStream *audio.PushAudioInputStream
	recognizer *speech.SpeechRecognizer
	log        *logrus.Entry
	release    func()

	mu      sync.Mutex
	closed  bool
	err     error
	results chan *speechpkg.Result

	finished   chan struct{}
	finishOnce sync.Once
	inputOnce  sync.Once
}

func newStream(pushStream *audio.PushAudioInputStream, recognizer *speech.SpeechRecognizer, log *logrus.Entry) *stream {
	return &stream{
		pushStream: pushStream,
		recognizer: recognizer,
		log:        log,
		results:    make(chan *speechpkg.Result, 32),
		finished:   make(chan struct{}),
	}
}

func (s *stream) Write(p []byte) (int, error) {
	if err := s.pushStream.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close ends the audio input. Azure answers with the last final result
// followed by SessionStopped, which closes Results().
func (s *stream) Close() error {
	s.inputOnce.Do(func() {
		s.pushStream.CloseStream()
	})
	return nil
}

func (s *stream) Results() <-chan *speechpkg.Result {
	return s.results
}

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stream) emit(text string, partial bool) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.results <- speechpkg.NewResult(text, partial)
}

func (s *stream) canceled(reason common.CancellationReason, details string) {
	if reason != common.Error {
		// EndOfStream after Close
		s.log.Debugln("azure recognition reached end of stream")
		return
	}
	s.log.WithField("details", details).Errorln("azure recognition canceled")
	s.fail(errors.New(details))
	s.finish()
}

func (s *stream) sessionStopped() {
	s.finish()
}

// abort is used when the context of the recognition ends.
func (s *stream) abort(err error) {
	s.fail(err)
	_ = s.Close()
	s.finish()
}

func (s *stream) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *stream) finish() {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.results)
		s.mu.Unlock()
		close(s.finished)

		// never stop the recognizer from its own callback goroutine
		go func() {
			if err := <-s.recognizer.StopContinuousRecognitionAsync(); err != nil {
				s.log.WithError(err).Warnln("failed to stop azure recognition")
			}
			if s.release != nil {
				s.release()
			}
		}()
	})
}
