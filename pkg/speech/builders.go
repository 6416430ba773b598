package speech

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SendSessionTo returns a handler pushing the session into sink.
func SendSessionTo(sink Sink[Session]) SessionHandler {
	return func(session Session) {
		sink.Send(session)
	}
}

// SendOptionalSessionTo is SendSessionTo for sinks of optional sessions.
func SendOptionalSessionTo(sink Sink[*Session]) SessionHandler {
	return func(session Session) {
		s := session
		sink.Send(&s)
	}
}

// SendSessionIDTo returns a handler pushing the session's id into sink,
// ready to be fed into MapResolved.
func SendSessionIDTo(sink Sink[uuid.NullUUID]) SessionHandler {
	return func(session Session) {
		sink.Send(session.NullID())
	}
}

// OnRecognize builds a recognition handler. Partial results are dropped before
// reaching handleResult unless includePartial is set. Failures only go to
// handleError, which may be nil.
func OnRecognize(includePartial bool, handleResult func(session Session, result *Result), handleError func(session Session, err error)) RecognitionHandler {
	return RecognitionHandler{
		includePartial: includePartial,
		onResult:       handleResult,
		onError:        handleError,
	}
}

// OnRecognizeResult is OnRecognize for handlers that don't care about the session.
func OnRecognizeResult(includePartial bool, handleResult func(result *Result), handleError func(err error)) RecognitionHandler {
	rh := RecognitionHandler{includePartial: includePartial}
	if handleResult != nil {
		rh.onResult = func(_ Session, result *Result) {
			handleResult(result)
		}
	}
	if handleError != nil {
		rh.onError = func(_ Session, err error) {
			handleError(err)
		}
	}
	return rh
}

// OnRecognizeText hands the best transcription of every accepted result to fn.
// A nil fn ignores results.
func OnRecognizeText(includePartial bool, fn func(text string)) RecognitionHandler {
	if fn == nil {
		return OnRecognizeResult(includePartial, nil, nil)
	}
	return OnRecognizeResult(includePartial, func(result *Result) {
		fn(result.BestTranscription().FormattedString)
	}, nil)
}

// Setter is the write side of a binding.
type Setter[T any] interface {
	Set(v T)
}

// Binding is a value shared between the recognition pipeline and its reader.
type Binding[T any] struct {
	mu sync.RWMutex
	v  T
}

// NewBinding creates a binding holding v.
func NewBinding[T any](v T) *Binding[T] {
	return &Binding[T]{v: v}
}

func (b *Binding[T]) Get() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.v
}

func (b *Binding[T]) Set(v T) {
	b.mu.Lock()
	b.v = v
	b.mu.Unlock()
}

// UpdateText overwrites binding with the best transcription of every accepted
// result. The last update wins.
func UpdateText(includePartial bool, binding Setter[string]) RecognitionHandler {
	if binding == nil {
		return OnRecognizeText(includePartial, nil)
	}
	return OnRecognizeText(includePartial, binding.Set)
}

// PrintRecognizedText logs every accepted transcription. With a nil logger the
// standard logrus logger is used, which writes to stderr.
func PrintRecognizedText(includePartial bool, logger logrus.FieldLogger) RecognitionHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return OnRecognizeText(includePartial, func(text string) {
		logger.Infof("[speech] recognized text: %s", text)
	})
}
