package speech

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Event is a recording lifecycle event kind.
type Event string

const (
	EventStart     Event = "start"
	EventStop      Event = "stop"
	EventCancel    Event = "cancel"
	EventRecognize Event = "recognize"
	EventError     Event = "error"
)

// SessionHandler is invoked when a lifecycle event fires for a session.
type SessionHandler func(session Session)

// RecognitionHandler receives recognition updates and failures for a session.
// Build one with OnRecognize and friends.
type RecognitionHandler struct {
	includePartial bool
	onResult       func(session Session, result *Result)
	onError        func(session Session, err error)
}

func (h RecognitionHandler) handleResult(session Session, result *Result) {
	if result == nil || h.onResult == nil {
		return
	}
	if result.IsPartial && !h.includePartial {
		return
	}
	h.onResult(session, result)
}

func (h RecognitionHandler) handleError(session Session, err error) {
	if h.onError != nil {
		h.onError(session, err)
	}
}

// Handlers is an immutable scope of handler chains. Every On* method returns a
// new scope with the handler in front of its chain; the receiver never changes,
// so an outer scope is unaffected by what nested scopes attach.
// A nil *Handlers is a valid, empty scope.
type Handlers struct {
	start     []SessionHandler
	stop      []SessionHandler
	cancel    []SessionHandler
	recognize []RecognitionHandler
	logger    *logrus.Entry
}

// NewHandlers creates an empty root scope. Recovered handler panics are logged to logger.
func NewHandlers(logger *logrus.Entry) *Handlers {
	return &Handlers{
		logger: logger,
	}
}

func (h *Handlers) clone() *Handlers {
	if h == nil {
		return &Handlers{}
	}
	c := *h
	return &c
}

func prepend[T any](chain []T, v T) []T {
	out := make([]T, 0, len(chain)+1)
	out = append(out, v)
	return append(out, chain...)
}

// OnStart returns a scope that runs fn first when a recording starts.
func (h *Handlers) OnStart(fn SessionHandler) *Handlers {
	c := h.clone()
	c.start = prepend(c.start, fn)
	return c
}

// OnStop returns a scope that runs fn first when a recording is stopped.
func (h *Handlers) OnStop(fn SessionHandler) *Handlers {
	c := h.clone()
	c.stop = prepend(c.stop, fn)
	return c
}

// OnCancel returns a scope that runs fn first when a recording is cancelled.
func (h *Handlers) OnCancel(fn SessionHandler) *Handlers {
	c := h.clone()
	c.cancel = prepend(c.cancel, fn)
	return c
}

// OnRecognize returns a scope that passes recognition updates to rh first.
func (h *Handlers) OnRecognize(rh RecognitionHandler) *Handlers {
	c := h.clone()
	c.recognize = prepend(c.recognize, rh)
	return c
}

// WithLogger returns a scope logging recovered panics to logger.
func (h *Handlers) WithLogger(logger *logrus.Entry) *Handlers {
	c := h.clone()
	c.logger = logger
	return c
}

// Len returns the number of handlers attached for the event.
func (h *Handlers) Len(event Event) int {
	if h == nil {
		return 0
	}
	switch event {
	case EventStart:
		return len(h.start)
	case EventStop:
		return len(h.stop)
	case EventCancel:
		return len(h.cancel)
	case EventRecognize, EventError:
		return len(h.recognize)
	}
	return 0
}

// Start runs the start chain.
func (h *Handlers) Start(session Session) error {
	if h == nil {
		return nil
	}
	return h.runSession(EventStart, h.start, session)
}

// Stop runs the stop chain.
func (h *Handlers) Stop(session Session) error {
	if h == nil {
		return nil
	}
	return h.runSession(EventStop, h.stop, session)
}

// Cancel runs the cancel chain.
func (h *Handlers) Cancel(session Session) error {
	if h == nil {
		return nil
	}
	return h.runSession(EventCancel, h.cancel, session)
}

// Recognize passes a recognition update to every recognition handler.
func (h *Handlers) Recognize(session Session, result *Result) error {
	if h == nil {
		return nil
	}
	var failures []HandlerFailure
	for i, rh := range h.recognize {
		if f := h.call(EventRecognize, i, session, func() { rh.handleResult(session, result) }); f != nil {
			failures = append(failures, *f)
		}
	}
	return newHandlerError(failures)
}

// Fail passes a recognition failure to every recognition handler.
func (h *Handlers) Fail(session Session, err error) error {
	if h == nil {
		return nil
	}
	var failures []HandlerFailure
	for i, rh := range h.recognize {
		if f := h.call(EventError, i, session, func() { rh.handleError(session, err) }); f != nil {
			failures = append(failures, *f)
		}
	}
	return newHandlerError(failures)
}

func (h *Handlers) runSession(event Event, chain []SessionHandler, session Session) error {
	var failures []HandlerFailure
	for i, fn := range chain {
		if f := h.call(event, i, session, func() { fn(session) }); f != nil {
			failures = append(failures, *f)
		}
	}
	return newHandlerError(failures)
}

// call runs fn and turns a panic into a HandlerFailure so the rest of the chain still runs.
func (h *Handlers) call(event Event, index int, session Session, fn func()) (failure *HandlerFailure) {
	defer func() {
		if r := recover(); r != nil {
			failure = &HandlerFailure{
				Event:     event,
				Index:     index,
				SessionID: session.ID.String(),
				Value:     r,
			}
			if h.logger != nil {
				h.logger.WithFields(logrus.Fields{
					"event":     event,
					"index":     index,
					"sessionId": failure.SessionID,
				}).Errorf("handler panicked: %v", r)
			}
		}
	}()
	fn()
	return nil
}

// HandlerFailure describes a handler that panicked during dispatch.
type HandlerFailure struct {
	Event     Event
	Index     int
	SessionID string
	Value     any
}

func (f HandlerFailure) Error() string {
	return fmt.Sprintf("%s handler #%d for session %s panicked: %v", f.Event, f.Index, f.SessionID, f.Value)
}

// Unwrap exposes the panic value when it was an error.
func (f HandlerFailure) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// HandlerError is returned by a dispatch in which one or more handlers panicked.
type HandlerError struct {
	Failures []HandlerFailure
}

func newHandlerError(failures []HandlerFailure) error {
	if len(failures) == 0 {
		return nil
	}
	return &HandlerError{Failures: failures}
}

func (e *HandlerError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap allows errors.Is and errors.As to reach the individual failures.
func (e *HandlerError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// IsHandlerError reports whether err came from a panicking handler.
func IsHandlerError(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}
