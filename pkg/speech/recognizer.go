package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// State is the lifecycle state of a recognizer.
type State int32

const (
	StatePending State = iota
	StateRecording
	StateStopping
	StateFinished
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateCancelled || s == StateFailed
}

var (
	ErrNotRecording = errors.New("recognizer is not recording")
	ErrNoEngine     = errors.New("no speech engine configured")
)

// Options holds what a recognizer needs to run.
type Options struct {
	Engine   Engine
	Registry Registry
	Handlers *Handlers
	Logger   *logrus.Entry
}

// Recognizer is the live engine instance servicing one session. It registers
// itself on start and removes itself from the registry once it terminates.
type Recognizer struct {
	session  Session
	engine   Engine
	stream   TranscriptionStream
	registry Registry
	handlers *Handlers
	logger   *logrus.Entry

	state          atomic.Int32
	lastTranscript atomic.Pointer[string]

	stopOnce sync.Once
	done     chan struct{}
}

// StartRecognizer opens a recognition for session, registers the recognizer and
// then runs the start chain. Results are pumped into the recognition chain on a
// separate goroutine until the engine closes the stream.
func StartRecognizer(ctx context.Context, opts Options, session Session) (*Recognizer, error) {
	if opts.Engine == nil {
		return nil, ErrNoEngine
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithFields(logrus.Fields{
		"sessionId": session.ID.String(),
		"engine":    opts.Engine.Name(),
	})

	stream, err := opts.Engine.Transcribe(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s recognition: %w", opts.Engine.Name(), err)
	}

	r := &Recognizer{
		session:  session,
		engine:   opts.Engine,
		stream:   stream,
		registry: opts.Registry,
		handlers: opts.Handlers,
		logger:   logger,
		done:     make(chan struct{}),
	}
	r.state.Store(int32(StateRecording))

	if r.registry != nil {
		r.registry.Register(session.ID, r)
	}
	logger.Infoln("recording started")

	if err := r.handlers.Start(session); err != nil {
		logger.WithError(err).Warnln("start handlers failed")
	}

	go r.pump()

	return r, nil
}

func (r *Recognizer) pump() {
	defer close(r.done)

	for result := range r.stream.Results() {
		if r.State() == StateCancelled {
			// keep draining so the engine can shut down
			continue
		}
		if t := result.BestTranscription().FormattedString; t != "" {
			r.lastTranscript.Store(&t)
		}
		if err := r.handlers.Recognize(r.session, result); err != nil {
			r.logger.WithError(err).Warnln("recognition handlers failed")
		}
	}

	err := r.stream.Err()
	final := StateFinished
	if err != nil {
		final = StateFailed
	}
	prev, ok := r.transition(final)
	if !ok {
		// cancelled while the engine was shutting down
		r.logger.Debugln("recognition ended after cancel")
		return
	}

	if err != nil {
		r.logger.WithError(err).Errorln("recognition failed")
		// a stopped session already had its terminal event
		if prev == StateRecording {
			if herr := r.handlers.Fail(r.session, err); herr != nil {
				r.logger.WithError(herr).Warnln("error handlers failed")
			}
		}
	} else {
		r.logger.Infoln("recognition finished")
	}
	r.unregister()
}

// unregister removes the recognizer, unless the id has been taken over since.
func (r *Recognizer) unregister() {
	if r.registry == nil {
		return
	}
	r.registry.UnregisterIf(r.session.ID, r)
}

// Write forwards audio to the engine.
func (r *Recognizer) Write(p []byte) (int, error) {
	if r.State() != StateRecording {
		return 0, ErrNotRecording
	}
	return r.stream.Write(p)
}

// Stop runs the stop chain and ends the audio input. Final results keep
// flowing until the engine closes the stream.
func (r *Recognizer) Stop() error {
	if !r.state.CompareAndSwap(int32(StateRecording), int32(StateStopping)) {
		return ErrNotRecording
	}
	r.logger.Infoln("recording stopped")

	if err := r.handlers.Stop(r.session); err != nil {
		r.logger.WithError(err).Warnln("stop handlers failed")
	}
	return r.closeStream()
}

// Cancel drops the recognition. The recognizer leaves the registry right away
// and no further results are delivered. After Stop only the pending results
// are dropped; the cancel chain does not run.
func (r *Recognizer) Cancel() error {
	prev, ok := r.transition(StateCancelled)
	if !ok {
		return ErrNotRecording
	}
	r.unregister()
	if prev == StateStopping {
		r.logger.Infoln("pending results dropped")
		return r.closeStream()
	}
	r.logger.Infoln("recording cancelled")

	if err := r.handlers.Cancel(r.session); err != nil {
		r.logger.WithError(err).Warnln("cancel handlers failed")
	}
	return r.closeStream()
}

// transition moves to a terminal state unless one was already reached.
// It returns the state it moved from.
func (r *Recognizer) transition(to State) (State, bool) {
	for {
		cur := State(r.state.Load())
		if cur.Terminal() {
			return cur, false
		}
		if r.state.CompareAndSwap(int32(cur), int32(to)) {
			return cur, true
		}
	}
}

func (r *Recognizer) closeStream() error {
	var err error
	r.stopOnce.Do(func() {
		err = r.stream.Close()
	})
	return err
}

// Done is closed when the engine has finished delivering results.
func (r *Recognizer) Done() <-chan struct{} {
	return r.done
}

func (r *Recognizer) ID() uuid.UUID {
	return r.session.ID
}

func (r *Recognizer) Session() Session {
	return r.session
}

func (r *Recognizer) Locale() language.Tag {
	return r.session.Locale
}

func (r *Recognizer) State() State {
	return State(r.state.Load())
}

// DisplayName is a human readable name such as "azure (en-US)".
func (r *Recognizer) DisplayName() string {
	return fmt.Sprintf("%s (%s)", r.engine.Name(), r.session.Locale)
}

// LastTranscript returns the best transcription of the latest result.
func (r *Recognizer) LastTranscript() string {
	if t := r.lastTranscript.Load(); t != nil {
		return *t
	}
	return ""
}
