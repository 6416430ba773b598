package speech

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink receives values pushed by a producer.
type Sink[T any] interface {
	Send(v T)
}

// ChanSink adapts a plain channel into a Sink. Send blocks until the value is taken.
type ChanSink[T any] chan<- T

func (c ChanSink[T]) Send(v T) {
	c <- v
}

type subscriber[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once

	// guards ch against being closed while a Send is delivering to it
	mu     sync.RWMutex
	closed bool
}

// deliver never waits. It reports false when the subscriber's buffer is full.
func (s *subscriber[T]) deliver(v T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}

func (s *subscriber[T]) stop() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *subscriber[T]) close() {
	s.stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Subject multicasts every value it is sent to all current subscribers.
// Values sent before a subscriber joined are not replayed.
type Subject[T any] struct {
	lock      sync.Mutex
	subs      []*subscriber[T]
	bufSize   int
	completed bool
	logger    *logrus.Entry
}

// NewSubject creates a subject whose subscriber channels hold bufSize values.
func NewSubject[T any](bufSize int) *Subject[T] {
	if bufSize < 0 {
		bufSize = 0
	}
	return &Subject[T]{
		bufSize: bufSize,
		logger:  logrus.NewEntry(logrus.StandardLogger()).WithField("component", "subject"),
	}
}

// WithLogger sets the logger reporting dropped values. It returns s.
func (s *Subject[T]) WithLogger(logger *logrus.Entry) *Subject[T] {
	if logger != nil {
		s.lock.Lock()
		s.logger = logger.WithField("component", "subject")
		s.lock.Unlock()
	}
	return s
}

// Send delivers v to every live subscriber in subscription order and never
// waits. A subscriber whose buffer is full misses v.
func (s *Subject[T]) Send(v T) {
	s.lock.Lock()
	if s.completed {
		s.lock.Unlock()
		return
	}
	subs := make([]*subscriber[T], len(s.subs))
	copy(subs, s.subs)
	logger := s.logger
	s.lock.Unlock()

	dropped := 0
	for _, sub := range subs {
		if !sub.deliver(v) {
			dropped++
		}
	}
	if dropped > 0 {
		logger.WithField("subscribers", dropped).Warnln("subscriber buffer full, value dropped")
	}
}

// Subscribe returns a channel receiving every value sent from now on.
// The channel is closed when ctx ends or the subject completes.
func (s *Subject[T]) Subscribe(ctx context.Context) <-chan T {
	sub := &subscriber[T]{
		ch:   make(chan T, s.bufSize),
		done: make(chan struct{}),
	}

	s.lock.Lock()
	if s.completed {
		s.lock.Unlock()
		sub.close()
		return sub.ch
	}
	s.subs = append(s.subs, sub)
	s.lock.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.done:
		}
		s.remove(sub)
	}()

	return sub.ch
}

// Complete closes every subscriber channel. Later sends are dropped.
func (s *Subject[T]) Complete() {
	s.lock.Lock()
	if s.completed {
		s.lock.Unlock()
		return
	}
	s.completed = true
	subs := s.subs
	s.subs = nil
	s.lock.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

func (s *Subject[T]) remove(sub *subscriber[T]) {
	s.lock.Lock()
	for i, v := range s.subs {
		if v == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			break
		}
	}
	s.lock.Unlock()

	sub.close()
}
