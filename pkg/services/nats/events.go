package natsservice

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
)

// SessionEvent is published on the events subject for every lifecycle event.
type SessionEvent struct {
	Event     speech.Event `json:"event"`
	SessionId uuid.UUID    `json:"session_id"`
	Locale    string       `json:"locale"`
	Error     string       `json:"error,omitempty"`
	Time      int64        `json:"time"`
}

func newSessionEvent(event speech.Event, session speech.Session, err error) SessionEvent {
	e := SessionEvent{
		Event:     event,
		SessionId: session.ID,
		Locale:    session.Locale.String(),
		Time:      time.Now().UnixMilli(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// PublishSessionEvent announces a lifecycle event of a session.
func (s *NatsService) PublishSessionEvent(event speech.Event, session speech.Session) error {
	return s.publishEvent(newSessionEvent(event, session, nil))
}

// PublishError announces a failed recognition.
func (s *NatsService) PublishError(session speech.Session, err error) error {
	return s.publishEvent(newSessionEvent(speech.EventError, session, err))
}

func (s *NatsService) publishEvent(e SessionEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err = s.nc.Publish(s.app.NatsInfo.Subjects.Events, data); err != nil {
		return err
	}
	return s.storeSessionEvent(e, data)
}

// EventSink adapts the service to a session sink publishing event.
func (s *NatsService) EventSink(event speech.Event) speech.Sink[speech.Session] {
	return eventSink{s: s, event: event}
}

type eventSink struct {
	s     *NatsService
	event speech.Event
}

func (e eventSink) Send(session speech.Session) {
	if err := e.s.PublishSessionEvent(e.event, session); err != nil {
		e.s.logger.WithError(err).WithField("sessionId", session.ID.String()).Errorln("failed to publish session event")
	}
}
