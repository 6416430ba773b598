package speechservice

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

const (
	TaskStart  = "start"
	TaskStop   = "stop"
	TaskCancel = "cancel"
)

// TaskPayload is a request received on the tasks subject.
type TaskPayload struct {
	Task      string    `json:"task"`
	SessionId uuid.UUID `json:"session_id"`
	Locale    string    `json:"locale,omitempty"`
}

// TaskReply answers a task request when the sender asked for a reply.
type TaskReply struct {
	Status    bool      `json:"status"`
	Msg       string    `json:"msg"`
	SessionId uuid.UUID `json:"session_id"`
}

// SubscribeToTaskRequests listens on the tasks subject. Every instance gets
// every request: start is handled by the instance winning the session lock,
// stop and cancel by the instance holding the recognizer.
func (s *SpeechService) SubscribeToTaskRequests() error {
	if s.natsService == nil {
		return errors.New("nats service is required for task requests")
	}

	sub, err := s.natsService.SubscribeTasks(func(msg *nats.Msg) {
		var payload TaskPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			s.logger.WithError(err).Errorln("failed to unmarshal speech task payload")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"task":      payload.Task,
			"sessionId": payload.SessionId.String(),
		}).Debugln("received speech task")

		handled, err := s.handleTask(&payload)
		if !handled || msg.Reply == "" {
			return
		}
		reply := TaskReply{Status: err == nil, Msg: "success", SessionId: payload.SessionId}
		if err != nil {
			reply.Msg = err.Error()
		}
		if data, merr := json.Marshal(reply); merr == nil {
			_ = msg.Respond(data)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to speech tasks: %w", err)
	}

	s.lock.Lock()
	s.sub = sub
	s.lock.Unlock()
	s.logger.Infof("successfully connected with %s channel", sub.Subject)
	return nil
}

// handleTask reports whether this instance was responsible for the task.
func (s *SpeechService) handleTask(payload *TaskPayload) (bool, error) {
	switch payload.Task {
	case TaskStart:
		return s.handleStartTask(payload)
	case TaskStop, TaskCancel:
		if _, ok := s.registry.Lookup(payload.SessionId); !ok {
			// another instance owns it
			return false, nil
		}
		if payload.Task == TaskStop {
			return true, s.StopSession(payload.SessionId)
		}
		return true, s.CancelSession(payload.SessionId)
	default:
		s.logger.Warnf("unknown speech task '%s'", payload.Task)
		return false, nil
	}
}

func (s *SpeechService) handleStartTask(payload *TaskPayload) (bool, error) {
	if payload.SessionId == uuid.Nil {
		return true, errors.New("session_id is required")
	}

	locale := s.conf.DefaultLocaleTag()
	if payload.Locale != "" {
		tag, err := language.Parse(payload.Locale)
		if err != nil {
			return true, fmt.Errorf("invalid locale %q: %w", payload.Locale, err)
		}
		locale = tag
	}

	var lockValue string
	if s.redisService != nil {
		acquired, val, err := s.redisService.LockSession(s.ctx, payload.SessionId, config.UsageKeyTTL)
		if err != nil {
			return true, err
		}
		if !acquired {
			return false, nil
		}
		lockValue = val
	}

	session := speech.Session{ID: payload.SessionId, Locale: locale, CreatedAt: time.Now()}

	r, err := s.startSession(s.ctx, session, nil)
	if err != nil {
		s.unlockSession(session.ID, lockValue)
		return true, err
	}

	var audioSub *nats.Subscription
	if s.natsService != nil {
		audioSub, err = s.natsService.SubscribeAudio(session.ID, func(chunk []byte) {
			if _, err := r.Write(chunk); err != nil && !errors.Is(err, speech.ErrNotRecording) {
				s.logger.WithError(err).WithField("sessionId", session.ID.String()).Warnln("failed to write audio")
			}
		})
		if err != nil {
			_ = r.Cancel()
			s.unlockSession(session.ID, lockValue)
			return true, fmt.Errorf("failed to subscribe to audio: %w", err)
		}
	}

	go func() {
		<-r.Done()
		if audioSub != nil {
			_ = audioSub.Unsubscribe()
		}
		s.unlockSession(session.ID, lockValue)
	}()

	return true, nil
}

func (s *SpeechService) unlockSession(id uuid.UUID, lockValue string) {
	if s.redisService == nil || lockValue == "" {
		return
	}
	if err := s.redisService.UnlockSession(s.ctx, id, lockValue); err != nil {
		s.logger.WithError(err).WithField("sessionId", id.String()).Warnln("failed to release session lock")
	}
}
