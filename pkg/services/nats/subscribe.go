package natsservice

import (
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// SubscribeAudio delivers every audio chunk published for a session to fn.
func (s *NatsService) SubscribeAudio(sessionId uuid.UUID, fn func(chunk []byte)) (*nats.Subscription, error) {
	return s.nc.Subscribe(s.AudioSubject(sessionId), func(msg *nats.Msg) {
		fn(msg.Data)
	})
}

// SubscribeTasks delivers every task request to fn.
func (s *NatsService) SubscribeTasks(fn func(msg *nats.Msg)) (*nats.Subscription, error) {
	return s.nc.Subscribe(s.app.NatsInfo.Subjects.Tasks, fn)
}
