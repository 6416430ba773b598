package natsservice

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

const SessionStatusBucket = Prefix + "sessionStatus"

// storeSessionEvent keeps the latest event of every session, so any
// instance can tell what a session is doing.
func (s *NatsService) storeSessionEvent(e SessionEvent, data []byte) error {
	if s.js == nil {
		return nil
	}
	kv, err := s.js.CreateOrUpdateKeyValue(s.ctx, jetstream.KeyValueConfig{
		Bucket: SessionStatusBucket,
		TTL:    DefaultTTL,
	})
	if err != nil {
		return err
	}
	_, err = kv.Put(s.ctx, e.SessionId.String(), data)
	return err
}

// GetSessionStatus returns the latest event published for a session,
// nil if there is none.
func (s *NatsService) GetSessionStatus(sessionId uuid.UUID) (*SessionEvent, error) {
	if s.js == nil {
		return nil, nil
	}
	kv, err := s.js.KeyValue(s.ctx, SessionStatusBucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	entry, err := kv.Get(s.ctx, sessionId.String())
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	e := new(SessionEvent)
	if err = json.Unmarshal(entry.Value(), e); err != nil {
		return nil, err
	}
	return e, nil
}
