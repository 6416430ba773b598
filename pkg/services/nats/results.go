package natsservice

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
)

// ResultMessage is the payload published for every recognition result.
type ResultMessage struct {
	SessionId  uuid.UUID `json:"session_id"`
	Locale     string    `json:"locale"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	IsPartial  bool      `json:"is_partial"`
	ReceivedAt int64     `json:"received_at"`
}

func newResultMessage(session speech.Session, result *speech.Result) ResultMessage {
	best := result.BestTranscription()
	return ResultMessage{
		SessionId:  session.ID,
		Locale:     session.Locale.String(),
		Text:       best.FormattedString,
		Confidence: best.Confidence,
		IsPartial:  result.IsPartial,
		ReceivedAt: result.ReceivedAt.UnixMilli(),
	}
}

// PublishResult sends a result to the session's results subject.
func (s *NatsService) PublishResult(session speech.Session, result *speech.Result) error {
	data, err := json.Marshal(newResultMessage(session, result))
	if err != nil {
		return err
	}
	return s.nc.Publish(s.ResultsSubject(session.ID), data)
}
