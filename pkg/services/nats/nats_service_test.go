package natsservice

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestSubjects(t *testing.T) {
	app, err := config.New(&config.AppConfig{})
	require.NoError(t, err)
	s := New(app)

	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "speech.results.6ba7b810-9dad-11d1-80b4-00c04fd430c8", s.ResultsSubject(id))
	assert.Equal(t, "speech.audio.6ba7b810-9dad-11d1-80b4-00c04fd430c8", s.AudioSubject(id))
}

func TestSessionEventPayload(t *testing.T) {
	session := speech.NewSession(language.MustParse("en-US"))

	data, err := json.Marshal(newSessionEvent(speech.EventError, session, errors.New("quota exceeded")))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "error", got["event"])
	assert.Equal(t, session.ID.String(), got["session_id"])
	assert.Equal(t, "en-US", got["locale"])
	assert.Equal(t, "quota exceeded", got["error"])

	data, err = json.Marshal(newSessionEvent(speech.EventStart, session, nil))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"error"`)
}

func TestResultMessage(t *testing.T) {
	session := speech.NewSession(language.German)
	result := &speech.Result{
		Transcriptions: []speech.Transcription{
			{FormattedString: "hallo", Confidence: 0.4},
			{FormattedString: "hallo welt", Confidence: 0.9},
		},
		IsPartial: true,
	}

	msg := newResultMessage(session, result)
	assert.Equal(t, session.ID, msg.SessionId)
	assert.Equal(t, "de", msg.Locale)
	assert.Equal(t, "hallo welt", msg.Text)
	assert.InDelta(t, 0.9, msg.Confidence, 1e-9)
	assert.True(t, msg.IsPartial)
}
