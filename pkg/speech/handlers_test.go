package speech_test

import (
	"errors"
	"testing"

	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func recorder(calls *[]string, name string) speech.SessionHandler {
	return func(speech.Session) {
		*calls = append(*calls, name)
	}
}

func TestHandlers_MostRecentFirst(t *testing.T) {
	var calls []string
	h := speech.NewHandlers(nil).
		OnStart(recorder(&calls, "A")).
		OnStart(recorder(&calls, "B")).
		OnStart(recorder(&calls, "C"))

	require.NoError(t, h.Start(speech.NewSession(language.English)))
	assert.Equal(t, []string{"C", "B", "A"}, calls)
}

func TestHandlers_ScopesAreSnapshots(t *testing.T) {
	var calls []string
	outer := speech.NewHandlers(nil).OnStop(recorder(&calls, "outer"))
	inner := outer.OnStop(recorder(&calls, "inner"))
	sibling := outer.OnStop(recorder(&calls, "sibling"))

	session := speech.NewSession(language.English)

	require.NoError(t, outer.Stop(session))
	assert.Equal(t, []string{"outer"}, calls)

	calls = nil
	require.NoError(t, inner.Stop(session))
	assert.Equal(t, []string{"inner", "outer"}, calls)

	calls = nil
	require.NoError(t, sibling.Stop(session))
	assert.Equal(t, []string{"sibling", "outer"}, calls)

	assert.Equal(t, 1, outer.Len(speech.EventStop))
	assert.Equal(t, 2, inner.Len(speech.EventStop))
}

func TestHandlers_EventKindsAreSeparate(t *testing.T) {
	var calls []string
	h := speech.NewHandlers(nil).
		OnStart(recorder(&calls, "start")).
		OnStop(recorder(&calls, "stop")).
		OnCancel(recorder(&calls, "cancel"))

	session := speech.NewSession(language.English)
	require.NoError(t, h.Cancel(session))
	require.NoError(t, h.Start(session))
	require.NoError(t, h.Stop(session))

	assert.Equal(t, []string{"cancel", "start", "stop"}, calls)
}

func TestHandlers_NilScopeIsEmpty(t *testing.T) {
	var h *speech.Handlers
	session := speech.NewSession(language.English)

	assert.NoError(t, h.Start(session))
	assert.NoError(t, h.Stop(session))
	assert.NoError(t, h.Cancel(session))
	assert.NoError(t, h.Recognize(session, speech.NewResult("x", false)))
	assert.NoError(t, h.Fail(session, errors.New("boom")))
	assert.Equal(t, 0, h.Len(speech.EventStart))

	var calls []string
	assert.NoError(t, h.OnStart(recorder(&calls, "A")).Start(session))
	assert.Equal(t, []string{"A"}, calls)
}

func TestHandlers_PanickingHandlerDoesNotStopChain(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var calls []string
	boom := errors.New("boom")

	h := speech.NewHandlers(logrus.NewEntry(logger)).
		OnStart(recorder(&calls, "A")).
		OnStart(func(speech.Session) { panic(boom) }).
		OnStart(recorder(&calls, "C"))

	session := speech.NewSession(language.English)
	err := h.Start(session)

	assert.Equal(t, []string{"C", "A"}, calls)
	require.Error(t, err)
	assert.True(t, speech.IsHandlerError(err))
	assert.ErrorIs(t, err, boom)

	var he *speech.HandlerError
	require.ErrorAs(t, err, &he)
	require.Len(t, he.Failures, 1)
	assert.Equal(t, speech.EventStart, he.Failures[0].Event)
	assert.Equal(t, 1, he.Failures[0].Index)
	assert.Equal(t, session.ID.String(), he.Failures[0].SessionID)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, speech.EventStart, hook.LastEntry().Data["event"])
}

func TestHandlers_RecognizeChainOrder(t *testing.T) {
	var calls []string
	h := speech.NewHandlers(nil).
		OnRecognize(speech.OnRecognizeText(true, func(text string) { calls = append(calls, "first:"+text) })).
		OnRecognize(speech.OnRecognizeText(true, func(text string) { calls = append(calls, "second:"+text) }))

	require.NoError(t, h.Recognize(speech.NewSession(language.English), speech.NewResult("hi", false)))
	assert.Equal(t, []string{"second:hi", "first:hi"}, calls)
}
