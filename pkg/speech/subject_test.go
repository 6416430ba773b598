package speech_test

import (
	"context"
	"testing"
	"time"

	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject_Multicast(t *testing.T) {
	ctx := context.Background()
	subject := speech.NewSubject[int](4)

	a := subject.Subscribe(ctx)
	subject.Send(1)
	b := subject.Subscribe(ctx)
	subject.Send(2)
	subject.Complete()

	assert.Equal(t, []int{1, 2}, collect(t, a))
	assert.Equal(t, []int{2}, collect(t, b))
}

func TestSubject_UnsubscribeWithContext(t *testing.T) {
	subject := speech.NewSubject[string](0)
	ctx, cancel := context.WithCancel(context.Background())

	ch := subject.Subscribe(ctx)
	cancel()
	assert.Empty(t, collect(t, ch))

	// nobody is listening, so this must not block
	subject.Send("dropped")
}

func TestSubject_CompletedSubjectIgnoresSends(t *testing.T) {
	subject := speech.NewSubject[int](1)
	subject.Complete()
	subject.Complete()
	subject.Send(1)

	ch := subject.Subscribe(context.Background())
	assert.Empty(t, collect(t, ch))
}

func TestSubject_SlowSubscriberNeverBlocksSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, hook := test.NewNullLogger()
	subject := speech.NewSubject[int](2).WithLogger(logrus.NewEntry(logger))
	stalled := subject.Subscribe(ctx)
	reader := subject.Subscribe(ctx)

	received := make(chan []int)
	go func() {
		var got []int
		for v := range reader {
			got = append(got, v)
		}
		received <- got
	}()

	sent := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			subject.Send(i)
		}
		close(sent)
	}()

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a subscriber that never reads")
	}
	subject.Complete()

	// the stalled subscriber kept only what fit into its buffer
	assert.Equal(t, []int{0, 1}, collect(t, stalled))
	got := <-received
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 100)

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
}
