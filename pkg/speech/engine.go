package speech

import (
	"context"
	"io"
	"sort"

	"golang.org/x/text/language"
)

// TranscriptionStream is a live recognition for one session.
// Audio is written into the stream; results are read from Results().
type TranscriptionStream interface {
	// Write accepts a chunk of audio data to be sent to the engine.
	io.Writer

	// Close signals that no more audio will be sent. Pending final
	// results are still delivered before Results() is closed.
	io.Closer

	// Results returns a read-only channel that is closed once the engine is done.
	Results() <-chan *Result

	// Err reports why the stream ended. It is only meaningful after Results() is closed.
	Err() error
}

// Engine is the underlying speech recognition service.
type Engine interface {
	// Name is used for logging and as a part of the recognizer's display name.
	Name() string

	// Transcribe opens a continuous recognition for the session.
	Transcribe(ctx context.Context, session Session) (TranscriptionStream, error)

	// SupportedLocales reports the locales the engine can recognize.
	SupportedLocales(ctx context.Context) (LocaleSet, error)
}

// LocaleSet is a set of locales.
type LocaleSet map[language.Tag]struct{}

// NewLocaleSet builds a set from the given tags.
func NewLocaleSet(tags ...language.Tag) LocaleSet {
	set := make(LocaleSet, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// Contains reports whether tag is part of the set.
func (s LocaleSet) Contains(tag language.Tag) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the tags ordered by their BCP 47 representation.
func (s LocaleSet) Sorted() []language.Tag {
	tags := make([]language.Tag, 0, len(s))
	for t := range s {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].String() < tags[j].String()
	})
	return tags
}

// SupportedLocales asks the engine for its locales. Nothing is cached.
func SupportedLocales(ctx context.Context, engine Engine) (LocaleSet, error) {
	return engine.SupportedLocales(ctx)
}
