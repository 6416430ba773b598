package speech

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Field reads a value out of a recognizer.
type Field[T any] func(r *Recognizer) T

// Fields usable with MapResolvedField.
var (
	DisplayName       Field[string]       = (*Recognizer).DisplayName
	RecognizerState   Field[State]        = (*Recognizer).State
	RecognizerSession Field[Session]      = (*Recognizer).Session
	RecognizerLocale  Field[language.Tag] = (*Recognizer).Locale
	LastTranscript    Field[string]       = (*Recognizer).LastTranscript
)

// Resolve looks up the recognizer for an optional session id.
// An absent id never resolves, regardless of the registry's contents.
func Resolve(reg Registry, id uuid.NullUUID) (*Recognizer, bool) {
	if !id.Valid || reg == nil {
		return nil, false
	}
	return reg.Lookup(id.UUID)
}

// MapResolved resolves every incoming id at the moment it arrives and emits
// transform(recognizer). Ids that are absent or don't resolve emit nothing.
// The returned channel closes once ids is closed or ctx ends.
func MapResolved[T any](ctx context.Context, reg Registry, ids <-chan uuid.NullUUID, transform func(r *Recognizer) T) <-chan T {
	out := make(chan T)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-ids:
				if !ok {
					return
				}
				r, found := Resolve(reg, id)
				if !found {
					continue
				}
				select {
				case out <- transform(r):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// MapResolvedField is MapResolved reading a single field of the recognizer.
func MapResolvedField[T any](ctx context.Context, reg Registry, ids <-chan uuid.NullUUID, field Field[T]) <-chan T {
	return MapResolved[T](ctx, reg, ids, field)
}

// SessionIDs turns a stream of optional sessions into a stream of optional ids.
func SessionIDs(ctx context.Context, sessions <-chan *Session) <-chan uuid.NullUUID {
	out := make(chan uuid.NullUUID)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-sessions:
				if !ok {
					return
				}
				id := uuid.NullUUID{}
				if s != nil {
					id = s.NullID()
				}
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
