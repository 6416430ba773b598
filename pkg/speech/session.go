// Package speech contains the recording lifecycle handler chains, the recognizer
// registry and the stream operators that resolve a session id into its live recognizer.
package speech

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Session describes one user-initiated recording interaction.
// It's a value type; once created it never changes.
type Session struct {
	ID        uuid.UUID    `json:"session_id"`
	Locale    language.Tag `json:"locale"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewSession creates a session with a fresh identifier.
func NewSession(locale language.Tag) Session {
	return Session{
		ID:        uuid.New(),
		Locale:    locale,
		CreatedAt: time.Now(),
	}
}

// NullID returns the session id wrapped as a present optional id.
func (s Session) NullID() uuid.NullUUID {
	return uuid.NullUUID{UUID: s.ID, Valid: true}
}
