package speech

import (
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
)

// Registry maps a session id to the recognizer servicing it.
// The registry owns only the mapping, never the recognizer's lifetime.
type Registry interface {
	// Register associates id with r. An existing association is replaced.
	Register(id uuid.UUID, r *Recognizer)
	// Unregister removes the association. Unknown ids are ignored.
	Unregister(id uuid.UUID)
	// UnregisterIf removes the association only while id still maps to r,
	// as one atomic step. It reports whether it removed anything.
	UnregisterIf(id uuid.UUID, r *Recognizer) bool
	// Lookup returns the live recognizer for id, if any.
	Lookup(id uuid.UUID) (*Recognizer, bool)
	// Range calls fn for every association until fn returns false.
	Range(fn func(id uuid.UUID, r *Recognizer) bool)
	// Len returns the number of associations.
	Len() int
}

// MemoryRegistry is an in-process Registry. Lookups never block.
type MemoryRegistry struct {
	recognizers *xsync.MapOf[uuid.UUID, *Recognizer]
	logger      *logrus.Entry
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *logrus.Entry) *MemoryRegistry {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &MemoryRegistry{
		recognizers: xsync.NewMapOf[uuid.UUID, *Recognizer](),
		logger:      logger.WithField("component", "registry"),
	}
}

func (m *MemoryRegistry) Register(id uuid.UUID, r *Recognizer) {
	if r == nil {
		m.Unregister(id)
		return
	}
	if old, loaded := m.recognizers.LoadAndStore(id, r); loaded && old != r {
		m.logger.WithField("sessionId", id).Debugln("replaced existing recognizer")
	}
}

func (m *MemoryRegistry) Unregister(id uuid.UUID) {
	m.recognizers.Delete(id)
}

func (m *MemoryRegistry) UnregisterIf(id uuid.UUID, r *Recognizer) bool {
	removed := false
	m.recognizers.Compute(id, func(cur *Recognizer, loaded bool) (*Recognizer, bool) {
		if loaded && cur == r {
			removed = true
			return nil, true
		}
		// absent keys stay absent
		return cur, !loaded
	})
	return removed
}

func (m *MemoryRegistry) Lookup(id uuid.UUID) (*Recognizer, bool) {
	return m.recognizers.Load(id)
}

func (m *MemoryRegistry) Range(fn func(id uuid.UUID, r *Recognizer) bool) {
	m.recognizers.Range(fn)
}

func (m *MemoryRegistry) Len() int {
	return m.recognizers.Size()
}
