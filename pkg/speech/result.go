package speech

import "time"

// Transcription is a single hypothesis of what was said.
type Transcription struct {
	FormattedString string  `json:"text"`
	Confidence      float64 `json:"confidence"`
}

// Result is one recognition update for a session.
type Result struct {
	Transcriptions []Transcription `json:"transcriptions"`
	IsPartial      bool            `json:"is_partial"` // True if this is an intermediate, non-final result.
	ReceivedAt     time.Time       `json:"received_at"`
}

// NewResult builds a result carrying a single transcription.
func NewResult(text string, isPartial bool) *Result {
	return &Result{
		Transcriptions: []Transcription{{FormattedString: text, Confidence: 1}},
		IsPartial:      isPartial,
		ReceivedAt:     time.Now(),
	}
}

// BestTranscription returns the most confident hypothesis. On ties the earlier one wins.
func (r *Result) BestTranscription() Transcription {
	var best Transcription
	if r == nil || len(r.Transcriptions) == 0 {
		return best
	}
	best = r.Transcriptions[0]
	for _, t := range r.Transcriptions[1:] {
		if t.Confidence > best.Confidence {
			best = t
		}
	}
	return best
}
