package domain

import "time"

// Envelope is the uniform return shape of every domain fetch method. A
// degraded envelope (Error true) still carries the last-known data so the
// consumer can render it with a stale indicator instead of failing hard.
type Envelope struct {
	Count        int       `json:"count"`
	Data         []Record  `json:"data"`
	Features     []Feature `json:"features"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Error        bool      `json:"error,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// EmptyEnvelope builds the explicit empty result used when a fetch fails and
// no cached value of any age exists.
func EmptyEnvelope(at time.Time) Envelope {
	return Envelope{
		Count:       0,
		Data:        []Record{},
		Features:    []Feature{},
		LastUpdated: at,
	}
}

// Degraded copies the envelope with the error flag set, used for the
// stale-fallback path. The underlying data slices are shared, not copied;
// envelopes are read-only by contract.
func (e Envelope) Degraded(msg string) Envelope {
	e.Error = true
	e.ErrorMessage = msg
	return e
}
