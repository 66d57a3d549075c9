package domain

// StatusSummary is the comparable roll-up a polling task remembers between
// ticks to decide whether anything changed.
type StatusSummary struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
	Unknown int `json:"unknown"`
}

// Delta is the offline-count movement between two summaries. Positive means
// more entities went offline since the previous snapshot.
func (s StatusSummary) Delta(prev StatusSummary) int {
	return s.Offline - prev.Offline
}
