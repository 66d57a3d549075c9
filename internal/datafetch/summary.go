package datafetch

import (
	"strings"

	"grid-ops-service/internal/domain"
)

// Summarize rolls a subscriber envelope up into per-status counts, the
// comparable snapshot polling tasks diff between ticks. Rows with an absent
// or unrecognized status land in Unknown rather than being coerced.
func Summarize(env domain.Envelope) domain.StatusSummary {
	summary := domain.StatusSummary{Total: env.Count}
	for _, rec := range env.Data {
		status, ok := rec.String("status")
		if !ok {
			summary.Unknown++
			continue
		}
		switch strings.ToLower(status) {
		case "online":
			summary.Online++
		case "offline":
			summary.Offline++
		default:
			summary.Unknown++
		}
	}
	return summary
}
