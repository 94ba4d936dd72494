package gateway

import (
	"time"

	"dexscan/internal/session"
)

// BuildView renders the full viewer state of one session. derive, when set,
// receives the filter/sort latency.
func BuildView(s *session.Coordinator, derive func(time.Duration)) ViewPayload {
	start := time.Now()
	view := s.CurrentView()
	if derive != nil {
		derive(time.Since(start))
	}

	rows := make([]TokenRow, len(view))
	for i, t := range view {
		rows[i] = NewTokenRow(t)
	}

	trending := s.Trending()
	items := make([]TrendingItem, len(trending))
	for i, t := range trending {
		items[i] = NewTrendingItem(t)
	}

	intent := s.Intent()
	out := ViewPayload{
		Intent:   intent,
		Rows:     rows,
		Total:    len(rows),
		Trending: items,
	}
	if tok, ok := s.Selected(); ok {
		if d, ok := s.Detail(); ok {
			detail := NewDetailOut(tok, intent.Timeframe, d)
			out.Detail = &detail
		}
	}
	return out
}
