// Package stats computes running counters over event slices for the
// dashboard and alert views. It never touches the store: callers hand it
// whatever the event repository returned, and the slice order is preserved.
package stats

import "github.com/vescom/vescom-api/internal/model"

// Summary is the one-pass aggregation of a filtered event set.
// UnauthorizedRate is kept unrounded; rounding happens at presentation.
type Summary struct {
	Total            int     `json:"total"`
	Authorized       int     `json:"authorized"`
	Unauthorized     int     `json:"unauthorized"`
	UnauthorizedRate float64 `json:"unauthorized_rate"`
}

// TypeFilter optionally restricts which events count toward the summary.
// The empty value means all types.
type TypeFilter string

const (
	FilterAll          TypeFilter = ""
	FilterAuthorized   TypeFilter = TypeFilter(model.AccessAuthorized)
	FilterUnauthorized TypeFilter = TypeFilter(model.AccessUnauthorized)
)

// Summarize counts events in a single linear pass. The input slice is read
// in the order given and never reordered. Authorized + Unauthorized always
// equals Total, and the rate is zero when nothing matched (no divide by
// zero on empty input).
func Summarize(events []model.Event, filter TypeFilter) Summary {
	var s Summary
	for _, ev := range events {
		if filter != FilterAll && TypeFilter(ev.AccessType) != filter {
			continue
		}
		s.Total++
		if ev.AccessType == model.AccessAuthorized {
			s.Authorized++
		} else {
			s.Unauthorized++
		}
	}
	if s.Total > 0 {
		s.UnauthorizedRate = float64(s.Unauthorized) / float64(s.Total)
	}
	return s
}
