// Package report builds deterministic, exportable CSV audit trails from the
// event history. Filtering is two-staged on purpose: the store applies
// type/camera/limit, then the date range prunes the fetched window. The
// stages must stay in this order so exported numbers match what the console
// has always shown.
package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vescom/vescom-api/internal/model"
	"github.com/vescom/vescom-api/internal/repository"
)

// Filters are the report parameters. DateFrom and DateTo are required,
// inclusive, ISO formatted (YYYY-MM-DD). Type empty means all access types;
// CameraID nil means all cameras. MaxRecords bounds the stage-one fetch.
type Filters struct {
	DateFrom   string
	DateTo     string
	Type       model.AccessType
	CameraID   *uint64
	MaxRecords int
}

// ErrDateRange is returned when one of the required bounds is missing or
// not an ISO date.
var ErrDateRange = errors.New("date_from and date_to are required as YYYY-MM-DD")

// EventSource is the slice of the event repository the generator needs.
type EventSource interface {
	List(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
}

// Generator produces report data from an event source.
type Generator struct {
	Events EventSource
}

func NewGenerator(events EventSource) *Generator { return &Generator{Events: events} }

// Generate runs the two-stage filter pipeline and returns the pruned event
// slice in store order (most recent first).
//
// Stage 1 fetches up to MaxRecords events with type and camera filters
// applied at the store. Stage 2 drops events dated outside
// [DateFrom, DateTo]; events with no date are never dropped. There is no
// re-fetch when stage 2 removes rows, so the result can hold fewer than
// MaxRecords even when older matching events exist outside the fetched
// window. That is a documented limitation of the report, not a bug.
func (g *Generator) Generate(ctx context.Context, f Filters) ([]model.Event, error) {
	if !isISODate(f.DateFrom) || !isISODate(f.DateTo) {
		return nil, ErrDateRange
	}
	fetched, err := g.Events.List(ctx, repository.EventFilter{
		Type:     f.Type,
		CameraID: f.CameraID,
		Limit:    f.MaxRecords,
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(fetched))
	for _, ev := range fetched {
		if ev.Date != nil && (*ev.Date < f.DateFrom || *ev.Date > f.DateTo) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// Filename is the export artifact naming convention.
func Filename(f Filters) string {
	return fmt.Sprintf("reporte_vescom_%s_%s.csv", f.DateFrom, f.DateTo)
}

// csvHeader is the stable field order of the export. Changing it breaks
// downstream spreadsheets; don't.
var csvHeader = []string{"Event ID", "Access Type", "Date", "Time", "Camera ID", "Persona ID", "Similarity"}

// CSV serializes events in the given order: fields comma-joined, rows
// newline-joined, header first, no trailing newline. Absent camera/persona
// ids and similarities render as empty strings; similarity is a percentage
// with exactly two decimals and a trailing '%'.
func CSV(events []model.Event) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	for _, ev := range events {
		b.WriteByte('\n')
		b.WriteString(row(ev))
	}
	return b.String()
}

func row(ev model.Event) string {
	fields := []string{
		strconv.FormatUint(ev.ID, 10),
		string(ev.AccessType),
		deref(ev.Date),
		deref(ev.Time),
		formatID(ev.CameraID),
		formatID(ev.PersonaID),
		formatSimilarity(ev.Similarity),
	}
	return strings.Join(fields, ",")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatID(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}

func formatSimilarity(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v*100, 'f', 2, 64) + "%"
}

// isISODate accepts YYYY-MM-DD with numeric parts. Lexicographic comparison
// of dates in this shape matches chronological order, which is what the
// pruning stage relies on.
func isISODate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
