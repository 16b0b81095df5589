package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/vescom/vescom-api/internal/model"
)

// EventRepo reads and appends rows of the append-only `access_events`
// table. There is deliberately no Update or Delete: events are immutable
// audit records.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// maxListLimit caps how many events a single query may return.
const maxListLimit = 500

// EventFilter narrows List results. Zero values mean "no filter".
// These are the store-side filters; date pruning for reports happens
// after the fetch, in the report package.
type EventFilter struct {
	Type     model.AccessType // "" = all types
	CameraID *uint64          // nil = all cameras
	Limit    int              // <=0 defaults to 100, capped at 500
}

// Insert appends one event and returns it re-read from the store so the
// caller sees the assigned id plus the server-side date and time.
// One insert, no retry: duplicate submissions of the same probe yield
// distinct events.
func (r *EventRepo) Insert(ctx context.Context, cameraID, personaID *uint64, accessType model.AccessType, similarity *float64) (model.Event, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO access_events (camera_id, persona_id, access_type, event_date, event_time, similarity) VALUES (?,?,?,CURRENT_DATE(),CURRENT_TIME(),?)",
		nullableID(cameraID), nullableID(personaID), string(accessType), nullableFloat(similarity))
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a single event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id, camera_id, persona_id, access_type, event_date, event_time, similarity FROM access_events WHERE id=? LIMIT 1", id)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrNotFound
	}
	return ev, err
}

// List returns the most recent events first (id DESC), honoring the
// store-side type/camera/limit filters. The returned order is what the
// aggregator and report pipeline preserve downstream.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	q := strings.Builder{}
	q.WriteString("SELECT id, camera_id, persona_id, access_type, event_date, event_time, similarity FROM access_events")
	args := []any{}
	where := []string{}
	if f.Type != "" {
		where = append(where, "access_type=?")
		args = append(args, string(f.Type))
	}
	if f.CameraID != nil {
		where = append(where, "camera_id=?")
		args = append(args, *f.CameraID)
	}
	if len(where) > 0 {
		q.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	q.WriteString(" ORDER BY id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.Event, 0, limit)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// InsertCapture records the stored probe image of an unauthorized attempt.
func (r *EventRepo) InsertCapture(ctx context.Context, eventID uint64, capturePath *string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO unauthorized_captures (event_id, capture_path, capture_date, capture_time) VALUES (?,?,CURRENT_DATE(),CURRENT_TIME())",
		eventID, nullableStr(capturePath))
	return err
}

// rowScanner lets scanEvent work for both QueryRow and Rows.
type rowScanner interface{ Scan(dest ...any) error }

func scanEvent(s rowScanner) (model.Event, error) {
	var (
		ev   model.Event
		cam  sql.NullInt64
		per  sql.NullInt64
		typ  string
		date sql.NullTime
		tm   sql.NullString
		sim  sql.NullFloat64
	)
	if err := s.Scan(&ev.ID, &cam, &per, &typ, &date, &tm, &sim); err != nil {
		return model.Event{}, err
	}
	ev.AccessType = model.AccessType(typ)
	if cam.Valid {
		v := uint64(cam.Int64)
		ev.CameraID = &v
	}
	if per.Valid {
		v := uint64(per.Int64)
		ev.PersonaID = &v
	}
	if date.Valid {
		// DATE columns arrive parsed (parseTime=true); reports and the
		// date-range filter work on the ISO string form.
		v := date.Time.Format("2006-01-02")
		ev.Date = &v
	}
	if tm.Valid {
		v := tm.String
		ev.Time = &v
	}
	if sim.Valid {
		v := sim.Float64
		ev.Similarity = &v
	}
	return ev, nil
}

func nullableID(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
