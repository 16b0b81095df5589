package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vescom/vescom-api/internal/model"
)

func uptr(v uint64) *uint64   { return &v }
func fptr(v float64) *float64 { return &v }

func eventColumns() []string {
	return []string{"id", "camera_id", "persona_id", "access_type", "event_date", "event_time", "similarity"}
}

func TestEventInsertRereadsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO access_events").
		WithArgs(uint64(3), nil, "Unauthorized", 0.3012).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT id, camera_id, persona_id, access_type, event_date, event_time, similarity FROM access_events WHERE id=").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow(42, 3, nil, "Unauthorized", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), "08:15:00", 0.3012))

	repo := NewEventRepo(db)
	ev, err := repo.Insert(context.Background(), uptr(3), nil, model.AccessUnauthorized, fptr(0.3012))
	if err != nil {
		t.Fatal(err)
	}
	if ev.ID != 42 {
		t.Fatalf("id = %d", ev.ID)
	}
	if ev.Date == nil || *ev.Date != "2025-01-02" {
		t.Fatalf("date = %v", ev.Date)
	}
	if ev.Time == nil || *ev.Time != "08:15:00" {
		t.Fatalf("time = %v", ev.Time)
	}
	if ev.PersonaID != nil {
		t.Fatal("persona id should stay nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEventGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, camera_id, persona_id, access_type, event_date, event_time, similarity FROM access_events WHERE id=").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(eventColumns()))

	repo := NewEventRepo(db)
	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestEventListFiltersAndOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM access_events WHERE access_type=. AND camera_id=. ORDER BY id DESC LIMIT").
		WithArgs("Unauthorized", uint64(2), 50).
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow(8, 2, nil, "Unauthorized", nil, nil, 0.12).
			AddRow(5, 2, nil, "Unauthorized", nil, nil, nil))

	repo := NewEventRepo(db)
	events, err := repo.List(context.Background(), EventFilter{
		Type:     model.AccessUnauthorized,
		CameraID: uptr(2),
		Limit:    50,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].ID != 8 || events[1].ID != 5 {
		t.Fatalf("events = %+v", events)
	}
	if events[1].Similarity != nil {
		t.Fatal("null similarity must stay nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEventListLimitBounds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// No limit falls back to 100; an oversized one is capped at 500.
	mock.ExpectQuery("SELECT .+ FROM access_events ORDER BY id DESC LIMIT").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(eventColumns()))
	mock.ExpectQuery("SELECT .+ FROM access_events ORDER BY id DESC LIMIT").
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows(eventColumns()))

	repo := NewEventRepo(db)
	if _, err := repo.List(context.Background(), EventFilter{}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.List(context.Background(), EventFilter{Limit: 5000}); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInsertCapture(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO unauthorized_captures").
		WithArgs(uint64(42), "uploads/captures/abc.jpg").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewEventRepo(db)
	path := "uploads/captures/abc.jpg"
	if err := repo.InsertCapture(context.Background(), 42, &path); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
