package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vescom/vescom-api/internal/model"
)

func adminRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "surname", "email", "phone", "password_hash", "active", "failed_attempts", "locked_until", "registered_at"})
}

func TestAdminCreateNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO admins").
		WithArgs("Ana", "Lopez", "ana@vescom.test", nil, "$2a$hash").
		WillReturnResult(sqlmock.NewResult(7, 1))

	repo := NewAdminRepo(db)
	a := model.Admin{Name: "Ana", Surname: "Lopez", Email: "  ANA@vescom.test ", PasswordHash: "$2a$hash"}
	if err := repo.Create(context.Background(), &a); err != nil {
		t.Fatal(err)
	}
	if a.ID != 7 {
		t.Fatalf("id = %d", a.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAdminCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO admins").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	repo := NewAdminRepo(db)
	a := model.Admin{Email: "dup@vescom.test", PasswordHash: "h"}
	if err := repo.Create(context.Background(), &a); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v", err)
	}
}

func TestAdminGetByEmailScansLockState(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	lockedUntil := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM admins WHERE email=").
		WithArgs("ops@vescom.test").
		WillReturnRows(adminRows().
			AddRow(2, "Ops", "Admin", "ops@vescom.test", nil, "$2a$hash", true, 2, lockedUntil, time.Now()))

	repo := NewAdminRepo(db)
	a, err := repo.GetByEmail(context.Background(), " OPS@vescom.test ")
	if err != nil {
		t.Fatal(err)
	}
	if a.FailedAttempts != 2 {
		t.Fatalf("failed attempts = %d", a.FailedAttempts)
	}
	if a.LockedUntil == nil || !a.LockedUntil.Equal(lockedUntil) {
		t.Fatalf("locked until = %v", a.LockedUntil)
	}
}

func TestAdminUpdateWithoutPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// No password_hash column in the statement when the hash is empty.
	mock.ExpectExec("UPDATE admins SET name=., surname=., email=., phone=. WHERE id=").
		WithArgs("Ana", "Lopez", "ana@vescom.test", nil, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAdminRepo(db)
	a := model.Admin{ID: 7, Name: "Ana", Surname: "Lopez", Email: "ana@vescom.test"}
	if err := repo.Update(context.Background(), &a); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAdminDeactivateMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE admins SET active=0 WHERE id=").
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewAdminRepo(db)
	if err := repo.Deactivate(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestAdminLoginFailureRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	until := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE admins SET failed_attempts=., locked_until=. WHERE id=").
		WithArgs(3, until, uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE admins SET failed_attempts=0, locked_until=NULL WHERE id=").
		WithArgs(uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAdminRepo(db)
	if err := repo.SetLoginFailure(context.Background(), 2, 3, &until); err != nil {
		t.Fatal(err)
	}
	if err := repo.ResetLoginFailures(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
