package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/vescom/vescom-api/internal/config"
	"github.com/vescom/vescom-api/internal/repository"
	"github.com/vescom/vescom-api/internal/utils"
)

func testCfg() config.Config {
	return config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, BcryptCost: 4}
}

func adminRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "surname", "email", "phone", "password_hash", "active", "failed_attempts", "locked_until", "registered_at"})
}

func newLoginCtx(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLoginSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, err := utils.HashPassword("hunter22", 4)
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectQuery("SELECT .+ FROM admins WHERE email=").
		WithArgs("ops@vescom.test").
		WillReturnRows(adminRows().
			AddRow(2, "Ops", "Admin", "ops@vescom.test", nil, hash, true, 1, nil, time.Now()))
	mock.ExpectExec("UPDATE admins SET failed_attempts=0, locked_until=NULL WHERE id=").
		WithArgs(uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewAuthHandler(testCfg(), repository.NewAdminRepo(db))
	c, rec := newLoginCtx(t, `{"email":" OPS@vescom.test ","password":"hunter22"}`)
	if err := h.Login(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Fatalf("resp = %+v", resp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLoginUnknownEmailHidesExistence(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM admins WHERE email=").
		WithArgs("ghost@vescom.test").
		WillReturnRows(adminRows())

	h := NewAuthHandler(testCfg(), repository.NewAdminRepo(db))
	c, rec := newLoginCtx(t, `{"email":"ghost@vescom.test","password":"whatever"}`)
	if err := h.Login(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "not found") {
		t.Fatalf("response leaks account existence: %s", rec.Body.String())
	}
}

func TestLoginThirdFailureLocksAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, err := utils.HashPassword("right", 4)
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectQuery("SELECT .+ FROM admins WHERE email=").
		WithArgs("ops@vescom.test").
		WillReturnRows(adminRows().
			AddRow(2, "Ops", "Admin", "ops@vescom.test", nil, hash, true, 2, nil, time.Now()))
	// Counter resets to zero once the lock timestamp is written.
	mock.ExpectExec("UPDATE admins SET failed_attempts=., locked_until=. WHERE id=").
		WithArgs(0, sqlmock.AnyArg(), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewAuthHandler(testCfg(), repository.NewAdminRepo(db))
	c, rec := newLoginCtx(t, `{"email":"ops@vescom.test","password":"wrong"}`)
	if err := h.Login(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "locked") {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLoginWhileLocked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	until := time.Now().UTC().Add(3 * time.Minute)
	mock.ExpectQuery("SELECT .+ FROM admins WHERE email=").
		WithArgs("ops@vescom.test").
		WillReturnRows(adminRows().
			AddRow(2, "Ops", "Admin", "ops@vescom.test", nil, "$2a$hash", true, 0, until, time.Now()))

	h := NewAuthHandler(testCfg(), repository.NewAdminRepo(db))
	c, rec := newLoginCtx(t, `{"email":"ops@vescom.test","password":"right"}`)
	if err := h.Login(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "retry in") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM admins WHERE email=").
		WithArgs("old@vescom.test").
		WillReturnRows(adminRows().
			AddRow(3, "Old", "Admin", "old@vescom.test", nil, "$2a$hash", false, 0, nil, time.Now()))

	h := NewAuthHandler(testCfg(), repository.NewAdminRepo(db))
	c, rec := newLoginCtx(t, `{"email":"old@vescom.test","password":"x"}`)
	if err := h.Login(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeactivateAdminSelf(t *testing.T) {
	// No DB expectations: the self-check fires before any query.
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/auth/admins/5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Set("admin_id", uint64(5))

	h := NewAuthHandler(testCfg(), repository.NewAdminRepo(db))
	if err := h.DeactivateAdmin(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeactivateAdminOther(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE admins SET active=0 WHERE id=").
		WithArgs(uint64(6)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/auth/admins/6", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("6")
	c.Set("admin_id", uint64(5))

	h := NewAuthHandler(testCfg(), repository.NewAdminRepo(db))
	if err := h.DeactivateAdmin(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
