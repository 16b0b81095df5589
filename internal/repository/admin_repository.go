package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vescom/vescom-api/internal/model"
)

// AdminRepo manages the `admins` table. Admins authenticate the console;
// like cameras they are deactivated rather than deleted so the audit trail
// of who administered the system survives.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

const adminCols = "id, name, surname, email, phone, password_hash, active, failed_attempts, locked_until, registered_at"

// Create inserts an admin with an already-hashed credential and fills in
// the assigned ID. Duplicate emails map to ErrEmailExists.
func (r *AdminRepo) Create(ctx context.Context, a *model.Admin) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admins (name, surname, email, phone, password_hash) VALUES (?,?,?,?,?)",
		a.Name, a.Surname, strings.ToLower(strings.TrimSpace(a.Email)), nullableStr(a.Phone), a.PasswordHash)
	if err != nil {
		// MySQL duplicate-key error code
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// List returns all admins ordered by id.
func (r *AdminRepo) List(ctx context.Context) ([]model.Admin, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+adminCols+" FROM admins ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByID fetches one admin.
func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (model.Admin, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+adminCols+" FROM admins WHERE id=? LIMIT 1", id)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return model.Admin{}, ErrNotFound
	}
	return a, err
}

// GetByEmail fetches one admin by normalized email.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (model.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx, "SELECT "+adminCols+" FROM admins WHERE email=? LIMIT 1", email)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return model.Admin{}, ErrNotFound
	}
	return a, err
}

// Update overwrites profile fields and, when PasswordHash is non-empty,
// the stored credential hash.
func (r *AdminRepo) Update(ctx context.Context, a *model.Admin) error {
	var res sql.Result
	var err error
	if a.PasswordHash != "" {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE admins SET name=?, surname=?, email=?, phone=?, password_hash=? WHERE id=?",
			a.Name, a.Surname, strings.ToLower(strings.TrimSpace(a.Email)), nullableStr(a.Phone), a.PasswordHash, a.ID)
	} else {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE admins SET name=?, surname=?, email=?, phone=? WHERE id=?",
			a.Name, a.Surname, strings.ToLower(strings.TrimSpace(a.Email)), nullableStr(a.Phone), a.ID)
	}
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate clears the active flag. The caller is responsible for the
// self-deactivation check; the repository only knows about rows.
func (r *AdminRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE admins SET active=0 WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLoginFailure stores the failed-attempt counter and optional lock
// expiry after a bad credential.
func (r *AdminRepo) SetLoginFailure(ctx context.Context, id uint64, attempts int, lockedUntil *time.Time) error {
	var until any
	if lockedUntil != nil {
		until = lockedUntil.UTC()
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET failed_attempts=?, locked_until=? WHERE id=?", attempts, until, id)
	return err
}

// ResetLoginFailures clears lockout state after a successful login.
func (r *AdminRepo) ResetLoginFailures(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET failed_attempts=0, locked_until=NULL WHERE id=?", id)
	return err
}

func scanAdmin(s rowScanner) (model.Admin, error) {
	var (
		a      model.Admin
		phone  sql.NullString
		locked sql.NullTime
	)
	if err := s.Scan(&a.ID, &a.Name, &a.Surname, &a.Email, &phone, &a.PasswordHash, &a.Active, &a.FailedAttempts, &locked, &a.RegisteredAt); err != nil {
		return model.Admin{}, err
	}
	if phone.Valid {
		v := phone.String
		a.Phone = &v
	}
	if locked.Valid {
		v := locked.Time
		a.LockedUntil = &v
	}
	return a, nil
}
