package repository

import (
	"context"
	"database/sql"

	"github.com/vescom/vescom-api/internal/model"
)

// CameraRepo manages the `cameras` table. Cameras are soft-deleted: once
// events reference a camera it can only be deactivated, never dropped.
type CameraRepo struct{ DB *sql.DB }

func NewCameraRepo(db *sql.DB) *CameraRepo { return &CameraRepo{DB: db} }

const cameraCols = "id, name, ip_address, location, cubicle_id, active, registered_at"

// Create inserts a camera and fills in its assigned ID.
func (r *CameraRepo) Create(ctx context.Context, cam *model.Camera) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO cameras (name, ip_address, location, cubicle_id, active) VALUES (?,?,?,?,?)",
		cam.Name, nullableStr(cam.IPAddress), nullableStr(cam.Location), nullableID(cam.CubicleID), cam.Active)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cam.ID = uint64(id)
	return nil
}

// List returns all cameras ordered by id, active or not.
func (r *CameraRepo) List(ctx context.Context) ([]model.Camera, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+cameraCols+" FROM cameras ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Camera
	for rows.Next() {
		cam, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cam)
	}
	return out, rows.Err()
}

// GetByID fetches one camera.
func (r *CameraRepo) GetByID(ctx context.Context, id uint64) (model.Camera, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+cameraCols+" FROM cameras WHERE id=? LIMIT 1", id)
	cam, err := scanCamera(row)
	if err == sql.ErrNoRows {
		return model.Camera{}, ErrNotFound
	}
	return cam, err
}

// Update overwrites the mutable camera fields.
func (r *CameraRepo) Update(ctx context.Context, cam *model.Camera) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE cameras SET name=?, ip_address=?, location=?, cubicle_id=?, active=? WHERE id=?",
		cam.Name, nullableStr(cam.IPAddress), nullableStr(cam.Location), nullableID(cam.CubicleID), cam.Active, cam.ID)
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

// Deactivate clears the active flag. Rows are never removed because events
// reference cameras by id.
func (r *CameraRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE cameras SET active=0 WHERE id=?", id)
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

func scanCamera(s rowScanner) (model.Camera, error) {
	var (
		cam model.Camera
		ip  sql.NullString
		loc sql.NullString
		cub sql.NullInt64
	)
	if err := s.Scan(&cam.ID, &cam.Name, &ip, &loc, &cub, &cam.Active, &cam.RegisteredAt); err != nil {
		return model.Camera{}, err
	}
	if ip.Valid {
		v := ip.String
		cam.IPAddress = &v
	}
	if loc.Valid {
		v := loc.String
		cam.Location = &v
	}
	if cub.Valid {
		v := uint64(cub.Int64)
		cam.CubicleID = &v
	}
	return cam, nil
}
