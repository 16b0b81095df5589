package repository

import (
	"context"
	"database/sql"

	"github.com/vescom/vescom-api/internal/model"
)

// PersonaRepo manages the `personas` table. Personas are the one entity
// with hard deletes: dropping a row removes the person from the enrolled
// population while past events keep their nullable reference.
type PersonaRepo struct{ DB *sql.DB }

func NewPersonaRepo(db *sql.DB) *PersonaRepo { return &PersonaRepo{DB: db} }

const personaCols = "id, name, surname, email, phone, cubicle_id, role, face_path, enrolled, registered_at"

// Create inserts a persona and fills in its assigned ID.
func (r *PersonaRepo) Create(ctx context.Context, p *model.Persona) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO personas (name, surname, email, phone, cubicle_id, role) VALUES (?,?,?,?,?,?)",
		p.Name, p.Surname, nullableStr(p.Email), nullableStr(p.Phone), nullableID(p.CubicleID), p.Role)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// List returns all personas ordered by id.
func (r *PersonaRepo) List(ctx context.Context) ([]model.Persona, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+personaCols+" FROM personas ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches one persona.
func (r *PersonaRepo) GetByID(ctx context.Context, id uint64) (model.Persona, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+personaCols+" FROM personas WHERE id=? LIMIT 1", id)
	p, err := scanPersona(row)
	if err == sql.ErrNoRows {
		return model.Persona{}, ErrNotFound
	}
	return p, err
}

// Update overwrites the mutable persona fields.
func (r *PersonaRepo) Update(ctx context.Context, p *model.Persona) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE personas SET name=?, surname=?, email=?, phone=?, cubicle_id=?, role=? WHERE id=?",
		p.Name, p.Surname, nullableStr(p.Email), nullableStr(p.Phone), nullableID(p.CubicleID), p.Role, p.ID)
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

// SetFace records the stored reference photo path and flips the enrollment
// flag; the biometric template itself lives in the recognition service.
func (r *PersonaRepo) SetFace(ctx context.Context, id uint64, facePath string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE personas SET face_path=?, enrolled=1 WHERE id=?", facePath, id)
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

// Delete hard-deletes a persona.
func (r *PersonaRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM personas WHERE id=?", id)
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

func scanPersona(s rowScanner) (model.Persona, error) {
	var (
		p     model.Persona
		email sql.NullString
		phone sql.NullString
		cub   sql.NullInt64
		face  sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Surname, &email, &phone, &cub, &p.Role, &face, &p.Enrolled, &p.RegisteredAt); err != nil {
		return model.Persona{}, err
	}
	if email.Valid {
		v := email.String
		p.Email = &v
	}
	if phone.Valid {
		v := phone.String
		p.Phone = &v
	}
	if cub.Valid {
		v := uint64(cub.Int64)
		p.CubicleID = &v
	}
	if face.Valid {
		v := face.String
		p.FacePath = &v
	}
	return p, nil
}
