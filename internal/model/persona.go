package model

import "time"

// Persona roles accepted by the console.
const (
	RoleProfessor      = "Professor"
	RoleAdministrative = "Administrative"
	RoleResearcher     = "Researcher"
)

// Persona represents an authorized person as stored in the `personas`
// table. Unlike cameras and admins, personas are hard-deleted: removing one
// drops the row (events keep their nullable persona_id reference).
//
// Fields:
//  ID          – primary key identifier.
//  Name        – given name.
//  Surname     – family name(s).
//  Email       – contact email (optional).
//  Phone       – contact phone (optional).
//  CubicleID   – assigned cubicle, if any.
//  Role        – Professor, Administrative or Researcher.
//  FacePath    – path of the stored reference photo (nullable).
//  Enrolled    – whether a biometric template has been extracted for this
//                persona. Without it the recognizer can never match them.
//  RegisteredAt – creation timestamp.
type Persona struct {
	ID           uint64    `json:"id"`            // personas.id
	Name         string    `json:"name"`          // personas.name
	Surname      string    `json:"surname"`       // personas.surname
	Email        *string   `json:"email"`         // personas.email (nullable)
	Phone        *string   `json:"phone"`         // personas.phone (nullable)
	CubicleID    *uint64   `json:"cubicle_id"`    // personas.cubicle_id (nullable)
	Role         string    `json:"role"`          // personas.role
	FacePath     *string   `json:"face_path"`     // personas.face_path (nullable)
	Enrolled     bool      `json:"enrolled"`      // personas.enrolled
	RegisteredAt time.Time `json:"registered_at"` // personas.registered_at
}
