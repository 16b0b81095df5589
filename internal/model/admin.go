package model

import "time"

// Admin represents a console administrator as stored in the `admins` table.
// Admins are deactivated rather than deleted, and the credential hash is
// never serialized back to clients.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – given name.
//  Surname        – family name(s).
//  Email          – unique login email.
//  Phone          – contact phone (optional).
//  PasswordHash   – bcrypt hash of the credential; json:"-" keeps it private.
//  Active         – whether the account may log in.
//  FailedAttempts – consecutive failed login attempts.
//  LockedUntil    – when set and in the future, logins are rejected.
//  RegisteredAt   – creation timestamp.
type Admin struct {
	ID             uint64     `json:"id"`         // admins.id
	Name           string     `json:"name"`       // admins.name
	Surname        string     `json:"surname"`    // admins.surname
	Email          string     `json:"email"`      // admins.email (unique)
	Phone          *string    `json:"phone"`      // admins.phone (nullable)
	PasswordHash   string     `json:"-"`          // admins.password_hash
	Active         bool       `json:"active"`     // admins.active
	FailedAttempts int        `json:"-"`          // admins.failed_attempts
	LockedUntil    *time.Time `json:"-"`          // admins.locked_until (nullable)
	RegisteredAt   time.Time  `json:"registered_at"` // admins.registered_at
}
