package model

import "time"

// Camera mirrors the `cameras` table. Cameras referenced by events are never
// hard-deleted, only marked inactive, so historical events keep resolving.
type Camera struct {
	ID           uint64    `json:"id"`            // cameras.id
	Name         string    `json:"name"`          // cameras.name
	IPAddress    *string   `json:"ip_address"`    // cameras.ip_address (nullable)
	Location     *string   `json:"location"`      // cameras.location (nullable)
	CubicleID    *uint64   `json:"cubicle_id"`    // cameras.cubicle_id (nullable)
	Active       bool      `json:"active"`        // cameras.active
	RegisteredAt time.Time `json:"registered_at"` // cameras.registered_at
}
