package model

// AccessType classifies the outcome of an identification attempt.
type AccessType string

const (
	AccessAuthorized   AccessType = "Authorized"
	AccessUnauthorized AccessType = "Unauthorized"
)

// Event mirrors the `access_events` table. Events are append-only: once a
// row is written it is never updated or deleted, so the audit history stays
// intact even when the referenced persona or camera goes away.
//
// Fields:
//  ID         – primary key, monotonically assigned by the store.
//  CameraID   – camera that captured the frame (nullable).
//  PersonaID  – best-matching enrolled persona, only set when authorized (nullable).
//  AccessType – "Authorized" or "Unauthorized".
//  Date       – event date as an ISO string (YYYY-MM-DD), nullable.
//  Time       – event time as HH:MM:SS, nullable.
//  Similarity – cosine similarity of the probe in [0,1]; nil means there was
//               no comparable template.
type Event struct {
	ID         uint64     `json:"id"`          // access_events.id
	CameraID   *uint64    `json:"camera_id"`   // access_events.camera_id (nullable)
	PersonaID  *uint64    `json:"persona_id"`  // access_events.persona_id (nullable)
	AccessType AccessType `json:"access_type"` // access_events.access_type
	Date       *string    `json:"date"`        // access_events.event_date (nullable)
	Time       *string    `json:"time"`        // access_events.event_time (nullable)
	Similarity *float64   `json:"similarity"`  // access_events.similarity (nullable)
}

// UnauthorizedCapture mirrors the `unauthorized_captures` table. Whenever an
// identification is rejected the probe image is kept on disk so operators can
// review who tried to get in.
type UnauthorizedCapture struct {
	ID          uint64  `json:"id"`           // unauthorized_captures.id
	EventID     uint64  `json:"event_id"`     // unauthorized_captures.event_id
	CapturePath *string `json:"capture_path"` // unauthorized_captures.capture_path (nullable)
	Date        *string `json:"date"`         // unauthorized_captures.capture_date (nullable)
	Time        *string `json:"time"`         // unauthorized_captures.capture_time (nullable)
}
