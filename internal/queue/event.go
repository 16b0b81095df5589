// Package queue defines message payloads exchanged over the message broker.
package queue

// AccessAlert is published when an identification attempt is rejected.
// It carries enough information for downstream consumers to log, notify
// security staff, or feed analytics without querying the primary database.
type AccessAlert struct {
	EventID    uint64   `json:"event_id"`
	CameraID   *uint64  `json:"camera_id,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
	RiskTier   string   `json:"risk_tier"`
	Date       string   `json:"date,omitempty"`
	Time       string   `json:"time,omitempty"`
	AlertType  string   `json:"alert_type"` // currently always "Intrusion"
}
