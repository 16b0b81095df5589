package classifier

import (
	"context"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vescom/vescom-api/internal/model"
	"github.com/vescom/vescom-api/internal/obs"
	"github.com/vescom/vescom-api/internal/queue"
	"github.com/vescom/vescom-api/internal/recognizer"
)

// EventStore is the slice of the event repository the service appends to.
type EventStore interface {
	Insert(ctx context.Context, cameraID, personaID *uint64, accessType model.AccessType, similarity *float64) (model.Event, error)
	InsertCapture(ctx context.Context, eventID uint64, capturePath *string) error
}

// PersonaSource resolves the matched persona's display fields for
// authorized results.
type PersonaSource interface {
	GetByID(ctx context.Context, id uint64) (model.Persona, error)
}

// AlertPublisher pushes intrusion alerts to the message broker. Publish
// failures must never fail the identification itself.
type AlertPublisher interface {
	PublishAccessAlert(ctx context.Context, alert queue.AccessAlert) error
}

// Attempt is one identification submission: the probe image plus the
// capturing camera, if known.
type Attempt struct {
	Image    []byte
	CameraID *uint64
}

// Result is what the console shows after an identification. Persona fields
// are only populated for authorized results; RiskTier only for
// unauthorized ones.
type Result struct {
	AccessType model.AccessType `json:"access_type"`
	Similarity *float64         `json:"similarity"`
	PersonaID  *uint64          `json:"persona_id,omitempty"`
	Name       *string          `json:"name,omitempty"`
	Surname    *string          `json:"surname,omitempty"`
	RiskTier   string           `json:"risk_tier,omitempty"`
	EventID    uint64           `json:"event_id"`
}

// Service runs the identification pipeline: recognize, decide, append one
// event, raise an alert when rejected.
type Service struct {
	Recognizer recognizer.Recognizer
	Events     EventStore
	Personas   PersonaSource
	Alerts     AlertPublisher
	CaptureDir string // probes of rejected attempts are kept here; empty disables storage
}

func NewService(rec recognizer.Recognizer, events EventStore, personas PersonaSource, alerts AlertPublisher, captureDir string) *Service {
	return &Service{Recognizer: rec, Events: events, Personas: personas, Alerts: alerts, CaptureDir: captureDir}
}

// Identify classifies one probe and appends the resulting event. The event
// insert happens exactly once with no retry; submitting the same probe
// twice produces two distinct events, which is why callers hold a
// single-flight guard per actor.
func (s *Service) Identify(ctx context.Context, att Attempt) (Result, error) {
	match, err := s.Recognizer.Identify(ctx, att.Image)
	if err != nil {
		return Result{}, err
	}

	// The decision uses the raw score; rounding is storage formatting and
	// must not nudge a below-threshold probe over the line.
	accessType := Decide(match.PersonaID, match.Similarity)
	similarity := roundSimilarity(match.Similarity)

	// The event only references a persona when the decision is Authorized;
	// a below-threshold match is recorded as an anonymous attempt.
	var eventPersona *uint64
	if accessType == model.AccessAuthorized {
		eventPersona = match.PersonaID
	}

	ev, err := s.Events.Insert(ctx, att.CameraID, eventPersona, accessType, similarity)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		AccessType: accessType,
		Similarity: similarity,
		EventID:    ev.ID,
	}

	tier := ""
	if accessType == model.AccessUnauthorized {
		tier = string(Tier(similarity))
		res.RiskTier = tier
		s.recordRejection(ctx, ev, att.Image, tier)
	} else if match.PersonaID != nil {
		res.PersonaID = match.PersonaID
		if p, err := s.Personas.GetByID(ctx, *match.PersonaID); err == nil {
			res.Name = &p.Name
			res.Surname = &p.Surname
		}
	}

	obs.CountIdentification(string(accessType), tier)
	return res, nil
}

// recordRejection stores the probe image and capture row and publishes the
// intrusion alert. All of it is best-effort: the event is already written
// and the caller gets its result regardless.
func (s *Service) recordRejection(ctx context.Context, ev model.Event, image []byte, tier string) {
	capturePath := s.saveCapture(image)
	if err := s.Events.InsertCapture(ctx, ev.ID, capturePath); err != nil {
		log.Printf("classifier: capture insert failed for event %d: %v", ev.ID, err)
	}
	if s.Alerts == nil {
		return
	}
	alert := queue.AccessAlert{
		EventID:    ev.ID,
		CameraID:   ev.CameraID,
		Similarity: ev.Similarity,
		RiskTier:   tier,
		AlertType:  "Intrusion",
	}
	if ev.Date != nil {
		alert.Date = *ev.Date
	}
	if ev.Time != nil {
		alert.Time = *ev.Time
	}
	if err := s.Alerts.PublishAccessAlert(ctx, alert); err != nil {
		log.Printf("classifier: alert publish failed for event %d: %v", ev.ID, err)
	}
}

// saveCapture writes the probe to the capture directory under a random
// name and returns the path, or nil when storage is disabled or fails.
func (s *Service) saveCapture(image []byte) *string {
	if s.CaptureDir == "" || len(image) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.CaptureDir, 0o755); err != nil {
		log.Printf("classifier: capture dir: %v", err)
		return nil
	}
	path := filepath.Join(s.CaptureDir, uuid.NewString()+".jpg")
	if err := os.WriteFile(path, image, 0o644); err != nil {
		log.Printf("classifier: capture write: %v", err)
		return nil
	}
	return &path
}

// roundSimilarity keeps four decimals, matching what the store has always
// held for similarity scores.
func roundSimilarity(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*10000) / 10000
	return &r
}
