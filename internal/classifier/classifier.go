// Package classifier turns raw identification results from the recognizer
// into canonical access events: it owns the authorization decision threshold
// and the risk tiering applied to rejected attempts.
package classifier

import "github.com/vescom/vescom-api/internal/model"

// DecisionThreshold is the similarity cutoff above which a matched probe is
// treated as the enrolled persona. With normalized ArcFace embeddings,
// values above 0.40 indicate the same person.
const DecisionThreshold = 0.40

// RiskTier buckets an unauthorized attempt for operator triage. A low
// similarity means the probe looked nothing like anyone enrolled, which is
// the riskier case at a controlled door.
type RiskTier string

const (
	TierHigh    RiskTier = "High"    // similarity < 0.20
	TierMedium  RiskTier = "Medium"  // 0.20 <= similarity < 0.35
	TierLow     RiskTier = "Low"     // similarity >= 0.35
	TierUnknown RiskTier = "Unknown" // no comparable template
)

// Tier boundaries for unauthorized events.
const (
	tierHighBelow   = 0.20
	tierMediumBelow = 0.35
)

// Decide applies the authorization rule: a probe is authorized iff it
// matched an enrolled persona and its similarity reached the decision
// threshold. Everything else, including probes with no comparable template,
// is unauthorized.
func Decide(personaID *uint64, similarity *float64) model.AccessType {
	if personaID != nil && similarity != nil && *similarity >= DecisionThreshold {
		return model.AccessAuthorized
	}
	return model.AccessUnauthorized
}

// Tier computes the risk tier of an unauthorized attempt. It is a pure
// function of the similarity, evaluated at read time; events never store a
// tier column. Lower bounds are exclusive of the tier below (`<`, not `<=`).
func Tier(similarity *float64) RiskTier {
	if similarity == nil {
		return TierUnknown
	}
	s := *similarity
	switch {
	case s < tierHighBelow:
		return TierHigh
	case s < tierMediumBelow:
		return TierMedium
	default:
		return TierLow
	}
}
