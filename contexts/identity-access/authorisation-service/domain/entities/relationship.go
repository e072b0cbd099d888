package entities

import (
	"strings"
	"time"
)

// RelationshipStatus is the lifecycle state of a delegation edge.
// Only PENDING, ACCEPTED and DECLINED are produced by core operations; the
// administrative states exist for records written by external tooling.
type RelationshipStatus string

const (
	RelationshipPending   RelationshipStatus = "PENDING"
	RelationshipAccepted  RelationshipStatus = "ACCEPTED"
	RelationshipDeclined  RelationshipStatus = "DECLINED"
	RelationshipCancelled RelationshipStatus = "CANCELLED"
	RelationshipRevoked   RelationshipStatus = "REVOKED"
	RelationshipSuspended RelationshipStatus = "SUSPENDED"
	RelationshipDeleted   RelationshipStatus = "DELETED"
)

// InitiatedBy records which side of the relationship created it.
type InitiatedBy string

const (
	InitiatedBySubject  InitiatedBy = "SUBJECT"
	InitiatedByDelegate InitiatedBy = "DELEGATE"
)

// RelationshipAttribute is a typed (name, value) pair attached to a
// relationship. Name metadata is copied from the attribute catalog at the
// time the attribute is materialised.
type RelationshipAttribute struct {
	NameCode   string              `json:"name_code"`
	Domain     AttributeDomain     `json:"domain"`
	Classifier AttributeClassifier `json:"classifier"`
	Category   string              `json:"category,omitempty"`
	Value      string              `json:"value"`
}

// Relationship is a directed delegation edge from subject (the party being
// acted for) to delegate (the party authorised to act). Never physically
// deleted; status carries the terminal state.
type Relationship struct {
	RelationshipID  string             `json:"relationship_id"`
	TypeCode        string             `json:"relationship_type"`
	SubjectPartyID  string             `json:"subject_party_id"`
	DelegatePartyID string             `json:"delegate_party_id"`
	Status          RelationshipStatus `json:"status"`
	InitiatedBy     InitiatedBy        `json:"initiated_by"`

	// InvitationIDValue is the id value of the temporary INVITATION_CODE
	// identity created for an invitation-initiated relationship.
	InvitationIDValue string `json:"invitation_id_value,omitempty"`

	StartAt time.Time  `json:"start_timestamp"`
	EndAt   *time.Time `json:"end_timestamp,omitempty"`
	// EndEventAt is the wall-clock time the end was recorded, distinct from
	// the effective end date. Set if and only if EndAt is set.
	EndEventAt *time.Time `json:"end_event_timestamp,omitempty"`

	Attributes []RelationshipAttribute `json:"attributes,omitempty"`

	// SubjectSearchText and DelegateSearchText are denormalised display
	// name / identifier strings recomputed before each save and used by
	// case-insensitive substring search.
	SubjectSearchText  string `json:"-"`
	DelegateSearchText string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidAt reports whether the relationship's validity window covers the
// given instant: start <= at and (no end or end >= at).
func (r Relationship) ValidAt(at time.Time) bool {
	if r.StartAt.After(at) {
		return false
	}
	return r.EndAt == nil || !r.EndAt.Before(at)
}

// SetEnd records an effective end date together with the wall-clock event
// time, keeping the two-fields-or-neither invariant.
func (r *Relationship) SetEnd(end *time.Time, eventAt time.Time) {
	if end == nil {
		r.EndAt = nil
		r.EndEventAt = nil
		return
	}
	endCopy := *end
	r.EndAt = &endCopy
	r.EndEventAt = &eventAt
}

// MatchesSearchText reports a case-insensitive substring match against the
// denormalised subject/delegate search strings.
func (r Relationship) MatchesSearchText(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.SubjectSearchText), text) ||
		strings.Contains(strings.ToLower(r.DelegateSearchText), text)
}
