package entities

import "time"

// RelationshipTypeCategory splits relationship types into authority-granting
// and notification-only kinds.
type RelationshipTypeCategory string

const (
	CategoryAuthorisation RelationshipTypeCategory = "AUTHORISATION"
	CategoryNotification  RelationshipTypeCategory = "NOTIFICATION"
)

// AttributeDomain is the value domain of a catalogued attribute name.
type AttributeDomain string

const (
	DomainString   AttributeDomain = "STRING"
	DomainBoolean  AttributeDomain = "BOOLEAN"
	DomainDate     AttributeDomain = "DATE"
	DomainSelect   AttributeDomain = "SELECT"
	DomainMarkdown AttributeDomain = "MARKDOWN"
)

// AttributeClassifier scopes who may edit an attribute. AGENCY_SERVICE
// attributes are editable only by agency users administering the
// attribute's category.
type AttributeClassifier string

const (
	ClassifierAgencyService AttributeClassifier = "AGENCY_SERVICE"
	ClassifierPermission    AttributeClassifier = "PERMISSION"
	ClassifierOther         AttributeClassifier = "OTHER"
)

// AttributeName is catalogue reference data for a relationship or role
// attribute: its value domain, edit classifier and, for agency-service
// attributes, the program category used for authority scoping.
type AttributeName struct {
	Code         string              `json:"code"`
	Domain       AttributeDomain     `json:"domain"`
	Classifier   AttributeClassifier `json:"classifier"`
	Category     string              `json:"category,omitempty"`
	DefaultValue string              `json:"default_value,omitempty"`
	StartAt      time.Time           `json:"start_date"`
	EndAt        *time.Time          `json:"end_date,omitempty"`
}

// ValidAt reports whether the attribute name is in date range.
func (a AttributeName) ValidAt(at time.Time) bool {
	if a.StartAt.After(at) {
		return false
	}
	return a.EndAt == nil || !a.EndAt.Before(at)
}

// RelationshipType is catalogue reference data for a kind of delegation.
type RelationshipType struct {
	Code     string                   `json:"code"`
	Category RelationshipTypeCategory `json:"category"`

	// Auto-accept flags decide the initial status of a new relationship:
	// a relationship initiated from the side whose flag is set starts
	// ACCEPTED instead of PENDING.
	AutoAcceptIfInitiatedFromSubject  bool `json:"auto_accept_if_initiated_from_subject"`
	AutoAcceptIfInitiatedFromDelegate bool `json:"auto_accept_if_initiated_from_delegate"`

	MinIdentityStrength   int `json:"min_identity_strength"`
	MinCredentialStrength int `json:"min_credential_strength"`

	// AttributeCodes is the set of attribute names this type permits.
	AttributeCodes []string `json:"attribute_codes,omitempty"`

	StartAt time.Time  `json:"start_date"`
	EndAt   *time.Time `json:"end_date,omitempty"`
}

// ValidAt reports whether the relationship type is in date range.
func (t RelationshipType) ValidAt(at time.Time) bool {
	if t.StartAt.After(at) {
		return false
	}
	return t.EndAt == nil || !t.EndAt.Before(at)
}

// AutoAcceptFor resolves the initial-status decision for the initiating side.
func (t RelationshipType) AutoAcceptFor(initiatedBy InitiatedBy) bool {
	if initiatedBy == InitiatedBySubject {
		return t.AutoAcceptIfInitiatedFromSubject
	}
	return t.AutoAcceptIfInitiatedFromDelegate
}
