package entities

import "time"

// RoleStatus is the lifecycle state of a role grant.
type RoleStatus string

const (
	RoleActive    RoleStatus = "ACTIVE"
	RoleSuspended RoleStatus = "SUSPENDED"
	RoleRemoved   RoleStatus = "REMOVED"
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

// AttributeName is catalogue reference data for a role attribute.
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

// RoleType is catalogue reference data for a kind of role grant.
type RoleType struct {
	Code    string     `json:"code"`
	StartAt time.Time  `json:"start_date"`
	EndAt   *time.Time `json:"end_date,omitempty"`
}

// ValidAt reports whether the role type is in date range.
func (t RoleType) ValidAt(at time.Time) bool {
	if t.StartAt.After(at) {
		return false
	}
	return t.EndAt == nil || !t.EndAt.Before(at)
}

// RoleAttribute is a typed (name, value) pair held by a role. Name metadata
// is copied from the attribute catalog when the attribute is materialised.
// An attribute with a past EndAt is expired and no longer counts as an
// active grant.
type RoleAttribute struct {
	NameCode   string              `json:"name_code"`
	Domain     AttributeDomain     `json:"domain"`
	Classifier AttributeClassifier `json:"classifier"`
	Category   string              `json:"category,omitempty"`
	Value      string              `json:"value"`
	EndAt      *time.Time          `json:"end_at,omitempty"`
}

// ActiveAt reports whether the attribute has not expired at the given instant.
func (a RoleAttribute) ActiveAt(at time.Time) bool {
	return a.EndAt == nil || !a.EndAt.Before(at)
}

// Role is a service-scoped grant held by a party, unique per
// (type code, party).
type Role struct {
	RoleID   string     `json:"role_id"`
	TypeCode string     `json:"role_type"`
	PartyID  string     `json:"party_id"`
	Status   RoleStatus `json:"status"`

	Attributes []RoleAttribute `json:"attributes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasActiveAgencyServiceGrant reports whether any non-expired
// AGENCY_SERVICE attribute remains on the role.
func (r Role) HasActiveAgencyServiceGrant(at time.Time) bool {
	for _, attribute := range r.Attributes {
		if attribute.Classifier == ClassifierAgencyService && attribute.ActiveAt(at) {
			return true
		}
	}
	return false
}

// ApplySuspensionPolicy forces a role with no active agency-service grant
// to SUSPENDED, and restores ACTIVE when one is present.
func (r *Role) ApplySuspensionPolicy(at time.Time) {
	if r.HasActiveAgencyServiceGrant(at) {
		r.Status = RoleActive
		return
	}
	r.Status = RoleSuspended
}
