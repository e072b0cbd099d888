package entities

import "time"

// IdentityType classifies the kind of evidence an identity carries.
type IdentityType string

const (
	IdentityTypeAgencyProvidedToken IdentityType = "AGENCY_PROVIDED_TOKEN"
	IdentityTypeInvitationCode      IdentityType = "INVITATION_CODE"
	IdentityTypeLinkID              IdentityType = "LINK_ID"
	IdentityTypePublicIdentifier    IdentityType = "PUBLIC_IDENTIFIER"
)

// IsValid reports whether the identity type is one of the known values.
func (t IdentityType) IsValid() bool {
	switch t {
	case IdentityTypeAgencyProvidedToken,
		IdentityTypeInvitationCode,
		IdentityTypeLinkID,
		IdentityTypePublicIdentifier:
		return true
	}
	return false
}

// InvitationCodeStatus tracks the lifecycle of an invitation-code identity.
// Rejected is reachable only through relationship rejection.
type InvitationCodeStatus string

const (
	InvitationCodePending  InvitationCodeStatus = "PENDING"
	InvitationCodeClaimed  InvitationCodeStatus = "CLAIMED"
	InvitationCodeRejected InvitationCodeStatus = "REJECTED"
)

// SharedSecret is a piece of corroborating evidence recorded on a profile,
// such as a date of birth, keyed by secret type code.
type SharedSecret struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Profile is the name and shared-secret evidence owned by an identity.
type Profile struct {
	Provider      string         `json:"provider"`
	GivenName     string         `json:"given_name"`
	FamilyName    string         `json:"family_name"`
	DisplayName   string         `json:"display_name"`
	SharedSecrets []SharedSecret `json:"shared_secrets,omitempty"`
}

// Identity is one piece of evidence linking a Party to an external
// identifier space. IDValue is globally unique and is a pure function of
// type + scheme fields + RawIDValue; it is recomputed on every save.
type Identity struct {
	IdentityID string       `json:"identity_id"`
	PartyID    string       `json:"party_id"`
	IDValue    string       `json:"id_value"`
	RawIDValue string       `json:"raw_id_value"`
	Type       IdentityType `json:"identity_type"`

	AgencyScheme           string `json:"agency_scheme,omitempty"`
	AgencyToken            string `json:"agency_token,omitempty"`
	LinkIDScheme           string `json:"link_id_scheme,omitempty"`
	PublicIdentifierScheme string `json:"public_identifier_scheme,omitempty"`

	// DefaultInd marks the one identity per party used as its default.
	DefaultInd bool `json:"default_ind"`

	InvitationCodeStatus    InvitationCodeStatus `json:"invitation_code_status,omitempty"`
	InvitationCodeExpiresAt *time.Time           `json:"invitation_code_expires_at,omitempty"`
	InvitationCodeClaimedAt *time.Time           `json:"invitation_code_claimed_at,omitempty"`
	// InvitationCodeTempEmail is the temporary contact recorded by the
	// delegate-notification operation; delivery happens outside the core.
	InvitationCodeTempEmail string `json:"invitation_code_temp_email,omitempty"`

	Profile Profile `json:"profile"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvitationClaimableAt reports whether the invitation-code identity can
// still be claimed at the given instant. Expiry is a hard cutoff.
func (i Identity) InvitationClaimableAt(at time.Time) bool {
	if i.Type != IdentityTypeInvitationCode {
		return false
	}
	if i.InvitationCodeStatus != InvitationCodePending {
		return false
	}
	return i.InvitationCodeExpiresAt != nil && i.InvitationCodeExpiresAt.After(at)
}
