package httptransport

import "time"

// AttributeDTO is one submitted or returned (code, value) pair.
type AttributeDTO struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

// ProfileDTO carries identity name/secret evidence over the wire.
type ProfileDTO struct {
	Provider      string            `json:"provider,omitempty"`
	GivenName     string            `json:"given_name,omitempty"`
	FamilyName    string            `json:"family_name,omitempty"`
	DisplayName   string            `json:"display_name,omitempty"`
	SharedSecrets map[string]string `json:"shared_secrets,omitempty"`
}

// CreateIdentityRequest creates an identity and, when party_id is empty,
// its owning party.
type CreateIdentityRequest struct {
	PartyID   string `json:"party_id,omitempty"`
	PartyType string `json:"party_type,omitempty"`

	IdentityType string `json:"identity_type"`
	RawIDValue   string `json:"raw_id_value,omitempty"`

	AgencyScheme           string `json:"agency_scheme,omitempty"`
	AgencyToken            string `json:"agency_token,omitempty"`
	LinkIDScheme           string `json:"link_id_scheme,omitempty"`
	PublicIdentifierScheme string `json:"public_identifier_scheme,omitempty"`

	DefaultInd bool       `json:"default_ind,omitempty"`
	Profile    ProfileDTO `json:"profile"`
}

// IdentityResponse is the wire view of an identity.
type IdentityResponse struct {
	IdentityID           string     `json:"identity_id"`
	PartyID              string     `json:"party_id"`
	IDValue              string     `json:"id_value"`
	RawIDValue           string     `json:"raw_id_value"`
	IdentityType         string     `json:"identity_type"`
	DefaultInd           bool       `json:"default_ind"`
	InvitationCodeStatus string     `json:"invitation_code_status,omitempty"`
	InvitationExpiresAt  *time.Time `json:"invitation_code_expires_at,omitempty"`
	Profile              ProfileDTO `json:"profile"`
}

// CreateInvitationRelationshipRequest creates a delegation towards a
// not-yet-known delegate.
type CreateInvitationRelationshipRequest struct {
	RelationshipType   string         `json:"relationship_type"`
	SubjectIDValue     string         `json:"subject_id_value"`
	DelegateGivenName  string         `json:"delegate_given_name"`
	DelegateFamilyName string         `json:"delegate_family_name"`
	DelegateDOB        string         `json:"delegate_dob,omitempty"`
	StartTimestamp     time.Time      `json:"start_timestamp"`
	EndTimestamp       *time.Time     `json:"end_timestamp,omitempty"`
	Attributes         []AttributeDTO `json:"attributes,omitempty"`
}

// CreateRelationshipRequest creates a delegation between two existing
// identities.
type CreateRelationshipRequest struct {
	RelationshipType string         `json:"relationship_type"`
	SubjectIDValue   string         `json:"subject_id_value"`
	DelegateIDValue  string         `json:"delegate_id_value"`
	InitiatedBy      string         `json:"initiated_by"`
	StartTimestamp   time.Time      `json:"start_timestamp"`
	EndTimestamp     *time.Time     `json:"end_timestamp,omitempty"`
	Attributes       []AttributeDTO `json:"attributes,omitempty"`
}

// ModifyRelationshipRequest overwrites the window and attribute set.
type ModifyRelationshipRequest struct {
	RelationshipType string         `json:"relationship_type"`
	SubjectIDValue   string         `json:"subject_id_value"`
	DelegateIDValue  string         `json:"delegate_id_value"`
	StartTimestamp   time.Time      `json:"start_timestamp"`
	EndTimestamp     *time.Time     `json:"end_timestamp,omitempty"`
	Attributes       []AttributeDTO `json:"attributes,omitempty"`
}

// ClaimRelationshipRequest claims a pending invitation.
type ClaimRelationshipRequest struct {
	ClaimantIDValue string `json:"claimant_id_value"`
	BusinessNumber  string `json:"business_number,omitempty"`
}

// NotifyDelegateRequest records the temporary contact email.
type NotifyDelegateRequest struct {
	Email string `json:"email"`
}

// RelationshipResponse is the wire view of a relationship.
type RelationshipResponse struct {
	RelationshipID    string         `json:"relationship_id"`
	RelationshipType  string         `json:"relationship_type"`
	SubjectPartyID    string         `json:"subject_party_id"`
	DelegatePartyID   string         `json:"delegate_party_id"`
	Status            string         `json:"status"`
	InitiatedBy       string         `json:"initiated_by"`
	InvitationIDValue string         `json:"invitation_id_value,omitempty"`
	StartTimestamp    time.Time      `json:"start_timestamp"`
	EndTimestamp      *time.Time     `json:"end_timestamp,omitempty"`
	Attributes        []AttributeDTO `json:"attributes,omitempty"`
}

// SearchRelationshipsResponse is a paginated search result.
type SearchRelationshipsResponse struct {
	Relationships []RelationshipResponse `json:"relationships"`
	TotalCount    int                    `json:"total_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

// AccessResponse answers a hasAccess probe.
type AccessResponse struct {
	IDValue   string    `json:"id_value"`
	HasAccess bool      `json:"has_access"`
	CheckedAt time.Time `json:"checked_at"`
}

// BusinessRecordDTO is one candidate from the business registry.
type BusinessRecordDTO struct {
	BusinessNumber string `json:"business_number"`
	Name           string `json:"name"`
}

// RegisterBusinessRequest back-fills a party for a business number.
type RegisterBusinessRequest struct {
	BusinessNumber string `json:"business_number"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
