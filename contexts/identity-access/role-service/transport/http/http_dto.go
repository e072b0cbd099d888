package httptransport

import "time"

// RoleAttributeDTO is one submitted or returned attribute.
type RoleAttributeDTO struct {
	Code       string     `json:"code"`
	Value      string     `json:"value"`
	Domain     string     `json:"domain,omitempty"`
	Classifier string     `json:"classifier,omitempty"`
	Category   string     `json:"category,omitempty"`
	EndAt      *time.Time `json:"end_at,omitempty"`
}

// RoleRequest submits a role-attribute set for reconciliation.
type RoleRequest struct {
	RoleType   string             `json:"role_type"`
	PartyID    string             `json:"party_id"`
	Attributes []RoleAttributeDTO `json:"attributes,omitempty"`
}

// RoleResponse is the wire view of a role.
type RoleResponse struct {
	RoleID     string             `json:"role_id"`
	RoleType   string             `json:"role_type"`
	PartyID    string             `json:"party_id"`
	Status     string             `json:"status"`
	Attributes []RoleAttributeDTO `json:"attributes,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// PartyRolesResponse lists every role held by a party.
type PartyRolesResponse struct {
	PartyID string         `json:"party_id"`
	Roles   []RoleResponse `json:"roles"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
