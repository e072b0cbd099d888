package principal

import "strings"

// RoleAdmin is the agency role that grants authority over agency-service
// attributes whose category matches the granted program.
const RoleAdmin = "ROLE_ADMIN"

// ProgramRole is one (program, role) grant held by an agency user.
type ProgramRole struct {
	Program string `json:"program"`
	Role    string `json:"role"`
}

// AgencyUser is the caller context for government agency staff.
// Supplied per request by the authentication collaborator; never persisted.
type AgencyUser struct {
	ID           string        `json:"id"`
	DisplayName  string        `json:"display_name"`
	Agency       string        `json:"agency"`
	ProgramRoles []ProgramRole `json:"program_roles"`
}

// HasAdminFor reports whether the agency user administers the given program.
func (a AgencyUser) HasAdminFor(program string) bool {
	program = strings.TrimSpace(program)
	if program == "" {
		return false
	}
	for _, grant := range a.ProgramRoles {
		if grant.Role == RoleAdmin && strings.EqualFold(grant.Program, program) {
			return true
		}
	}
	return false
}

// Principal is the resolved acting caller handed to the core per request.
// Authentication happens upstream; the core only consumes the result.
type Principal struct {
	// IdentityIDValue is the canonical id value of the identity the caller
	// authenticated as. Empty for pure agency-user callers.
	IdentityIDValue string
	// PartyID is the party owning that identity, when already resolved.
	PartyID string
	// BusinessNumber is the ABN carried by the caller's credential, when the
	// credential is business-scoped. Used to cross-check invitation claims.
	BusinessNumber string
	// AgencyUser is set when the caller is agency staff.
	AgencyUser *AgencyUser
}

// IsAgencyUser reports whether the principal represents agency staff.
func (p Principal) IsAgencyUser() bool {
	return p.AgencyUser != nil
}
