package errors

import "errors"

// Lookup failures map to "not found" at the boundary; business-rule
// violations map to conflict/forbidden. Keeping the kinds distinct here is
// the core's whole error contract.
var (
	ErrPartyNotFound            = errors.New("party not found")
	ErrIdentityNotFound         = errors.New("identity not found")
	ErrRelationshipNotFound     = errors.New("relationship not found")
	ErrRelationshipTypeNotFound = errors.New("relationship type not found")
	ErrBusinessNotFound         = errors.New("business registry returned no match")

	ErrInvalidIdentityInput     = errors.New("invalid identity input")
	ErrInvalidRelationshipInput = errors.New("invalid relationship input")
	ErrInvalidSearchFilter      = errors.New("invalid search filter")

	ErrRelationshipNotPending    = errors.New("relationship is not pending")
	ErrNotCurrentDelegate        = errors.New("acting party is not the current delegate")
	ErrInvitationNotClaimable    = errors.New("invitation identity is not claimable")
	ErrInvitationExpired         = errors.New("invitation code has expired")
	ErrClaimantNameMismatch      = errors.New("claimant name does not match invitation")
	ErrBusinessNumberMismatch    = errors.New("credential business number does not match subject")
	ErrInvitationIdentityMissing = errors.New("relationship has no pending invitation identity")

	ErrAccessDenied = errors.New("access denied")
)
