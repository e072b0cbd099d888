package services

import (
	"strings"

	"mandate/contexts/identity-access/authorisation-service/domain/entities"
)

// BuildIDValue derives the canonical lookup key for an identity from its
// type and scheme fields. Derivation is deterministic and must run after
// RawIDValue is finalised (invitation codes are allocated, not supplied).
// An unknown type derives no value; rejecting such records is a validation
// concern, not a derivation one.
func BuildIDValue(identity entities.Identity) (string, bool) {
	switch identity.Type {
	case entities.IdentityTypeAgencyProvidedToken:
		return join(string(identity.Type), identity.AgencyScheme, identity.RawIDValue), true
	case entities.IdentityTypeInvitationCode:
		return join(string(identity.Type), identity.RawIDValue), true
	case entities.IdentityTypeLinkID:
		return join(string(identity.Type), identity.LinkIDScheme, identity.RawIDValue), true
	case entities.IdentityTypePublicIdentifier:
		return join(string(identity.Type), identity.PublicIdentifierScheme, identity.RawIDValue), true
	}
	return "", false
}

// NormaliseIdentity recomputes the derived IDValue in place. Called by the
// application layer before every save so the derivation stays testable
// without a database.
func NormaliseIdentity(identity *entities.Identity) {
	if value, ok := BuildIDValue(*identity); ok {
		identity.IDValue = value
	}
}

func join(parts ...string) string {
	return strings.Join(parts, ":")
}
