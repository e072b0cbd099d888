package application

import (
	"context"
	"strings"

	"mandate/contexts/identity-access/authorisation-service/domain/entities"
	domainerrors "mandate/contexts/identity-access/authorisation-service/domain/errors"
	"mandate/contexts/identity-access/authorisation-service/domain/services"
	"mandate/contexts/identity-access/authorisation-service/ports"
	"mandate/internal/shared/principal"
)

// CreateIdentityInput is transport-agnostic input for identity creation.
// An empty PartyID creates a new party of PartyType; otherwise the identity
// attaches to the existing party.
type CreateIdentityInput struct {
	PartyID   string
	PartyType entities.PartyType

	Type       entities.IdentityType
	RawIDValue string

	AgencyScheme           string
	AgencyToken            string
	LinkIDScheme           string
	PublicIdentifierScheme string

	DefaultInd bool
	Profile    entities.Profile
}

// CreateIdentity creates an identity and, when needed, its owning party.
// Invitation-code identities without a supplied raw value get an allocated
// code and a hard expiry; the canonical id value is derived after the raw
// value is finalised.
func (s Service) CreateIdentity(ctx context.Context, input CreateIdentityInput) (entities.Identity, error) {
	logger := ResolveLogger(s.Logger)

	if !input.Type.IsValid() {
		return entities.Identity{}, domainerrors.ErrInvalidIdentityInput
	}
	if input.Type != entities.IdentityTypeInvitationCode && strings.TrimSpace(input.RawIDValue) == "" {
		return entities.Identity{}, domainerrors.ErrInvalidIdentityInput
	}

	now := s.now()
	partyID := strings.TrimSpace(input.PartyID)
	if partyID == "" {
		if !input.PartyType.IsValid() {
			return entities.Identity{}, domainerrors.ErrInvalidIdentityInput
		}
		newPartyID, err := s.newID(ctx)
		if err != nil {
			return entities.Identity{}, err
		}
		party := entities.Party{
			PartyID:   newPartyID,
			PartyType: input.PartyType,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.Parties.CreateParty(ctx, party); err != nil {
			return entities.Identity{}, err
		}
		partyID = newPartyID
	} else {
		if _, err := s.Parties.GetParty(ctx, partyID); err != nil {
			return entities.Identity{}, err
		}
	}

	identityID, err := s.newID(ctx)
	if err != nil {
		return entities.Identity{}, err
	}

	identity := entities.Identity{
		IdentityID:             identityID,
		PartyID:                partyID,
		RawIDValue:             strings.TrimSpace(input.RawIDValue),
		Type:                   input.Type,
		AgencyScheme:           strings.TrimSpace(input.AgencyScheme),
		AgencyToken:            strings.TrimSpace(input.AgencyToken),
		LinkIDScheme:           strings.TrimSpace(input.LinkIDScheme),
		PublicIdentifierScheme: strings.TrimSpace(input.PublicIdentifierScheme),
		DefaultInd:             input.DefaultInd,
		Profile:                input.Profile,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if identity.Type == entities.IdentityTypeInvitationCode {
		if identity.RawIDValue == "" {
			sequence, err := s.Sequences.NextIdentitySequence(ctx)
			if err != nil {
				return entities.Identity{}, err
			}
			identity.RawIDValue = s.CodeEncoder.Encode(sequence)
		}
		expiresAt := now.Add(s.invitationTTL())
		identity.InvitationCodeStatus = entities.InvitationCodePending
		identity.InvitationCodeExpiresAt = &expiresAt
	}

	// Derivation runs after the raw value is finalised.
	services.NormaliseIdentity(&identity)

	if err := s.Identities.CreateIdentity(ctx, identity); err != nil {
		return entities.Identity{}, err
	}

	logger.Info("identity created",
		"event", "identity_created",
		"module", "identity-access/authorisation-service",
		"layer", "application",
		"identity_type", string(identity.Type),
		"party_id", identity.PartyID,
	)
	return identity, nil
}

// GetIdentity resolves an identity by canonical id value, guarded by the
// access graph. Denial and non-existence are both reported as access
// denied so existence is not leaked.
func (s Service) GetIdentity(ctx context.Context, caller principal.Principal, idValue string) (entities.Identity, error) {
	allowed, err := s.HasAccess(ctx, caller, idValue, s.now())
	if err != nil {
		return entities.Identity{}, err
	}
	if !allowed {
		return entities.Identity{}, domainerrors.ErrAccessDenied
	}
	return s.Identities.GetIdentityByIDValue(ctx, strings.TrimSpace(idValue))
}

// PublicIdentifierSchemeABN is the scheme under which Australian Business
// Numbers are recorded.
const PublicIdentifierSchemeABN = "ABN"

// RegisterBusinessParty back-fills a Party/Identity pair for a business
// number that is not yet known, resolving the organisation name through
// the external business registry.
func (s Service) RegisterBusinessParty(ctx context.Context, businessNumber string) (entities.Identity, error) {
	logger := ResolveLogger(s.Logger)

	businessNumber = strings.TrimSpace(businessNumber)
	if businessNumber == "" {
		return entities.Identity{}, domainerrors.ErrInvalidIdentityInput
	}

	probe := entities.Identity{
		Type:                   entities.IdentityTypePublicIdentifier,
		PublicIdentifierScheme: PublicIdentifierSchemeABN,
		RawIDValue:             businessNumber,
	}
	idValue, _ := services.BuildIDValue(probe)
	if existing, err := s.Identities.GetIdentityByIDValue(ctx, idValue); err == nil {
		return existing, nil
	}

	candidates, err := s.Registry.SearchByNumber(ctx, businessNumber)
	if err != nil {
		return entities.Identity{}, err
	}
	if len(candidates) == 0 {
		return entities.Identity{}, domainerrors.ErrBusinessNotFound
	}

	created, err := s.CreateIdentity(ctx, CreateIdentityInput{
		PartyType:              entities.PartyTypeABN,
		Type:                   entities.IdentityTypePublicIdentifier,
		PublicIdentifierScheme: PublicIdentifierSchemeABN,
		RawIDValue:             businessNumber,
		DefaultInd:             true,
		Profile: entities.Profile{
			DisplayName: candidates[0].Name,
		},
	})
	if err != nil {
		return entities.Identity{}, err
	}

	logger.Info("business party registered",
		"event", "business_party_registered",
		"module", "identity-access/authorisation-service",
		"layer", "application",
		"party_id", created.PartyID,
	)
	return created, nil
}

// SearchBusinessRegistry proxies the registry name search for callers that
// need candidate organisations before registering one.
func (s Service) SearchBusinessRegistry(ctx context.Context, name string) ([]ports.BusinessRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.ErrInvalidIdentityInput
	}
	return s.Registry.SearchByName(ctx, name)
}
