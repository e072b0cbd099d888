package application

import (
	"context"
	"errors"
	"strings"
	"time"

	domainerrors "mandate/contexts/identity-access/authorisation-service/domain/errors"
	"mandate/contexts/identity-access/authorisation-service/ports"
	"mandate/internal/shared/principal"
)

// HasAccess decides whether the caller may act for, or view information
// about, the party behind the requested id value. The relation is
// directional and bounded to two hops by policy; deeper chains do not
// grant access.
func (s Service) HasAccess(ctx context.Context, caller principal.Principal, requestedIDValue string, asOf time.Time) (bool, error) {
	// Agency users have implicit global access.
	if caller.IsAgencyUser() {
		return true, nil
	}

	requested, err := s.Identities.GetIdentityByIDValue(ctx, strings.TrimSpace(requestedIDValue))
	if err != nil {
		// Denial and non-existence both answer false; existence is not
		// leaked through this call.
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}

	requestingPartyID, err := s.resolveCallerParty(ctx, caller)
	if err != nil {
		if isNotFound(err) || errors.Is(err, domainerrors.ErrAccessDenied) {
			return false, nil
		}
		return false, err
	}

	return s.hasAccessToParty(ctx, requestingPartyID, requested.PartyID, asOf)
}

// hasAccessToParty answers the same question with both parties resolved:
// self-access, then first-level, then the two-hop intersection. Both
// levels share the half-open date convention (start <= asOf, end unset or
// >= asOf) enforced by the repository queries.
func (s Service) hasAccessToParty(ctx context.Context, requestingPartyID string, requestedPartyID string, asOf time.Time) (bool, error) {
	if requestingPartyID == requestedPartyID {
		return true, nil
	}

	direct, err := s.Relationships.HasAcceptedRelationship(ctx, requestedPartyID, requestingPartyID, asOf)
	if err != nil {
		return false, err
	}
	if direct {
		return true, nil
	}

	// Second level: some third party the requested party delegated to has
	// in turn delegated to the requester.
	delegates, err := s.Relationships.ListAcceptedDelegateIDs(ctx, requestedPartyID, asOf)
	if err != nil {
		return false, err
	}
	if len(delegates) == 0 {
		return false, nil
	}
	subjects, err := s.Relationships.ListAcceptedSubjectIDs(ctx, requestingPartyID, asOf)
	if err != nil {
		return false, err
	}

	seen := make(map[string]struct{}, len(delegates))
	for _, partyID := range delegates {
		seen[partyID] = struct{}{}
	}
	for _, partyID := range subjects {
		if _, ok := seen[partyID]; ok {
			return true, nil
		}
	}
	return false, nil
}

// SearchRelationships runs the conjunctive relationship search. Callers
// that are not agency staff are pinned to their own party unless the
// access graph grants them the party they filtered on.
func (s Service) SearchRelationships(ctx context.Context, caller principal.Principal, filter ports.RelationshipFilter, page ports.Page) (ports.RelationshipPage, error) {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Size == 0 {
		page.Size = 20
	}
	if page.Size < 1 || page.Size > 1000 {
		return ports.RelationshipPage{}, domainerrors.ErrInvalidSearchFilter
	}

	if !caller.IsAgencyUser() {
		actingPartyID, err := s.resolveCallerParty(ctx, caller)
		if err != nil {
			return ports.RelationshipPage{}, err
		}
		if filter.PartyID == "" {
			filter.PartyID = actingPartyID
		} else if filter.PartyID != actingPartyID {
			allowed, err := s.hasAccessToParty(ctx, actingPartyID, filter.PartyID, s.now())
			if err != nil {
				return ports.RelationshipPage{}, err
			}
			if !allowed {
				return ports.RelationshipPage{}, domainerrors.ErrAccessDenied
			}
		}
	}

	return s.Relationships.SearchRelationships(ctx, filter, page)
}

func isNotFound(err error) bool {
	return errors.Is(err, domainerrors.ErrPartyNotFound) ||
		errors.Is(err, domainerrors.ErrIdentityNotFound) ||
		errors.Is(err, domainerrors.ErrRelationshipNotFound) ||
		errors.Is(err, domainerrors.ErrRelationshipTypeNotFound)
}
