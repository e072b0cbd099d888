package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mandate/contexts/identity-access/role-service/domain/entities"
	domainerrors "mandate/contexts/identity-access/role-service/domain/errors"
	"mandate/contexts/identity-access/role-service/ports"
	"mandate/internal/shared/principal"
)

// Provenance attribute codes stamped on every role write from the acting
// agency user.
const (
	AttributeCreatorID     = "CREATOR_ID"
	AttributeCreatorName   = "CREATOR_NAME"
	AttributeCreatorAgency = "CREATOR_AGENCY"
)

// Service reconciles submitted role-attribute sets onto a party's roles.
type Service struct {
	Roles       ports.RoleRepository
	RefData     ports.ReferenceDataCatalog
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// AttributeInput is one submitted (code, value) pair, with an optional
// expiry on the grant itself.
type AttributeInput struct {
	Code  string
	Value string
	EndAt *time.Time
}

// RoleInput is transport-agnostic input for the reconciliation operations.
type RoleInput struct {
	TypeCode   string
	PartyID    string
	Attributes []AttributeInput
}

// AddOrModifyRole finds or creates the role for (type, party) and merges
// the submitted attributes into it. AGENCY_SERVICE attributes are accepted
// only from agency users administering the attribute's category; everything
// else is accepted unconditionally. The accumulation base is the role's
// existing attributes, so attributes outside the caller's authority are
// preserved, never dropped.
func (s Service) AddOrModifyRole(ctx context.Context, caller principal.Principal, input RoleInput) (entities.Role, error) {
	return s.reconcile(ctx, caller, input, false)
}

// ModifyRole behaves like AddOrModifyRole but additionally removes an
// existing AGENCY_SERVICE attribute when the caller administers its
// category and did not resupply it. Attributes in categories the caller
// does not administer are never touched.
func (s Service) ModifyRole(ctx context.Context, caller principal.Principal, input RoleInput) (entities.Role, error) {
	return s.reconcile(ctx, caller, input, true)
}

func (s Service) reconcile(ctx context.Context, caller principal.Principal, input RoleInput, resupplyOrLose bool) (entities.Role, error) {
	logger := resolveLogger(s.Logger)

	agency := caller.AgencyUser
	if agency == nil {
		return entities.Role{}, domainerrors.ErrAccessDenied
	}
	typeCode := strings.TrimSpace(input.TypeCode)
	partyID := strings.TrimSpace(input.PartyID)
	if typeCode == "" || partyID == "" {
		return entities.Role{}, domainerrors.ErrInvalidRoleInput
	}

	now := s.now()
	_, found, err := s.RefData.FindRoleTypeValidAt(ctx, typeCode, now)
	if err != nil {
		return entities.Role{}, err
	}
	if !found {
		return entities.Role{}, domainerrors.ErrRoleTypeNotFound
	}

	role, err := s.Roles.GetRoleByTypeAndParty(ctx, typeCode, partyID)
	created := false
	if err != nil {
		if !errors.Is(err, domainerrors.ErrRoleNotFound) {
			return entities.Role{}, err
		}
		roleID, idErr := s.IDGenerator.NewID(ctx)
		if idErr != nil {
			return entities.Role{}, idErr
		}
		role = entities.Role{
			RoleID:    roleID,
			TypeCode:  typeCode,
			PartyID:   partyID,
			Status:    entities.RoleActive,
			CreatedAt: now,
		}
		created = true
	}

	// Accumulation starts from the role's existing attributes.
	attributes := append([]entities.RoleAttribute(nil), role.Attributes...)

	attributes = upsertAttribute(attributes, provenanceAttribute(AttributeCreatorID, agency.ID))
	attributes = upsertAttribute(attributes, provenanceAttribute(AttributeCreatorName, agency.DisplayName))
	attributes = upsertAttribute(attributes, provenanceAttribute(AttributeCreatorAgency, agency.Agency))

	resupplied := make(map[string]bool, len(input.Attributes))
	for _, submitted := range input.Attributes {
		code := strings.TrimSpace(submitted.Code)
		if code == "" {
			continue
		}
		name, found, err := s.RefData.FindAttributeName(ctx, code)
		if err != nil {
			return entities.Role{}, err
		}
		if !found {
			// Unresolvable codes are skipped, not fatal.
			logger.Warn("role attribute code skipped",
				"event", "role_attribute_skipped",
				"module", "identity-access/role-service",
				"layer", "application",
				"attribute_code", code,
			)
			continue
		}
		if name.Classifier == entities.ClassifierAgencyService {
			if !agency.HasAdminFor(name.Category) {
				continue
			}
			resupplied[resupplyKey(code, name.Category)] = true
		}
		attributes = upsertAttribute(attributes, entities.RoleAttribute{
			NameCode:   name.Code,
			Domain:     name.Domain,
			Classifier: name.Classifier,
			Category:   name.Category,
			Value:      strings.TrimSpace(submitted.Value),
			EndAt:      submitted.EndAt,
		})
	}

	if resupplyOrLose {
		kept := attributes[:0]
		for _, attribute := range attributes {
			if attribute.Classifier == entities.ClassifierAgencyService &&
				agency.HasAdminFor(attribute.Category) &&
				!resupplied[resupplyKey(attribute.NameCode, attribute.Category)] {
				continue
			}
			kept = append(kept, attribute)
		}
		attributes = kept
	}

	role.Attributes = attributes
	role.ApplySuspensionPolicy(now)
	role.UpdatedAt = now

	if err := s.Roles.SaveRole(ctx, role); err != nil {
		return entities.Role{}, err
	}

	logger.Info("role reconciled",
		"event", "role_reconciled",
		"module", "identity-access/role-service",
		"layer", "application",
		"role_type", role.TypeCode,
		"party_id", role.PartyID,
		"status", string(role.Status),
		"created", created,
	)
	return role, nil
}

// GetPartyRoles lists every role held by the party.
func (s Service) GetPartyRoles(ctx context.Context, partyID string) ([]entities.Role, error) {
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return nil, domainerrors.ErrInvalidRoleInput
	}
	return s.Roles.ListRolesByParty(ctx, partyID)
}

func provenanceAttribute(code string, value string) entities.RoleAttribute {
	return entities.RoleAttribute{
		NameCode:   code,
		Domain:     entities.DomainString,
		Classifier: entities.ClassifierOther,
		Value:      strings.TrimSpace(value),
	}
}

func upsertAttribute(attributes []entities.RoleAttribute, next entities.RoleAttribute) []entities.RoleAttribute {
	for i, existing := range attributes {
		if existing.NameCode == next.NameCode {
			attributes[i] = next
			return attributes
		}
	}
	return append(attributes, next)
}

func resupplyKey(code string, category string) string {
	return code + "|" + category
}
