package application

import (
	"context"
	"strings"
	"time"

	"mandate/contexts/identity-access/authorisation-service/domain/entities"
	domainerrors "mandate/contexts/identity-access/authorisation-service/domain/errors"
	"mandate/internal/shared/principal"
)

// AttributeInput is one submitted (code, value) pair.
type AttributeInput struct {
	Code  string
	Value string
}

// CreateInvitationRelationshipInput creates a delegation towards a
// not-yet-known person reachable only through an invitation code.
type CreateInvitationRelationshipInput struct {
	TypeCode       string
	SubjectIDValue string

	DelegateGivenName  string
	DelegateFamilyName string
	// DelegateSharedSecret stands in for the delegate's date of birth.
	DelegateSharedSecret string

	StartAt    time.Time
	EndAt      *time.Time
	Attributes []AttributeInput
}

// CreateRelationshipInput creates a delegation between two identities that
// both already exist, referenced by canonical id value.
type CreateRelationshipInput struct {
	TypeCode        string
	SubjectIDValue  string
	DelegateIDValue string
	InitiatedBy     entities.InitiatedBy
	StartAt         time.Time
	EndAt           *time.Time
	Attributes      []AttributeInput
}

// ModifyRelationshipInput rebuilds the validity window and attribute set.
type ModifyRelationshipInput struct {
	TypeCode        string
	SubjectIDValue  string
	DelegateIDValue string
	StartAt         time.Time
	EndAt           *time.Time
	Attributes      []AttributeInput
}

// sharedSecretDateOfBirth is the secret type recorded for invitations.
const sharedSecretDateOfBirth = "DATE_OF_BIRTH"

// CreateInvitationRelationship allocates an invitation-code identity for
// the delegate and creates the relationship with computed initial status.
func (s Service) CreateInvitationRelationship(ctx context.Context, input CreateInvitationRelationshipInput) (entities.Relationship, error) {
	logger := ResolveLogger(s.Logger)
	now := s.now()

	subject, err := s.Identities.GetIdentityByIDValue(ctx, strings.TrimSpace(input.SubjectIDValue))
	if err != nil {
		return entities.Relationship{}, err
	}

	relType, found, err := s.RefData.FindRelationshipTypeValidAt(ctx, strings.TrimSpace(input.TypeCode), now)
	if err != nil {
		return entities.Relationship{}, err
	}
	if !found {
		return entities.Relationship{}, domainerrors.ErrRelationshipTypeNotFound
	}

	if strings.TrimSpace(input.DelegateGivenName) == "" || strings.TrimSpace(input.DelegateFamilyName) == "" {
		return entities.Relationship{}, domainerrors.ErrInvalidRelationshipInput
	}

	invitation, err := s.CreateIdentity(ctx, CreateIdentityInput{
		PartyType:  entities.PartyTypeIndividual,
		Type:       entities.IdentityTypeInvitationCode,
		DefaultInd: true,
		Profile: entities.Profile{
			GivenName:   strings.TrimSpace(input.DelegateGivenName),
			FamilyName:  strings.TrimSpace(input.DelegateFamilyName),
			DisplayName: strings.TrimSpace(input.DelegateGivenName + " " + input.DelegateFamilyName),
			SharedSecrets: []entities.SharedSecret{
				{Type: sharedSecretDateOfBirth, Value: strings.TrimSpace(input.DelegateSharedSecret)},
			},
		},
	})
	if err != nil {
		return entities.Relationship{}, err
	}

	status := entities.RelationshipPending
	if relType.AutoAcceptFor(entities.InitiatedBySubject) {
		status = entities.RelationshipAccepted
	}

	relationshipID, err := s.newID(ctx)
	if err != nil {
		return entities.Relationship{}, err
	}

	relationship := entities.Relationship{
		RelationshipID:     relationshipID,
		TypeCode:           relType.Code,
		SubjectPartyID:     subject.PartyID,
		DelegatePartyID:    invitation.PartyID,
		Status:             status,
		InitiatedBy:        entities.InitiatedBySubject,
		InvitationIDValue:  invitation.IDValue,
		StartAt:            input.StartAt.UTC(),
		Attributes:         s.materialiseAttributes(ctx, input.Attributes, &now),
		SubjectSearchText:  searchText(subject),
		DelegateSearchText: searchText(invitation),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	relationship.SetEnd(input.EndAt, now)

	if err := s.Relationships.CreateRelationship(ctx, relationship); err != nil {
		return entities.Relationship{}, err
	}

	logger.Info("invitation relationship created",
		"event", "relationship_invitation_created",
		"module", "identity-access/authorisation-service",
		"layer", "application",
		"relationship_id", relationship.RelationshipID,
		"relationship_type", relationship.TypeCode,
		"status", string(relationship.Status),
	)
	return relationship, nil
}

// CreateRelationship is the direct path: both parties already hold
// identities and no invitation identity is created.
func (s Service) CreateRelationship(ctx context.Context, input CreateRelationshipInput) (entities.Relationship, error) {
	logger := ResolveLogger(s.Logger)
	now := s.now()

	if input.InitiatedBy != entities.InitiatedBySubject && input.InitiatedBy != entities.InitiatedByDelegate {
		return entities.Relationship{}, domainerrors.ErrInvalidRelationshipInput
	}

	subject, err := s.Identities.GetIdentityByIDValue(ctx, strings.TrimSpace(input.SubjectIDValue))
	if err != nil {
		return entities.Relationship{}, err
	}
	delegate, err := s.Identities.GetIdentityByIDValue(ctx, strings.TrimSpace(input.DelegateIDValue))
	if err != nil {
		return entities.Relationship{}, err
	}

	relType, found, err := s.RefData.FindRelationshipTypeValidAt(ctx, strings.TrimSpace(input.TypeCode), now)
	if err != nil {
		return entities.Relationship{}, err
	}
	if !found {
		return entities.Relationship{}, domainerrors.ErrRelationshipTypeNotFound
	}

	status := entities.RelationshipPending
	if relType.AutoAcceptFor(input.InitiatedBy) {
		status = entities.RelationshipAccepted
	}

	relationshipID, err := s.newID(ctx)
	if err != nil {
		return entities.Relationship{}, err
	}

	relationship := entities.Relationship{
		RelationshipID:     relationshipID,
		TypeCode:           relType.Code,
		SubjectPartyID:     subject.PartyID,
		DelegatePartyID:    delegate.PartyID,
		Status:             status,
		InitiatedBy:        input.InitiatedBy,
		StartAt:            input.StartAt.UTC(),
		Attributes:         s.materialiseAttributes(ctx, input.Attributes, &now),
		SubjectSearchText:  searchText(subject),
		DelegateSearchText: searchText(delegate),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	relationship.SetEnd(input.EndAt, now)

	if err := s.Relationships.CreateRelationship(ctx, relationship); err != nil {
		return entities.Relationship{}, err
	}

	logger.Info("relationship created",
		"event", "relationship_created",
		"module", "identity-access/authorisation-service",
		"layer", "application",
		"relationship_id", relationship.RelationshipID,
		"relationship_type", relationship.TypeCode,
		"status", string(relationship.Status),
	)
	return relationship, nil
}

// Claim lets a now-identified delegate take over a pending invitation.
// Claiming does not accept: the relationship status is unchanged.
func (s Service) Claim(ctx context.Context, relationshipID string, claimantIDValue string, businessNumber string) (entities.Relationship, error) {
	logger := ResolveLogger(s.Logger)
	now := s.now()

	relationship, err := s.Relationships.GetRelationship(ctx, strings.TrimSpace(relationshipID))
	if err != nil {
		return entities.Relationship{}, err
	}
	if relationship.Status != entities.RelationshipPending {
		return entities.Relationship{}, domainerrors.ErrRelationshipNotPending
	}

	claimant, err := s.Identities.GetIdentityByIDValue(ctx, strings.TrimSpace(claimantIDValue))
	if err != nil {
		return entities.Relationship{}, err
	}

	// Retried claims by the party that already holds the delegation are a
	// no-op success, which keeps claim idempotent across partial failures.
	if claimant.PartyID == relationship.DelegatePartyID {
		return relationship, nil
	}

	delegateIdentities, err := s.Identities.ListIdentitiesByParty(ctx, relationship.DelegatePartyID)
	if err != nil {
		return entities.Relationship{}, err
	}
	if len(delegateIdentities) != 1 {
		return entities.Relationship{}, domainerrors.ErrInvitationNotClaimable
	}
	invitation := delegateIdentities[0]
	if invitation.Type != entities.IdentityTypeInvitationCode ||
		invitation.InvitationCodeStatus != entities.InvitationCodePending {
		return entities.Relationship{}, domainerrors.ErrInvitationNotClaimable
	}
	if invitation.InvitationCodeExpiresAt == nil || !invitation.InvitationCodeExpiresAt.After(now) {
		return entities.Relationship{}, domainerrors.ErrInvitationExpired
	}

	if !strings.EqualFold(strings.TrimSpace(claimant.Profile.GivenName), strings.TrimSpace(invitation.Profile.GivenName)) ||
		!strings.EqualFold(strings.TrimSpace(claimant.Profile.FamilyName), strings.TrimSpace(invitation.Profile.FamilyName)) {
		return entities.Relationship{}, domainerrors.ErrClaimantNameMismatch
	}

	if businessNumber = strings.TrimSpace(businessNumber); businessNumber != "" {
		subjectIdentities, err := s.Identities.ListIdentitiesByParty(ctx, relationship.SubjectPartyID)
		if err != nil {
			return entities.Relationship{}, err
		}
		matched := false
		for _, identity := range subjectIdentities {
			if identity.RawIDValue == businessNumber {
				matched = true
				break
			}
		}
		if !matched {
			return entities.Relationship{}, domainerrors.ErrBusinessNumberMismatch
		}
	}

	// Two logically related writes with no cross-document atomicity: the
	// identity is marked claimed first, then the relationship repointed.
	claimedAt := now
	invitation.InvitationCodeStatus = entities.InvitationCodeClaimed
	invitation.InvitationCodeClaimedAt = &claimedAt
	invitation.UpdatedAt = now
	if err := s.Identities.UpdateIdentity(ctx, invitation); err != nil {
		return entities.Relationship{}, err
	}

	relationship.DelegatePartyID = claimant.PartyID
	relationship.DelegateSearchText = searchText(claimant)
	relationship.UpdatedAt = now
	if err := s.Relationships.UpdateRelationship(ctx, relationship); err != nil {
		return entities.Relationship{}, err
	}

	logger.Info("relationship claimed",
		"event", "relationship_claimed",
		"module", "identity-access/authorisation-service",
		"layer", "application",
		"relationship_id", relationship.RelationshipID,
		"delegate_party_id", relationship.DelegatePartyID,
	)
	return relationship, nil
}

// Accept moves a pending relationship to ACCEPTED. Only the current
// delegate may accept.
func (s Service) Accept(ctx context.Context, caller principal.Principal, relationshipID string) (entities.Relationship, error) {
	return s.resolveDelegateDecision(ctx, caller, relationshipID, entities.RelationshipAccepted, "relationship_accepted")
}

// Reject moves a pending relationship to DECLINED and marks the invitation
// identity rejected; relationship rejection is the only path into that
// invitation status.
func (s Service) Reject(ctx context.Context, caller principal.Principal, relationshipID string) (entities.Relationship, error) {
	relationship, err := s.resolveDelegateDecision(ctx, caller, relationshipID, entities.RelationshipDeclined, "relationship_rejected")
	if err != nil {
		return entities.Relationship{}, err
	}
	if relationship.InvitationIDValue != "" {
		invitation, err := s.Identities.GetIdentityByIDValue(ctx, relationship.InvitationIDValue)
		if err == nil && invitation.InvitationCodeStatus == entities.InvitationCodePending {
			invitation.InvitationCodeStatus = entities.InvitationCodeRejected
			invitation.UpdatedAt = s.now()
			if err := s.Identities.UpdateIdentity(ctx, invitation); err != nil {
				return entities.Relationship{}, err
			}
		}
	}
	return relationship, nil
}

func (s Service) resolveDelegateDecision(ctx context.Context, caller principal.Principal, relationshipID string, next entities.RelationshipStatus, event string) (entities.Relationship, error) {
	logger := ResolveLogger(s.Logger)
	now := s.now()

	relationship, err := s.Relationships.GetRelationship(ctx, strings.TrimSpace(relationshipID))
	if err != nil {
		return entities.Relationship{}, err
	}
	if relationship.Status != entities.RelationshipPending {
		return entities.Relationship{}, domainerrors.ErrRelationshipNotPending
	}

	actingPartyID, err := s.resolveCallerParty(ctx, caller)
	if err != nil {
		return entities.Relationship{}, err
	}
	if actingPartyID != relationship.DelegatePartyID {
		return entities.Relationship{}, domainerrors.ErrNotCurrentDelegate
	}

	relationship.Status = next
	relationship.UpdatedAt = now
	if err := s.Relationships.UpdateRelationship(ctx, relationship); err != nil {
		return entities.Relationship{}, err
	}

	logger.Info("relationship decision recorded",
		"event", event,
		"module", "identity-access/authorisation-service",
		"layer", "application",
		"relationship_id", relationship.RelationshipID,
		"status", string(relationship.Status),
	)
	return relationship, nil
}

// NotifyDelegate records a temporary contact email on the invitation
// identity and enqueues a notification for the relay worker. Delivery is
// an external collaborator; the relationship status does not change.
func (s Service) NotifyDelegate(ctx context.Context, relationshipID string, email string) error {
	logger := ResolveLogger(s.Logger)
	now := s.now()

	email = strings.TrimSpace(email)
	if email == "" {
		return domainerrors.ErrInvalidRelationshipInput
	}

	relationship, err := s.Relationships.GetRelationship(ctx, strings.TrimSpace(relationshipID))
	if err != nil {
		return err
	}
	if relationship.Status != entities.RelationshipPending {
		return domainerrors.ErrRelationshipNotPending
	}
	if relationship.InvitationIDValue == "" {
		return domainerrors.ErrInvitationIdentityMissing
	}

	invitation, err := s.Identities.GetIdentityByIDValue(ctx, relationship.InvitationIDValue)
	if err != nil {
		return err
	}
	if invitation.Type != entities.IdentityTypeInvitationCode ||
		invitation.InvitationCodeStatus != entities.InvitationCodePending {
		return domainerrors.ErrInvitationIdentityMissing
	}

	invitation.InvitationCodeTempEmail = email
	invitation.UpdatedAt = now
	if err := s.Identities.UpdateIdentity(ctx, invitation); err != nil {
		return err
	}

	notificationID, err := s.newID(ctx)
	if err != nil {
		return err
	}
	if err := s.Notifications.EnqueueNotification(ctx, notificationMessage(notificationID, relationship.RelationshipID, email, invitation.RawIDValue, now)); err != nil {
		return err
	}

	logger.Info("delegate notification queued",
		"event", "relationship_notify_queued",
		"module", "identity-access/authorisation-service",
		"layer", "application",
		"relationship_id", relationship.RelationshipID,
	)
	return nil
}

// ModifyRelationship rebuilds the validity window and attribute set. Both
// timestamps are normalised to midnight; no status transition happens.
func (s Service) ModifyRelationship(ctx context.Context, relationshipID string, input ModifyRelationshipInput) (entities.Relationship, error) {
	logger := ResolveLogger(s.Logger)
	now := s.now()

	relationship, err := s.Relationships.GetRelationship(ctx, strings.TrimSpace(relationshipID))
	if err != nil {
		return entities.Relationship{}, err
	}

	relType, found, err := s.RefData.FindRelationshipType(ctx, strings.TrimSpace(input.TypeCode))
	if err != nil {
		return entities.Relationship{}, err
	}
	if !found {
		return entities.Relationship{}, domainerrors.ErrRelationshipTypeNotFound
	}

	subject, err := s.Identities.GetIdentityByIDValue(ctx, strings.TrimSpace(input.SubjectIDValue))
	if err != nil {
		return entities.Relationship{}, err
	}
	delegate, err := s.Identities.GetIdentityByIDValue(ctx, strings.TrimSpace(input.DelegateIDValue))
	if err != nil {
		return entities.Relationship{}, err
	}

	relationship.TypeCode = relType.Code
	relationship.SubjectPartyID = subject.PartyID
	relationship.DelegatePartyID = delegate.PartyID
	relationship.SubjectSearchText = searchText(subject)
	relationship.DelegateSearchText = searchText(delegate)
	relationship.StartAt = startOfDay(input.StartAt)
	if input.EndAt != nil {
		end := startOfDay(*input.EndAt)
		relationship.SetEnd(&end, now)
	} else {
		relationship.SetEnd(nil, now)
	}
	// Attribute lookup on modify ignores date range.
	relationship.Attributes = s.materialiseAttributes(ctx, input.Attributes, nil)
	relationship.UpdatedAt = now

	if err := s.Relationships.UpdateRelationship(ctx, relationship); err != nil {
		return entities.Relationship{}, err
	}

	logger.Info("relationship modified",
		"event", "relationship_modified",
		"module", "identity-access/authorisation-service",
		"layer", "application",
		"relationship_id", relationship.RelationshipID,
	)
	return relationship, nil
}

// GetRelationship returns a relationship to its subject, its delegate, or
// agency staff.
func (s Service) GetRelationship(ctx context.Context, caller principal.Principal, relationshipID string) (entities.Relationship, error) {
	relationship, err := s.Relationships.GetRelationship(ctx, strings.TrimSpace(relationshipID))
	if err != nil {
		return entities.Relationship{}, err
	}
	if caller.IsAgencyUser() {
		return relationship, nil
	}
	actingPartyID, err := s.resolveCallerParty(ctx, caller)
	if err != nil {
		return entities.Relationship{}, err
	}
	if actingPartyID != relationship.SubjectPartyID && actingPartyID != relationship.DelegatePartyID {
		return entities.Relationship{}, domainerrors.ErrAccessDenied
	}
	return relationship, nil
}

// materialiseAttributes builds attribute records from submitted pairs.
// Unresolvable attribute-name codes are skipped, not fatal, to tolerate
// drift between attribute catalogs. A nil validAt uses the
// ignoring-date-range lookup.
func (s Service) materialiseAttributes(ctx context.Context, inputs []AttributeInput, validAt *time.Time) []entities.RelationshipAttribute {
	if len(inputs) == 0 {
		return nil
	}
	attributes := make([]entities.RelationshipAttribute, 0, len(inputs))
	for _, input := range inputs {
		code := strings.TrimSpace(input.Code)
		if code == "" {
			continue
		}
		var (
			name  entities.AttributeName
			found bool
			err   error
		)
		if validAt != nil {
			name, found, err = s.RefData.FindAttributeNameValidAt(ctx, code, *validAt)
		} else {
			name, found, err = s.RefData.FindAttributeName(ctx, code)
		}
		if err != nil || !found {
			continue
		}
		attributes = append(attributes, entities.RelationshipAttribute{
			NameCode:   name.Code,
			Domain:     name.Domain,
			Classifier: name.Classifier,
			Category:   name.Category,
			Value:      input.Value,
		})
	}
	return attributes
}

func (s Service) resolveCallerParty(ctx context.Context, caller principal.Principal) (string, error) {
	if strings.TrimSpace(caller.PartyID) != "" {
		return strings.TrimSpace(caller.PartyID), nil
	}
	if strings.TrimSpace(caller.IdentityIDValue) == "" {
		return "", domainerrors.ErrAccessDenied
	}
	identity, err := s.Identities.GetIdentityByIDValue(ctx, strings.TrimSpace(caller.IdentityIDValue))
	if err != nil {
		return "", err
	}
	return identity.PartyID, nil
}

// searchText builds the denormalised display-name/identifier string used
// by case-insensitive relationship search.
func searchText(identity entities.Identity) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{
		identity.Profile.DisplayName,
		identity.Profile.GivenName,
		identity.Profile.FamilyName,
		identity.RawIDValue,
	} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}
