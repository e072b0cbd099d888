package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mandate/contexts/identity-access/authorisation-service/application"
	"mandate/contexts/identity-access/authorisation-service/domain/entities"
	"mandate/contexts/identity-access/authorisation-service/ports"
	httptransport "mandate/contexts/identity-access/authorisation-service/transport/http"
	"mandate/internal/shared/principal"
)

// Handler maps HTTP DTOs to application operations.
type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateIdentityHandler(ctx context.Context, req httptransport.CreateIdentityRequest) (httptransport.IdentityResponse, error) {
	identity, err := h.Service.CreateIdentity(ctx, application.CreateIdentityInput{
		PartyID:                req.PartyID,
		PartyType:              entities.PartyType(strings.ToUpper(strings.TrimSpace(req.PartyType))),
		Type:                   entities.IdentityType(strings.ToUpper(strings.TrimSpace(req.IdentityType))),
		RawIDValue:             req.RawIDValue,
		AgencyScheme:           req.AgencyScheme,
		AgencyToken:            req.AgencyToken,
		LinkIDScheme:           req.LinkIDScheme,
		PublicIdentifierScheme: req.PublicIdentifierScheme,
		DefaultInd:             req.DefaultInd,
		Profile:                profileFromDTO(req.Profile),
	})
	if err != nil {
		return httptransport.IdentityResponse{}, err
	}
	return identityResponse(identity), nil
}

func (h Handler) GetIdentityHandler(ctx context.Context, caller principal.Principal, idValue string) (httptransport.IdentityResponse, error) {
	identity, err := h.Service.GetIdentity(ctx, caller, idValue)
	if err != nil {
		return httptransport.IdentityResponse{}, err
	}
	return identityResponse(identity), nil
}

func (h Handler) CreateInvitationRelationshipHandler(ctx context.Context, req httptransport.CreateInvitationRelationshipRequest) (httptransport.RelationshipResponse, error) {
	relationship, err := h.Service.CreateInvitationRelationship(ctx, application.CreateInvitationRelationshipInput{
		TypeCode:             req.RelationshipType,
		SubjectIDValue:       req.SubjectIDValue,
		DelegateGivenName:    req.DelegateGivenName,
		DelegateFamilyName:   req.DelegateFamilyName,
		DelegateSharedSecret: req.DelegateDOB,
		StartAt:              req.StartTimestamp,
		EndAt:                req.EndTimestamp,
		Attributes:           attributeInputs(req.Attributes),
	})
	if err != nil {
		return httptransport.RelationshipResponse{}, err
	}
	return relationshipResponse(relationship), nil
}

func (h Handler) CreateRelationshipHandler(ctx context.Context, req httptransport.CreateRelationshipRequest) (httptransport.RelationshipResponse, error) {
	relationship, err := h.Service.CreateRelationship(ctx, application.CreateRelationshipInput{
		TypeCode:        req.RelationshipType,
		SubjectIDValue:  req.SubjectIDValue,
		DelegateIDValue: req.DelegateIDValue,
		InitiatedBy:     entities.InitiatedBy(strings.ToUpper(strings.TrimSpace(req.InitiatedBy))),
		StartAt:         req.StartTimestamp,
		EndAt:           req.EndTimestamp,
		Attributes:      attributeInputs(req.Attributes),
	})
	if err != nil {
		return httptransport.RelationshipResponse{}, err
	}
	return relationshipResponse(relationship), nil
}

func (h Handler) ClaimRelationshipHandler(ctx context.Context, relationshipID string, req httptransport.ClaimRelationshipRequest) (httptransport.RelationshipResponse, error) {
	relationship, err := h.Service.Claim(ctx, relationshipID, req.ClaimantIDValue, req.BusinessNumber)
	if err != nil {
		return httptransport.RelationshipResponse{}, err
	}
	return relationshipResponse(relationship), nil
}

func (h Handler) AcceptRelationshipHandler(ctx context.Context, caller principal.Principal, relationshipID string) (httptransport.RelationshipResponse, error) {
	relationship, err := h.Service.Accept(ctx, caller, relationshipID)
	if err != nil {
		return httptransport.RelationshipResponse{}, err
	}
	return relationshipResponse(relationship), nil
}

func (h Handler) RejectRelationshipHandler(ctx context.Context, caller principal.Principal, relationshipID string) (httptransport.RelationshipResponse, error) {
	relationship, err := h.Service.Reject(ctx, caller, relationshipID)
	if err != nil {
		return httptransport.RelationshipResponse{}, err
	}
	return relationshipResponse(relationship), nil
}

func (h Handler) NotifyDelegateHandler(ctx context.Context, relationshipID string, req httptransport.NotifyDelegateRequest) error {
	return h.Service.NotifyDelegate(ctx, relationshipID, req.Email)
}

func (h Handler) ModifyRelationshipHandler(ctx context.Context, relationshipID string, req httptransport.ModifyRelationshipRequest) (httptransport.RelationshipResponse, error) {
	relationship, err := h.Service.ModifyRelationship(ctx, relationshipID, application.ModifyRelationshipInput{
		TypeCode:        req.RelationshipType,
		SubjectIDValue:  req.SubjectIDValue,
		DelegateIDValue: req.DelegateIDValue,
		StartAt:         req.StartTimestamp,
		EndAt:           req.EndTimestamp,
		Attributes:      attributeInputs(req.Attributes),
	})
	if err != nil {
		return httptransport.RelationshipResponse{}, err
	}
	return relationshipResponse(relationship), nil
}

func (h Handler) GetRelationshipHandler(ctx context.Context, caller principal.Principal, relationshipID string) (httptransport.RelationshipResponse, error) {
	relationship, err := h.Service.GetRelationship(ctx, caller, relationshipID)
	if err != nil {
		return httptransport.RelationshipResponse{}, err
	}
	return relationshipResponse(relationship), nil
}

func (h Handler) CheckAccessHandler(ctx context.Context, caller principal.Principal, idValue string) (httptransport.AccessResponse, error) {
	now := time.Now().UTC()
	allowed, err := h.Service.HasAccess(ctx, caller, idValue, now)
	if err != nil {
		return httptransport.AccessResponse{}, err
	}
	return httptransport.AccessResponse{
		IDValue:   idValue,
		HasAccess: allowed,
		CheckedAt: now,
	}, nil
}

func (h Handler) SearchRelationshipsHandler(ctx context.Context, caller principal.Principal, filter ports.RelationshipFilter, page ports.Page) (httptransport.SearchRelationshipsResponse, error) {
	result, err := h.Service.SearchRelationships(ctx, caller, filter, page)
	if err != nil {
		return httptransport.SearchRelationshipsResponse{}, err
	}
	resp := httptransport.SearchRelationshipsResponse{
		Relationships: make([]httptransport.RelationshipResponse, 0, len(result.Items)),
		TotalCount:    result.TotalCount,
		Page:          result.Page,
		PageSize:      result.PageSize,
	}
	for _, relationship := range result.Items {
		resp.Relationships = append(resp.Relationships, relationshipResponse(relationship))
	}
	return resp, nil
}

func (h Handler) RegisterBusinessHandler(ctx context.Context, req httptransport.RegisterBusinessRequest) (httptransport.IdentityResponse, error) {
	identity, err := h.Service.RegisterBusinessParty(ctx, req.BusinessNumber)
	if err != nil {
		return httptransport.IdentityResponse{}, err
	}
	return identityResponse(identity), nil
}

func (h Handler) SearchBusinessHandler(ctx context.Context, name string) ([]httptransport.BusinessRecordDTO, error) {
	records, err := h.Service.SearchBusinessRegistry(ctx, name)
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.BusinessRecordDTO, 0, len(records))
	for _, record := range records {
		items = append(items, httptransport.BusinessRecordDTO{
			BusinessNumber: record.BusinessNumber,
			Name:           record.Name,
		})
	}
	return items, nil
}

func profileFromDTO(dto httptransport.ProfileDTO) entities.Profile {
	profile := entities.Profile{
		Provider:    dto.Provider,
		GivenName:   dto.GivenName,
		FamilyName:  dto.FamilyName,
		DisplayName: dto.DisplayName,
	}
	for secretType, value := range dto.SharedSecrets {
		profile.SharedSecrets = append(profile.SharedSecrets, entities.SharedSecret{
			Type:  secretType,
			Value: value,
		})
	}
	return profile
}

func identityResponse(identity entities.Identity) httptransport.IdentityResponse {
	return httptransport.IdentityResponse{
		IdentityID:           identity.IdentityID,
		PartyID:              identity.PartyID,
		IDValue:              identity.IDValue,
		RawIDValue:           identity.RawIDValue,
		IdentityType:         string(identity.Type),
		DefaultInd:           identity.DefaultInd,
		InvitationCodeStatus: string(identity.InvitationCodeStatus),
		InvitationExpiresAt:  identity.InvitationCodeExpiresAt,
		Profile: httptransport.ProfileDTO{
			Provider:    identity.Profile.Provider,
			GivenName:   identity.Profile.GivenName,
			FamilyName:  identity.Profile.FamilyName,
			DisplayName: identity.Profile.DisplayName,
		},
	}
}

func relationshipResponse(relationship entities.Relationship) httptransport.RelationshipResponse {
	resp := httptransport.RelationshipResponse{
		RelationshipID:    relationship.RelationshipID,
		RelationshipType:  relationship.TypeCode,
		SubjectPartyID:    relationship.SubjectPartyID,
		DelegatePartyID:   relationship.DelegatePartyID,
		Status:            string(relationship.Status),
		InitiatedBy:       string(relationship.InitiatedBy),
		InvitationIDValue: relationship.InvitationIDValue,
		StartTimestamp:    relationship.StartAt,
		EndTimestamp:      relationship.EndAt,
	}
	for _, attribute := range relationship.Attributes {
		resp.Attributes = append(resp.Attributes, httptransport.AttributeDTO{
			Code:  attribute.NameCode,
			Value: attribute.Value,
		})
	}
	return resp
}

func attributeInputs(dtos []httptransport.AttributeDTO) []application.AttributeInput {
	if len(dtos) == 0 {
		return nil
	}
	inputs := make([]application.AttributeInput, 0, len(dtos))
	for _, dto := range dtos {
		inputs = append(inputs, application.AttributeInput{Code: dto.Code, Value: dto.Value})
	}
	return inputs
}
