package httpadapter

import (
	"context"
	"log/slog"

	"mandate/contexts/identity-access/role-service/application"
	"mandate/contexts/identity-access/role-service/domain/entities"
	httptransport "mandate/contexts/identity-access/role-service/transport/http"
	"mandate/internal/shared/principal"
)

// Handler maps HTTP DTOs to application operations.
type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) AddOrModifyRoleHandler(ctx context.Context, caller principal.Principal, req httptransport.RoleRequest) (httptransport.RoleResponse, error) {
	role, err := h.Service.AddOrModifyRole(ctx, caller, roleInput(req))
	if err != nil {
		return httptransport.RoleResponse{}, err
	}
	return roleResponse(role), nil
}

func (h Handler) ModifyRoleHandler(ctx context.Context, caller principal.Principal, req httptransport.RoleRequest) (httptransport.RoleResponse, error) {
	role, err := h.Service.ModifyRole(ctx, caller, roleInput(req))
	if err != nil {
		return httptransport.RoleResponse{}, err
	}
	return roleResponse(role), nil
}

func (h Handler) GetPartyRolesHandler(ctx context.Context, partyID string) (httptransport.PartyRolesResponse, error) {
	roles, err := h.Service.GetPartyRoles(ctx, partyID)
	if err != nil {
		return httptransport.PartyRolesResponse{}, err
	}
	resp := httptransport.PartyRolesResponse{
		PartyID: partyID,
		Roles:   make([]httptransport.RoleResponse, 0, len(roles)),
	}
	for _, role := range roles {
		resp.Roles = append(resp.Roles, roleResponse(role))
	}
	return resp, nil
}

func roleInput(req httptransport.RoleRequest) application.RoleInput {
	input := application.RoleInput{
		TypeCode: req.RoleType,
		PartyID:  req.PartyID,
	}
	for _, attribute := range req.Attributes {
		input.Attributes = append(input.Attributes, application.AttributeInput{
			Code:  attribute.Code,
			Value: attribute.Value,
			EndAt: attribute.EndAt,
		})
	}
	return input
}

func roleResponse(role entities.Role) httptransport.RoleResponse {
	resp := httptransport.RoleResponse{
		RoleID:    role.RoleID,
		RoleType:  role.TypeCode,
		PartyID:   role.PartyID,
		Status:    string(role.Status),
		CreatedAt: role.CreatedAt,
		UpdatedAt: role.UpdatedAt,
	}
	for _, attribute := range role.Attributes {
		resp.Attributes = append(resp.Attributes, httptransport.RoleAttributeDTO{
			Code:       attribute.NameCode,
			Value:      attribute.Value,
			Domain:     string(attribute.Domain),
			Classifier: string(attribute.Classifier),
			Category:   attribute.Category,
			EndAt:      attribute.EndAt,
		})
	}
	return resp
}
