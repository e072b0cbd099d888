package unit

import (
	"context"
	"errors"
	"testing"

	role "mandate/contexts/identity-access/role-service"
	domainerrors "mandate/contexts/identity-access/role-service/domain/errors"
	httptransport "mandate/contexts/identity-access/role-service/transport/http"
	"mandate/internal/shared/principal"
)

func taxAdminCaller() principal.Principal {
	return principal.Principal{AgencyUser: &principal.AgencyUser{
		ID:          "tax-1",
		DisplayName: "Tax Admin",
		Agency:      "ATO",
		ProgramRoles: []principal.ProgramRole{
			{Program: "TAX", Role: principal.RoleAdmin},
		},
	}}
}

func TestRoleReconciliationAndSuspension(t *testing.T) {
	module := role.NewInMemoryModule(nil)
	ctx := context.Background()
	caller := taxAdminCaller()

	created, err := module.Handler.AddOrModifyRoleHandler(ctx, caller, httptransport.RoleRequest{
		RoleType: "BUSINESS",
		PartyID:  "party-1",
		Attributes: []httptransport.RoleAttributeDTO{
			{Code: "TAX_LODGEMENT_ACCESS", Value: "true"},
		},
	})
	if err != nil {
		t.Fatalf("add role failed: %v", err)
	}
	if created.Status != "ACTIVE" {
		t.Fatalf("expected ACTIVE role, got %s", created.Status)
	}

	hasCreator := false
	for _, attribute := range created.Attributes {
		if attribute.Code == "CREATOR_ID" && attribute.Value == "tax-1" {
			hasCreator = true
		}
	}
	if !hasCreator {
		t.Fatalf("expected provenance attributes on role")
	}

	// Modify without resupplying: the grant is lost and the role suspends.
	suspended, err := module.Handler.ModifyRoleHandler(ctx, caller, httptransport.RoleRequest{
		RoleType: "BUSINESS",
		PartyID:  "party-1",
	})
	if err != nil {
		t.Fatalf("modify role failed: %v", err)
	}
	if suspended.Status != "SUSPENDED" {
		t.Fatalf("expected SUSPENDED role, got %s", suspended.Status)
	}
	if suspended.RoleID != created.RoleID {
		t.Fatalf("modify must reconcile onto the same role")
	}
}

func TestRoleOperationsRequireAgencyCaller(t *testing.T) {
	module := role.NewInMemoryModule(nil)

	_, err := module.Handler.AddOrModifyRoleHandler(context.Background(), principal.Principal{PartyID: "party-1"}, httptransport.RoleRequest{
		RoleType: "BUSINESS",
		PartyID:  "party-1",
	})
	if !errors.Is(err, domainerrors.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
}

func TestGetPartyRoles(t *testing.T) {
	module := role.NewInMemoryModule(nil)
	ctx := context.Background()
	caller := taxAdminCaller()

	if _, err := module.Handler.AddOrModifyRoleHandler(ctx, caller, httptransport.RoleRequest{
		RoleType: "BUSINESS",
		PartyID:  "party-1",
		Attributes: []httptransport.RoleAttributeDTO{
			{Code: "TAX_LODGEMENT_ACCESS", Value: "true"},
		},
	}); err != nil {
		t.Fatalf("add role failed: %v", err)
	}

	roles, err := module.Handler.GetPartyRolesHandler(ctx, "party-1")
	if err != nil {
		t.Fatalf("get party roles failed: %v", err)
	}
	if len(roles.Roles) != 1 || roles.Roles[0].RoleType != "BUSINESS" {
		t.Fatalf("unexpected roles %+v", roles.Roles)
	}
}
