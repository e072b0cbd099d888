package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	authorisation "mandate/contexts/identity-access/authorisation-service"
	domainerrors "mandate/contexts/identity-access/authorisation-service/domain/errors"
	"mandate/contexts/identity-access/authorisation-service/ports"
	httptransport "mandate/contexts/identity-access/authorisation-service/transport/http"
	"mandate/internal/shared/principal"
)

func registerBusiness(t *testing.T, module authorisation.Module, number string) httptransport.IdentityResponse {
	t.Helper()
	identity, err := module.Handler.RegisterBusinessHandler(
		context.Background(),
		httptransport.RegisterBusinessRequest{BusinessNumber: number},
	)
	if err != nil {
		t.Fatalf("register business failed: %v", err)
	}
	return identity
}

func createLinkIdentity(t *testing.T, module authorisation.Module, raw string, given string, family string) httptransport.IdentityResponse {
	t.Helper()
	identity, err := module.Handler.CreateIdentityHandler(
		context.Background(),
		httptransport.CreateIdentityRequest{
			PartyType:    "INDIVIDUAL",
			IdentityType: "LINK_ID",
			LinkIDScheme: "AUTH_PROVIDER",
			RawIDValue:   raw,
			DefaultInd:   true,
			Profile: httptransport.ProfileDTO{
				GivenName:   given,
				FamilyName:  family,
				DisplayName: given + " " + family,
			},
		},
	)
	if err != nil {
		t.Fatalf("create identity failed: %v", err)
	}
	return identity
}

func TestInvitationFlowEndToEnd(t *testing.T) {
	module := authorisation.NewInMemoryModule(nil)
	ctx := context.Background()

	subject := registerBusiness(t, module, "51824753556")

	relationship, err := module.Handler.CreateInvitationRelationshipHandler(ctx, httptransport.CreateInvitationRelationshipRequest{
		RelationshipType:   "ASSOCIATE",
		SubjectIDValue:     subject.IDValue,
		DelegateGivenName:  "Jane",
		DelegateFamilyName: "Doe",
		DelegateDOB:        "1990-01-15",
		StartTimestamp:     time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("create invitation failed: %v", err)
	}
	if relationship.Status != "PENDING" {
		t.Fatalf("expected PENDING relationship, got %s", relationship.Status)
	}
	if relationship.InvitationIDValue == "" {
		t.Fatalf("expected invitation identity on relationship")
	}

	claimant := createLinkIdentity(t, module, "user-jane", "Jane", "Doe")

	claimed, err := module.Handler.ClaimRelationshipHandler(ctx, relationship.RelationshipID, httptransport.ClaimRelationshipRequest{
		ClaimantIDValue: claimant.IDValue,
		BusinessNumber:  "51824753556",
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed.DelegatePartyID != claimant.PartyID {
		t.Fatalf("expected delegate repointed to claimant")
	}

	caller := principal.Principal{IdentityIDValue: claimant.IDValue}
	accepted, err := module.Handler.AcceptRelationshipHandler(ctx, caller, relationship.RelationshipID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != "ACCEPTED" {
		t.Fatalf("expected ACCEPTED, got %s", accepted.Status)
	}

	access, err := module.Handler.CheckAccessHandler(ctx, caller, subject.IDValue)
	if err != nil {
		t.Fatalf("access check failed: %v", err)
	}
	if !access.HasAccess {
		t.Fatalf("accepted delegate should have access to its subject")
	}
}

func TestClaimWithWrongNameRejected(t *testing.T) {
	module := authorisation.NewInMemoryModule(nil)
	ctx := context.Background()

	subject := registerBusiness(t, module, "51824753556")
	relationship, err := module.Handler.CreateInvitationRelationshipHandler(ctx, httptransport.CreateInvitationRelationshipRequest{
		RelationshipType:   "ASSOCIATE",
		SubjectIDValue:     subject.IDValue,
		DelegateGivenName:  "Jane",
		DelegateFamilyName: "Doe",
		StartTimestamp:     time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("create invitation failed: %v", err)
	}

	impostor := createLinkIdentity(t, module, "user-janet", "Janet", "Doe")
	_, err = module.Handler.ClaimRelationshipHandler(ctx, relationship.RelationshipID, httptransport.ClaimRelationshipRequest{
		ClaimantIDValue: impostor.IDValue,
	})
	if !errors.Is(err, domainerrors.ErrClaimantNameMismatch) {
		t.Fatalf("expected claimant name mismatch, got %v", err)
	}
}

func TestSearchRelationshipsPinnedToCaller(t *testing.T) {
	module := authorisation.NewInMemoryModule(nil)
	ctx := context.Background()

	business := registerBusiness(t, module, "51824753556")
	other := registerBusiness(t, module, "53004085616")
	agent := createLinkIdentity(t, module, "user-agent", "Ana", "Lopez")

	if _, err := module.Handler.CreateRelationshipHandler(ctx, httptransport.CreateRelationshipRequest{
		RelationshipType: "UNIVERSAL",
		SubjectIDValue:   business.IDValue,
		DelegateIDValue:  agent.IDValue,
		InitiatedBy:      "SUBJECT",
		StartTimestamp:   time.Now().UTC().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("create relationship failed: %v", err)
	}
	outsider := createLinkIdentity(t, module, "user-outsider", "Ben", "Kim")
	if _, err := module.Handler.CreateRelationshipHandler(ctx, httptransport.CreateRelationshipRequest{
		RelationshipType: "UNIVERSAL",
		SubjectIDValue:   other.IDValue,
		DelegateIDValue:  outsider.IDValue,
		InitiatedBy:      "SUBJECT",
		StartTimestamp:   time.Now().UTC().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("create relationship failed: %v", err)
	}

	page, err := module.Handler.SearchRelationshipsHandler(ctx,
		principal.Principal{IdentityIDValue: agent.IDValue},
		ports.RelationshipFilter{}, ports.Page{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected caller pinned to 1 relationship, got %d", page.TotalCount)
	}
	if page.Relationships[0].DelegatePartyID != agent.PartyID {
		t.Fatalf("unexpected relationship in result")
	}
}

func TestBusinessRegistrySearch(t *testing.T) {
	module := authorisation.NewInMemoryModule(nil)

	records, err := module.Handler.SearchBusinessHandler(context.Background(), "holdings")
	if err != nil {
		t.Fatalf("registry search failed: %v", err)
	}
	if len(records) != 1 || records[0].BusinessNumber != "51824753556" {
		t.Fatalf("unexpected registry records %+v", records)
	}
}
