package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"mandate/contexts/identity-access/authorisation-service/domain/entities"
	domainerrors "mandate/contexts/identity-access/authorisation-service/domain/errors"
)

func TestCreateIdentityDerivesCanonicalValue(t *testing.T) {
	svc, _, _ := newTestService(t)

	identity, err := svc.CreateIdentity(context.Background(), CreateIdentityInput{
		PartyType:              entities.PartyTypeABN,
		Type:                   entities.IdentityTypePublicIdentifier,
		PublicIdentifierScheme: "ABN",
		RawIDValue:             "51824753556",
		DefaultInd:             true,
	})
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	if identity.IDValue != "PUBLIC_IDENTIFIER:ABN:51824753556" {
		t.Fatalf("unexpected id value %q", identity.IDValue)
	}
	if identity.PartyID == "" || identity.IdentityID == "" {
		t.Fatalf("expected generated party and identity ids")
	}
}

func TestCreateIdentityAllocatesInvitationCode(t *testing.T) {
	svc, _, clock := newTestService(t)

	identity, err := svc.CreateIdentity(context.Background(), CreateIdentityInput{
		PartyType: entities.PartyTypeIndividual,
		Type:      entities.IdentityTypeInvitationCode,
		Profile:   entities.Profile{GivenName: "Jane", FamilyName: "Doe"},
	})
	if err != nil {
		t.Fatalf("create invitation identity: %v", err)
	}
	if len(identity.RawIDValue) != 8 {
		t.Fatalf("expected allocated 8-char code, got %q", identity.RawIDValue)
	}
	if identity.IDValue != "INVITATION_CODE:"+identity.RawIDValue {
		t.Fatalf("unexpected id value %q", identity.IDValue)
	}
	if identity.InvitationCodeStatus != entities.InvitationCodePending {
		t.Fatalf("expected PENDING code, got %s", identity.InvitationCodeStatus)
	}
	wantExpiry := clock.Now().Add(7 * 24 * time.Hour)
	if identity.InvitationCodeExpiresAt == nil || !identity.InvitationCodeExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, identity.InvitationCodeExpiresAt)
	}
}

func TestCreateIdentityRejectsMissingRawValue(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateIdentity(context.Background(), CreateIdentityInput{
		PartyType:    entities.PartyTypeIndividual,
		Type:         entities.IdentityTypeLinkID,
		LinkIDScheme: "AUTH_PROVIDER",
	})
	if !errors.Is(err, domainerrors.ErrInvalidIdentityInput) {
		t.Fatalf("expected ErrInvalidIdentityInput, got %v", err)
	}
}

func TestRegisterBusinessPartyIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.RegisterBusinessParty(ctx, "51824753556")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Profile.DisplayName != "Example Holdings Pty Ltd" {
		t.Fatalf("expected registry name, got %q", first.Profile.DisplayName)
	}

	second, err := svc.RegisterBusinessParty(ctx, "51824753556")
	if err != nil {
		t.Fatalf("repeat register: %v", err)
	}
	if second.PartyID != first.PartyID {
		t.Fatalf("repeat register created a new party")
	}
}

func TestRegisterBusinessPartyUnknownNumber(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RegisterBusinessParty(context.Background(), "99999999999")
	if !errors.Is(err, domainerrors.ErrBusinessNotFound) {
		t.Fatalf("expected ErrBusinessNotFound, got %v", err)
	}
}

func TestSearchBusinessRegistryByName(t *testing.T) {
	svc, _, _ := newTestService(t)

	records, err := svc.SearchBusinessRegistry(context.Background(), "holdings")
	if err != nil {
		t.Fatalf("search registry: %v", err)
	}
	if len(records) != 1 || records[0].BusinessNumber != "51824753556" {
		t.Fatalf("unexpected registry result %+v", records)
	}

	if _, err := svc.SearchBusinessRegistry(context.Background(), "  "); !errors.Is(err, domainerrors.ErrInvalidIdentityInput) {
		t.Fatalf("expected ErrInvalidIdentityInput for blank name, got %v", err)
	}
}
