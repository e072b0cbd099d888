package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"mandate/contexts/identity-access/authorisation-service/domain/entities"
	domainerrors "mandate/contexts/identity-access/authorisation-service/domain/errors"
	"mandate/internal/shared/principal"
)

func createInvitation(t *testing.T, svc Service, subjectIDValue string, given string, family string) entities.Relationship {
	t.Helper()
	relationship, err := svc.CreateInvitationRelationship(context.Background(), CreateInvitationRelationshipInput{
		TypeCode:             "ASSOCIATE",
		SubjectIDValue:       subjectIDValue,
		DelegateGivenName:    given,
		DelegateFamilyName:   family,
		DelegateSharedSecret: "1990-01-15",
		StartAt:              time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create invitation relationship: %v", err)
	}
	return relationship
}

func TestInvitationLifecycleClaimThenAccept(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	relationship := createInvitation(t, svc, subject.IDValue, "Jane", "Doe")

	if relationship.Status != entities.RelationshipPending {
		t.Fatalf("expected PENDING, got %s", relationship.Status)
	}
	if relationship.SubjectPartyID != subject.PartyID {
		t.Fatalf("subject party mismatch")
	}

	invitation, err := store.GetIdentityByIDValue(ctx, relationship.InvitationIDValue)
	if err != nil {
		t.Fatalf("load invitation identity: %v", err)
	}
	if len(invitation.RawIDValue) != 8 {
		t.Fatalf("expected 8-char invitation code, got %q", invitation.RawIDValue)
	}
	if invitation.InvitationCodeStatus != entities.InvitationCodePending {
		t.Fatalf("expected PENDING invitation code, got %s", invitation.InvitationCodeStatus)
	}
	if invitation.InvitationCodeExpiresAt == nil {
		t.Fatalf("expected invitation expiry to be set")
	}

	// Claimant authenticates with different casing; name match is
	// case-insensitive.
	claimant := createPerson(t, svc, "user-jane", "JANE", "DOE")
	claimed, err := svc.Claim(ctx, relationship.RelationshipID, claimant.IDValue, "51824753556")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.DelegatePartyID != claimant.PartyID {
		t.Fatalf("expected delegate repointed to claimant party")
	}
	if claimed.Status != entities.RelationshipPending {
		t.Fatalf("claiming must not accept, got %s", claimed.Status)
	}

	invitation, err = store.GetIdentityByIDValue(ctx, relationship.InvitationIDValue)
	if err != nil {
		t.Fatalf("reload invitation identity: %v", err)
	}
	if invitation.InvitationCodeStatus != entities.InvitationCodeClaimed {
		t.Fatalf("expected CLAIMED invitation code, got %s", invitation.InvitationCodeStatus)
	}
	if invitation.InvitationCodeClaimedAt == nil {
		t.Fatalf("expected claimed-at to be recorded")
	}

	accepted, err := svc.Accept(ctx, principal.Principal{IdentityIDValue: claimant.IDValue}, relationship.RelationshipID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != entities.RelationshipAccepted {
		t.Fatalf("expected ACCEPTED, got %s", accepted.Status)
	}
}

func TestClaimIsIdempotentForCurrentDelegate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	relationship := createInvitation(t, svc, subject.IDValue, "Jane", "Doe")
	claimant := createPerson(t, svc, "user-jane", "Jane", "Doe")

	if _, err := svc.Claim(ctx, relationship.RelationshipID, claimant.IDValue, ""); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	again, err := svc.Claim(ctx, relationship.RelationshipID, claimant.IDValue, "")
	if err != nil {
		t.Fatalf("retried claim must succeed: %v", err)
	}
	if again.DelegatePartyID != claimant.PartyID {
		t.Fatalf("retried claim changed the delegate")
	}
}

func TestClaimRejectsNameMismatch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	relationship := createInvitation(t, svc, subject.IDValue, "Jane", "Doe")
	impostor := createPerson(t, svc, "user-janet", "Janet", "Doe")

	_, err := svc.Claim(ctx, relationship.RelationshipID, impostor.IDValue, "")
	if !errors.Is(err, domainerrors.ErrClaimantNameMismatch) {
		t.Fatalf("expected ErrClaimantNameMismatch, got %v", err)
	}
}

func TestClaimRejectsExpiredInvitation(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	relationship := createInvitation(t, svc, subject.IDValue, "Jane", "Doe")
	claimant := createPerson(t, svc, "user-jane", "Jane", "Doe")

	clock.Advance(8 * 24 * time.Hour)

	_, err := svc.Claim(ctx, relationship.RelationshipID, claimant.IDValue, "")
	if !errors.Is(err, domainerrors.ErrInvitationExpired) {
		t.Fatalf("expected ErrInvitationExpired, got %v", err)
	}
}

func TestClaimRejectsWrongBusinessNumber(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	relationship := createInvitation(t, svc, subject.IDValue, "Jane", "Doe")
	claimant := createPerson(t, svc, "user-jane", "Jane", "Doe")

	_, err := svc.Claim(ctx, relationship.RelationshipID, claimant.IDValue, "53004085616")
	if !errors.Is(err, domainerrors.ErrBusinessNumberMismatch) {
		t.Fatalf("expected ErrBusinessNumberMismatch, got %v", err)
	}
}

func TestAcceptRequiresCurrentDelegate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	relationship := createInvitation(t, svc, subject.IDValue, "Jane", "Doe")
	bystander := createPerson(t, svc, "user-someone", "Sam", "Smith")

	_, err := svc.Accept(ctx, principal.Principal{IdentityIDValue: bystander.IDValue}, relationship.RelationshipID)
	if !errors.Is(err, domainerrors.ErrNotCurrentDelegate) {
		t.Fatalf("expected ErrNotCurrentDelegate, got %v", err)
	}
}

func TestAcceptFailsOnceNoLongerPending(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	relationship := createInvitation(t, svc, subject.IDValue, "Jane", "Doe")
	claimant := createPerson(t, svc, "user-jane", "Jane", "Doe")
	caller := principal.Principal{IdentityIDValue: claimant.IDValue}

	if _, err := svc.Claim(ctx, relationship.RelationshipID, claimant.IDValue, ""); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := svc.Accept(ctx, caller, relationship.RelationshipID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	_, err := svc.Accept(ctx, caller, relationship.RelationshipID)
	if !errors.Is(err, domainerrors.ErrRelationshipNotPending) {
		t.Fatalf("expected ErrRelationshipNotPending, got %v", err)
	}
}

func TestRejectMarksInvitationRejected(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	relationship := createInvitation(t, svc, subject.IDValue, "Jane", "Doe")
	claimant := createPerson(t, svc, "user-jane", "Jane", "Doe")

	if _, err := svc.Claim(ctx, relationship.RelationshipID, claimant.IDValue, ""); err != nil {
		t.Fatalf("claim: %v", err)
	}
	declined, err := svc.Reject(ctx, principal.Principal{IdentityIDValue: claimant.IDValue}, relationship.RelationshipID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if declined.Status != entities.RelationshipDeclined {
		t.Fatalf("expected DECLINED, got %s", declined.Status)
	}

	invitation, err := store.GetIdentityByIDValue(ctx, relationship.InvitationIDValue)
	if err != nil {
		t.Fatalf("load invitation identity: %v", err)
	}
	if invitation.InvitationCodeStatus != entities.InvitationCodeRejected {
		t.Fatalf("expected REJECTED invitation code, got %s", invitation.InvitationCodeStatus)
	}
}

func TestCreateRelationshipAutoAcceptsDelegateInitiatedOSP(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	provider := registerBusiness(t, svc, "53004085616")

	relationship, err := svc.CreateRelationship(ctx, CreateRelationshipInput{
		TypeCode:        "OSP",
		SubjectIDValue:  subject.IDValue,
		DelegateIDValue: provider.IDValue,
		InitiatedBy:     entities.InitiatedByDelegate,
		StartAt:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create relationship: %v", err)
	}
	if relationship.Status != entities.RelationshipAccepted {
		t.Fatalf("delegate-initiated OSP should auto-accept, got %s", relationship.Status)
	}
}

func TestCreateRelationshipSubjectInitiatedOSPStaysPending(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	provider := registerBusiness(t, svc, "53004085616")

	relationship, err := svc.CreateRelationship(ctx, CreateRelationshipInput{
		TypeCode:        "OSP",
		SubjectIDValue:  subject.IDValue,
		DelegateIDValue: provider.IDValue,
		InitiatedBy:     entities.InitiatedBySubject,
		StartAt:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create relationship: %v", err)
	}
	if relationship.Status != entities.RelationshipPending {
		t.Fatalf("subject-initiated OSP should stay pending, got %s", relationship.Status)
	}
}

func TestNotifyDelegateRecordsEmailAndEnqueues(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	relationship := createInvitation(t, svc, subject.IDValue, "Jane", "Doe")

	if err := svc.NotifyDelegate(ctx, relationship.RelationshipID, "jane@example.com"); err != nil {
		t.Fatalf("notify delegate: %v", err)
	}

	invitation, err := store.GetIdentityByIDValue(ctx, relationship.InvitationIDValue)
	if err != nil {
		t.Fatalf("load invitation identity: %v", err)
	}
	if invitation.InvitationCodeTempEmail != "jane@example.com" {
		t.Fatalf("expected temp email recorded, got %q", invitation.InvitationCodeTempEmail)
	}

	pending, err := store.ListPendingNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending notification, got %d", len(pending))
	}
	if pending[0].RelationshipID != relationship.RelationshipID {
		t.Fatalf("notification relationship mismatch")
	}
	if pending[0].Email != "jane@example.com" {
		t.Fatalf("expected email on notification, got %q", pending[0].Email)
	}
	if pending[0].InvitationCode != invitation.RawIDValue {
		t.Fatalf("expected invitation code on notification")
	}

	relationship, err = svc.GetRelationship(ctx, principal.Principal{PartyID: subject.PartyID}, relationship.RelationshipID)
	if err != nil {
		t.Fatalf("reload relationship: %v", err)
	}
	if relationship.Status != entities.RelationshipPending {
		t.Fatalf("notify must not change status, got %s", relationship.Status)
	}
}

func TestModifyRelationshipNormalisesWindowToMidnight(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	delegate := createPerson(t, svc, "user-jane", "Jane", "Doe")

	relationship, err := svc.CreateRelationship(ctx, CreateRelationshipInput{
		TypeCode:        "ASSOCIATE",
		SubjectIDValue:  subject.IDValue,
		DelegateIDValue: delegate.IDValue,
		InitiatedBy:     entities.InitiatedBySubject,
		StartAt:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create relationship: %v", err)
	}

	end := time.Date(2024, time.June, 30, 17, 45, 0, 0, time.UTC)
	modified, err := svc.ModifyRelationship(ctx, relationship.RelationshipID, ModifyRelationshipInput{
		TypeCode:        "ASSOCIATE",
		SubjectIDValue:  subject.IDValue,
		DelegateIDValue: delegate.IDValue,
		StartAt:         time.Date(2024, time.March, 10, 9, 15, 0, 0, time.UTC),
		EndAt:           &end,
		Attributes:      []AttributeInput{{Code: "NOTES", Value: "reviewed"}},
	})
	if err != nil {
		t.Fatalf("modify relationship: %v", err)
	}

	wantStart := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	if !modified.StartAt.Equal(wantStart) {
		t.Fatalf("expected start %v, got %v", wantStart, modified.StartAt)
	}
	wantEnd := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	if modified.EndAt == nil || !modified.EndAt.Equal(wantEnd) {
		t.Fatalf("expected end %v, got %v", wantEnd, modified.EndAt)
	}
	if modified.EndEventAt == nil || !modified.EndEventAt.Equal(clock.Now()) {
		t.Fatalf("expected end event time to be the modification time")
	}
	if len(modified.Attributes) != 1 || modified.Attributes[0].NameCode != "NOTES" {
		t.Fatalf("expected rebuilt attribute set, got %+v", modified.Attributes)
	}

	cleared, err := svc.ModifyRelationship(ctx, relationship.RelationshipID, ModifyRelationshipInput{
		TypeCode:        "ASSOCIATE",
		SubjectIDValue:  subject.IDValue,
		DelegateIDValue: delegate.IDValue,
		StartAt:         wantStart,
	})
	if err != nil {
		t.Fatalf("clear end: %v", err)
	}
	if cleared.EndAt != nil || cleared.EndEventAt != nil {
		t.Fatalf("expected end and end event cleared together")
	}
}

func TestCreateInvitationRelationshipSkipsUnknownAttributeCodes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	subject := registerBusiness(t, svc, "51824753556")
	relationship, err := svc.CreateInvitationRelationship(ctx, CreateInvitationRelationshipInput{
		TypeCode:             "ASSOCIATE",
		SubjectIDValue:       subject.IDValue,
		DelegateGivenName:    "Jane",
		DelegateFamilyName:   "Doe",
		DelegateSharedSecret: "1990-01-15",
		StartAt:              time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Attributes: []AttributeInput{
			{Code: "NOTES", Value: "seasonal"},
			{Code: "NO_SUCH_ATTRIBUTE", Value: "x"},
		},
	})
	if err != nil {
		t.Fatalf("create invitation relationship: %v", err)
	}
	if len(relationship.Attributes) != 1 || relationship.Attributes[0].NameCode != "NOTES" {
		t.Fatalf("expected unknown codes skipped, got %+v", relationship.Attributes)
	}
}
