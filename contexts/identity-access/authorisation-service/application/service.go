package application

import (
	"context"
	"log/slog"
	"time"

	"mandate/contexts/identity-access/authorisation-service/domain/services"
	"mandate/contexts/identity-access/authorisation-service/ports"
)

// Service exposes every core operation over parties, identities,
// relationships and the access graph. All collaborators arrive as explicit
// ports; there is no import-time wiring.
type Service struct {
	Parties       ports.PartyRepository
	Identities    ports.IdentityRepository
	Relationships ports.RelationshipRepository
	RefData       ports.ReferenceDataCatalog
	Sequences     ports.SequenceAllocator
	Registry      ports.BusinessRegistry
	Notifications ports.NotificationOutbox
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	CodeEncoder   services.CodeEncoder
	// InvitationTTL is the hard invitation-code expiry window (7 days in
	// the reference policy).
	InvitationTTL time.Duration
	Logger        *slog.Logger
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) invitationTTL() time.Duration {
	if s.InvitationTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.InvitationTTL
}

func (s Service) newID(ctx context.Context) (string, error) {
	return s.IDGenerator.NewID(ctx)
}

// startOfDay truncates a timestamp to midnight UTC. Modify normalises both
// window timestamps this way before persisting.
func startOfDay(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}

func notificationMessage(notificationID string, relationshipID string, email string, code string, createdAt time.Time) ports.NotificationMessage {
	return ports.NotificationMessage{
		NotificationID: notificationID,
		RelationshipID: relationshipID,
		Email:          email,
		InvitationCode: code,
		CreatedAt:      createdAt,
	}
}
