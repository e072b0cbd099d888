package ports

import (
	"context"
	"time"

	"mandate/contexts/identity-access/authorisation-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for new records.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// SequenceAllocator hands out monotonically increasing numbers scoped to
// the identity collection, backing invitation-code allocation.
type SequenceAllocator interface {
	NextIdentitySequence(ctx context.Context) (uint64, error)
}

// PartyRepository is the durable store for parties.
type PartyRepository interface {
	CreateParty(ctx context.Context, party entities.Party) error
	GetParty(ctx context.Context, partyID string) (entities.Party, error)
}

// IdentityRepository is the durable store for identities, keyed by the
// derived canonical id value.
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, identity entities.Identity) error
	GetIdentityByIDValue(ctx context.Context, idValue string) (entities.Identity, error)
	ListIdentitiesByParty(ctx context.Context, partyID string) ([]entities.Identity, error)
	UpdateIdentity(ctx context.Context, identity entities.Identity) error
}

// RelationshipFilter is the conjunctive search filter over relationships.
// Zero values mean "no constraint".
type RelationshipFilter struct {
	// PartyID matches relationships where the party is subject or delegate.
	PartyID         string
	PartyType       entities.PartyType
	TypeCode        string
	TypeCategory    entities.RelationshipTypeCategory
	ProfileProvider string
	Status          entities.RelationshipStatus
	// InDateRangeAsOf, when set, keeps only relationships valid at that time.
	InDateRangeAsOf *time.Time
	// Text is a case-insensitive substring match against the denormalised
	// subject/delegate search strings.
	Text string
}

// Page is a one-based page request.
type Page struct {
	Number int
	Size   int
}

// RelationshipPage is a stable-sorted search result with total count.
type RelationshipPage struct {
	Items      []entities.Relationship
	TotalCount int
	Page       int
	PageSize   int
}

// RelationshipRepository is the durable store for relationships, including
// the two aggregate queries the second-level access check is built from.
type RelationshipRepository interface {
	CreateRelationship(ctx context.Context, relationship entities.Relationship) error
	GetRelationship(ctx context.Context, relationshipID string) (entities.Relationship, error)
	UpdateRelationship(ctx context.Context, relationship entities.Relationship) error
	SearchRelationships(ctx context.Context, filter RelationshipFilter, page Page) (RelationshipPage, error)

	// ListAcceptedDelegateIDs returns the delegate party ids of all
	// ACCEPTED relationships with the given subject, valid at asOf.
	ListAcceptedDelegateIDs(ctx context.Context, subjectPartyID string, asOf time.Time) ([]string, error)
	// ListAcceptedSubjectIDs returns the subject party ids of all ACCEPTED
	// relationships with the given delegate, valid at asOf.
	ListAcceptedSubjectIDs(ctx context.Context, delegatePartyID string, asOf time.Time) ([]string, error)
	// HasAcceptedRelationship reports a direct accepted, date-valid edge.
	HasAcceptedRelationship(ctx context.Context, subjectPartyID string, delegatePartyID string, asOf time.Time) (bool, error)
}

// ReferenceDataCatalog resolves relationship types and attribute names,
// both "valid as of date" and "ignoring date range".
type ReferenceDataCatalog interface {
	FindRelationshipTypeValidAt(ctx context.Context, code string, asOf time.Time) (entities.RelationshipType, bool, error)
	FindRelationshipType(ctx context.Context, code string) (entities.RelationshipType, bool, error)
	FindAttributeNameValidAt(ctx context.Context, code string, asOf time.Time) (entities.AttributeName, bool, error)
	FindAttributeName(ctx context.Context, code string) (entities.AttributeName, bool, error)
}

// BusinessRecord is one candidate from the external business registry.
type BusinessRecord struct {
	BusinessNumber string
	Name           string
}

// BusinessRegistry is the external registry collaborator used to back-fill
// a Party/Identity pair for a not-yet-known ABN.
type BusinessRegistry interface {
	SearchByNumber(ctx context.Context, number string) ([]BusinessRecord, error)
	SearchByName(ctx context.Context, name string) ([]BusinessRecord, error)
}

// NotificationMessage is a pending delegate-notification row. Delivery is
// performed by the worker relay; the core only enqueues.
type NotificationMessage struct {
	NotificationID string
	RelationshipID string
	Email          string
	InvitationCode string
	CreatedAt      time.Time
	SentAt         *time.Time
}

// NotificationOutbox persists pending notifications next to state changes
// and supports worker relay polling and acknowledgement.
type NotificationOutbox interface {
	EnqueueNotification(ctx context.Context, message NotificationMessage) error
	ListPendingNotifications(ctx context.Context, limit int) ([]NotificationMessage, error)
	MarkNotificationSent(ctx context.Context, notificationID string, sentAt time.Time) error
}
