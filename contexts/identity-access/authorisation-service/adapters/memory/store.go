package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"mandate/contexts/identity-access/authorisation-service/domain/entities"
	domainerrors "mandate/contexts/identity-access/authorisation-service/domain/errors"
	"mandate/contexts/identity-access/authorisation-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing every authorisation-service
// port. It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	parties       map[string]entities.Party
	identities    map[string]entities.Identity // keyed by id value
	relationships map[string]entities.Relationship
	notifications map[string]ports.NotificationMessage

	relationshipTypes map[string]entities.RelationshipType
	attributeNames    map[string]entities.AttributeName

	businesses map[string]string // business number -> registered name

	sequence uint64
}

// NewStore builds a deterministic in-memory adapter seeded with baseline
// reference data and registry fixtures.
func NewStore() *Store {
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	relationshipTypes := map[string]entities.RelationshipType{
		"ASSOCIATE": {
			Code:           "ASSOCIATE",
			Category:       entities.CategoryAuthorisation,
			AttributeCodes: []string{"EDUCATION_PORTAL_ACCESS", "TAX_LODGEMENT_ACCESS", "CAN_MANAGE_AUTHORISATIONS", "NOTES"},
			StartAt:        start,
		},
		"OSP": {
			Code:                              "OSP",
			Category:                          entities.CategoryAuthorisation,
			AutoAcceptIfInitiatedFromDelegate: true,
			AttributeCodes:                    []string{"TAX_LODGEMENT_ACCESS", "NOTES"},
			StartAt:                           start,
		},
		"UNIVERSAL": {
			Code:                             "UNIVERSAL",
			Category:                         entities.CategoryAuthorisation,
			AutoAcceptIfInitiatedFromSubject: true,
			AttributeCodes:                   []string{"CAN_MANAGE_AUTHORISATIONS"},
			StartAt:                          start,
		},
		"CONTACT": {
			Code:     "CONTACT",
			Category: entities.CategoryNotification,
			StartAt:  start,
		},
	}
	attributeNames := map[string]entities.AttributeName{
		"CAN_MANAGE_AUTHORISATIONS": {
			Code:       "CAN_MANAGE_AUTHORISATIONS",
			Domain:     entities.DomainBoolean,
			Classifier: entities.ClassifierPermission,
			StartAt:    start,
		},
		"EDUCATION_PORTAL_ACCESS": {
			Code:       "EDUCATION_PORTAL_ACCESS",
			Domain:     entities.DomainBoolean,
			Classifier: entities.ClassifierAgencyService,
			Category:   "EDUCATION",
			StartAt:    start,
		},
		"TAX_LODGEMENT_ACCESS": {
			Code:       "TAX_LODGEMENT_ACCESS",
			Domain:     entities.DomainBoolean,
			Classifier: entities.ClassifierAgencyService,
			Category:   "TAX",
			StartAt:    start,
		},
		"NOTES": {
			Code:       "NOTES",
			Domain:     entities.DomainMarkdown,
			Classifier: entities.ClassifierOther,
			StartAt:    start,
		},
	}
	return &Store{
		parties:           make(map[string]entities.Party),
		identities:        make(map[string]entities.Identity),
		relationships:     make(map[string]entities.Relationship),
		notifications:     make(map[string]ports.NotificationMessage),
		relationshipTypes: relationshipTypes,
		attributeNames:    attributeNames,
		businesses: map[string]string{
			"51824753556": "Example Holdings Pty Ltd",
			"53004085616": "Sample Trading Co",
		},
	}
}

// Clock port.
func (s *Store) Now() time.Time { return time.Now().UTC() }

// IDGenerator port.
func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// SequenceAllocator port.
func (s *Store) NextIdentitySequence(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	return s.sequence, nil
}

// PartyRepository port.

func (s *Store) CreateParty(_ context.Context, party entities.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[party.PartyID] = party
	return nil
}

func (s *Store) GetParty(_ context.Context, partyID string) (entities.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	party, ok := s.parties[partyID]
	if !ok {
		return entities.Party{}, domainerrors.ErrPartyNotFound
	}
	return party, nil
}

// IdentityRepository port.

func (s *Store) CreateIdentity(_ context.Context, identity entities.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.identities[identity.IDValue]; exists {
		return domainerrors.ErrInvalidIdentityInput
	}
	s.identities[identity.IDValue] = identity
	return nil
}

func (s *Store) GetIdentityByIDValue(_ context.Context, idValue string) (entities.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[idValue]
	if !ok {
		return entities.Identity{}, domainerrors.ErrIdentityNotFound
	}
	return identity, nil
}

func (s *Store) ListIdentitiesByParty(_ context.Context, partyID string) ([]entities.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []entities.Identity
	for _, identity := range s.identities {
		if identity.PartyID == partyID {
			items = append(items, identity)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].IDValue < items[j].IDValue })
	return items, nil
}

func (s *Store) UpdateIdentity(_ context.Context, identity entities.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.IDValue]; !ok {
		return domainerrors.ErrIdentityNotFound
	}
	s.identities[identity.IDValue] = identity
	return nil
}

// RelationshipRepository port.

func (s *Store) CreateRelationship(_ context.Context, relationship entities.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships[relationship.RelationshipID] = relationship
	return nil
}

func (s *Store) GetRelationship(_ context.Context, relationshipID string) (entities.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	relationship, ok := s.relationships[relationshipID]
	if !ok {
		return entities.Relationship{}, domainerrors.ErrRelationshipNotFound
	}
	return relationship, nil
}

func (s *Store) UpdateRelationship(_ context.Context, relationship entities.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.relationships[relationship.RelationshipID]; !ok {
		return domainerrors.ErrRelationshipNotFound
	}
	s.relationships[relationship.RelationshipID] = relationship
	return nil
}

func (s *Store) SearchRelationships(_ context.Context, filter ports.RelationshipFilter, page ports.Page) (ports.RelationshipPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []entities.Relationship
	for _, relationship := range s.relationships {
		if !s.matchesFilter(relationship, filter) {
			continue
		}
		matched = append(matched, relationship)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].RelationshipID < matched[j].RelationshipID
	})

	total := len(matched)
	start := (page.Number - 1) * page.Size
	if start > total {
		start = total
	}
	end := start + page.Size
	if end > total {
		end = total
	}

	return ports.RelationshipPage{
		Items:      append([]entities.Relationship(nil), matched[start:end]...),
		TotalCount: total,
		Page:       page.Number,
		PageSize:   page.Size,
	}, nil
}

func (s *Store) matchesFilter(relationship entities.Relationship, filter ports.RelationshipFilter) bool {
	if filter.PartyID != "" &&
		relationship.SubjectPartyID != filter.PartyID &&
		relationship.DelegatePartyID != filter.PartyID {
		return false
	}
	if filter.PartyType != "" {
		party, ok := s.parties[relationship.SubjectPartyID]
		if !ok || party.PartyType != filter.PartyType {
			return false
		}
	}
	if filter.TypeCode != "" && relationship.TypeCode != filter.TypeCode {
		return false
	}
	if filter.TypeCategory != "" {
		relType, ok := s.relationshipTypes[relationship.TypeCode]
		if !ok || relType.Category != filter.TypeCategory {
			return false
		}
	}
	if filter.ProfileProvider != "" && !s.partyHasProvider(relationship.SubjectPartyID, filter.ProfileProvider) &&
		!s.partyHasProvider(relationship.DelegatePartyID, filter.ProfileProvider) {
		return false
	}
	if filter.Status != "" && relationship.Status != filter.Status {
		return false
	}
	if filter.InDateRangeAsOf != nil && !relationship.ValidAt(*filter.InDateRangeAsOf) {
		return false
	}
	return relationship.MatchesSearchText(filter.Text)
}

func (s *Store) partyHasProvider(partyID string, provider string) bool {
	for _, identity := range s.identities {
		if identity.PartyID == partyID && strings.EqualFold(identity.Profile.Provider, provider) {
			return true
		}
	}
	return false
}

func (s *Store) ListAcceptedDelegateIDs(_ context.Context, subjectPartyID string, asOf time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, relationship := range s.relationships {
		if relationship.SubjectPartyID == subjectPartyID &&
			relationship.Status == entities.RelationshipAccepted &&
			relationship.ValidAt(asOf) {
			ids = append(ids, relationship.DelegatePartyID)
		}
	}
	return ids, nil
}

func (s *Store) ListAcceptedSubjectIDs(_ context.Context, delegatePartyID string, asOf time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, relationship := range s.relationships {
		if relationship.DelegatePartyID == delegatePartyID &&
			relationship.Status == entities.RelationshipAccepted &&
			relationship.ValidAt(asOf) {
			ids = append(ids, relationship.SubjectPartyID)
		}
	}
	return ids, nil
}

func (s *Store) HasAcceptedRelationship(_ context.Context, subjectPartyID string, delegatePartyID string, asOf time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, relationship := range s.relationships {
		if relationship.SubjectPartyID == subjectPartyID &&
			relationship.DelegatePartyID == delegatePartyID &&
			relationship.Status == entities.RelationshipAccepted &&
			relationship.ValidAt(asOf) {
			return true, nil
		}
	}
	return false, nil
}

// ReferenceDataCatalog port.

func (s *Store) FindRelationshipTypeValidAt(_ context.Context, code string, asOf time.Time) (entities.RelationshipType, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	relType, ok := s.relationshipTypes[code]
	if !ok || !relType.ValidAt(asOf) {
		return entities.RelationshipType{}, false, nil
	}
	return relType, true, nil
}

func (s *Store) FindRelationshipType(_ context.Context, code string) (entities.RelationshipType, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	relType, ok := s.relationshipTypes[code]
	return relType, ok, nil
}

func (s *Store) FindAttributeNameValidAt(_ context.Context, code string, asOf time.Time) (entities.AttributeName, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.attributeNames[code]
	if !ok || !name.ValidAt(asOf) {
		return entities.AttributeName{}, false, nil
	}
	return name, true, nil
}

func (s *Store) FindAttributeName(_ context.Context, code string) (entities.AttributeName, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.attributeNames[code]
	return name, ok, nil
}

// SeedRelationshipType adds or replaces reference data for tests.
func (s *Store) SeedRelationshipType(relType entities.RelationshipType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationshipTypes[relType.Code] = relType
}

// SeedAttributeName adds or replaces attribute reference data for tests.
func (s *Store) SeedAttributeName(name entities.AttributeName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributeNames[name.Code] = name
}

// BusinessRegistry port.

func (s *Store) SearchByNumber(_ context.Context, number string) ([]ports.BusinessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.businesses[strings.TrimSpace(number)]
	if !ok {
		return nil, nil
	}
	return []ports.BusinessRecord{{BusinessNumber: number, Name: name}}, nil
}

func (s *Store) SearchByName(_ context.Context, name string) ([]ports.BusinessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []ports.BusinessRecord
	for number, registered := range s.businesses {
		if strings.Contains(strings.ToLower(registered), strings.ToLower(strings.TrimSpace(name))) {
			records = append(records, ports.BusinessRecord{BusinessNumber: number, Name: registered})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].BusinessNumber < records[j].BusinessNumber })
	return records, nil
}

// NotificationOutbox port.

func (s *Store) EnqueueNotification(_ context.Context, message ports.NotificationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[message.NotificationID] = message
	return nil
}

func (s *Store) ListPendingNotifications(_ context.Context, limit int) ([]ports.NotificationMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []ports.NotificationMessage
	for _, message := range s.notifications {
		if message.SentAt == nil {
			pending = append(pending, message)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkNotificationSent(_ context.Context, notificationID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.notifications[notificationID]
	if !ok {
		return domainerrors.ErrRelationshipNotFound
	}
	message.SentAt = &sentAt
	s.notifications[notificationID] = message
	return nil
}
