package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"mandate/contexts/identity-access/role-service/domain/entities"
	domainerrors "mandate/contexts/identity-access/role-service/domain/errors"

	"github.com/google/uuid"
)

// Store is an in-memory implementation of every role-service port, used by
// tests and DSN-less local wiring.
type Store struct {
	mu sync.RWMutex

	roles          map[string]entities.Role
	roleTypes      map[string]entities.RoleType
	attributeNames map[string]entities.AttributeName
}

func NewStore() *Store {
	store := &Store{
		roles:          make(map[string]entities.Role),
		roleTypes:      make(map[string]entities.RoleType),
		attributeNames: make(map[string]entities.AttributeName),
	}
	store.seedReferenceData()
	return store
}

func (s *Store) seedReferenceData() {
	epoch := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	for _, roleType := range []entities.RoleType{
		{Code: "BUSINESS", StartAt: epoch},
		{Code: "INTERMEDIARY", StartAt: epoch},
	} {
		s.roleTypes[roleType.Code] = roleType
	}

	for _, name := range []entities.AttributeName{
		{
			Code:       "EDUCATION_PORTAL_ACCESS",
			Domain:     entities.DomainBoolean,
			Classifier: entities.ClassifierAgencyService,
			Category:   "EDUCATION",
			StartAt:    epoch,
		},
		{
			Code:       "TAX_LODGEMENT_ACCESS",
			Domain:     entities.DomainBoolean,
			Classifier: entities.ClassifierAgencyService,
			Category:   "TAX",
			StartAt:    epoch,
		},
		{
			Code:       "CAN_MANAGE_AUTHORISATIONS",
			Domain:     entities.DomainBoolean,
			Classifier: entities.ClassifierPermission,
			StartAt:    epoch,
		},
		{
			Code:       "NOTES",
			Domain:     entities.DomainMarkdown,
			Classifier: entities.ClassifierOther,
			StartAt:    epoch,
		},
	} {
		s.attributeNames[name.Code] = name
	}
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) GetRoleByTypeAndParty(_ context.Context, typeCode string, partyID string) (entities.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	typeCode = strings.TrimSpace(typeCode)
	partyID = strings.TrimSpace(partyID)
	for _, role := range s.roles {
		if role.TypeCode == typeCode && role.PartyID == partyID {
			return cloneRole(role), nil
		}
	}
	return entities.Role{}, domainerrors.ErrRoleNotFound
}

func (s *Store) SaveRole(_ context.Context, role entities.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roles[role.RoleID] = cloneRole(role)
	return nil
}

func (s *Store) ListRolesByParty(_ context.Context, partyID string) ([]entities.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partyID = strings.TrimSpace(partyID)
	items := make([]entities.Role, 0)
	for _, role := range s.roles {
		if role.PartyID == partyID {
			items = append(items, cloneRole(role))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].RoleID < items[j].RoleID
	})
	return items, nil
}

func (s *Store) FindRoleTypeValidAt(_ context.Context, code string, asOf time.Time) (entities.RoleType, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roleType, ok := s.roleTypes[strings.TrimSpace(code)]
	if !ok || !roleType.ValidAt(asOf.UTC()) {
		return entities.RoleType{}, false, nil
	}
	return roleType, true, nil
}

func (s *Store) FindAttributeName(_ context.Context, code string) (entities.AttributeName, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, ok := s.attributeNames[strings.TrimSpace(code)]
	if !ok {
		return entities.AttributeName{}, false, nil
	}
	return name, true, nil
}

// SeedRoleType registers reference data for tests.
func (s *Store) SeedRoleType(roleType entities.RoleType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roleTypes[roleType.Code] = roleType
}

// SeedAttributeName registers reference data for tests.
func (s *Store) SeedAttributeName(name entities.AttributeName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributeNames[name.Code] = name
}

func cloneRole(role entities.Role) entities.Role {
	copied := role
	copied.Attributes = append([]entities.RoleAttribute(nil), role.Attributes...)
	return copied
}
