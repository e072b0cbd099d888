package ports

import (
	"context"
	"time"

	"mandate/contexts/identity-access/role-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for new records.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// RoleRepository is the durable store for roles, unique per
// (type code, party).
type RoleRepository interface {
	GetRoleByTypeAndParty(ctx context.Context, typeCode string, partyID string) (entities.Role, error)
	SaveRole(ctx context.Context, role entities.Role) error
	ListRolesByParty(ctx context.Context, partyID string) ([]entities.Role, error)
}

// ReferenceDataCatalog resolves role types and role attribute names.
type ReferenceDataCatalog interface {
	FindRoleTypeValidAt(ctx context.Context, code string, asOf time.Time) (entities.RoleType, bool, error)
	FindAttributeName(ctx context.Context, code string) (entities.AttributeName, bool, error)
}
