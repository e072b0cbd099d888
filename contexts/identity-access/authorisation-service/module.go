package authorisation

import (
	"log/slog"
	"time"

	httpadapter "mandate/contexts/identity-access/authorisation-service/adapters/http"
	"mandate/contexts/identity-access/authorisation-service/adapters/memory"
	"mandate/contexts/identity-access/authorisation-service/application"
	"mandate/contexts/identity-access/authorisation-service/application/workers"
	"mandate/contexts/identity-access/authorisation-service/domain/services"
	"mandate/contexts/identity-access/authorisation-service/ports"
)

// Module is the authorisation-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
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
	InvitationTTL time.Duration
	Logger        *slog.Logger
}

// NewModule wires the application service and transport handler using
// explicit ports.
func NewModule(deps Dependencies) Module {
	service := application.Service{
		Parties:       deps.Parties,
		Identities:    deps.Identities,
		Relationships: deps.Relationships,
		RefData:       deps.RefData,
		Sequences:     deps.Sequences,
		Registry:      deps.Registry,
		Notifications: deps.Notifications,
		Clock:         deps.Clock,
		IDGenerator:   deps.IDGenerator,
		CodeEncoder:   deps.CodeEncoder,
		InvitationTTL: deps.InvitationTTL,
		Logger:        deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewNotifyRelay builds the outbox relay worker over the module's
// notification outbox.
func (m Module) NewNotifyRelay(publisher workers.NotificationPublisher, batchSize int, logger *slog.Logger) workers.NotifyRelay {
	return workers.NotifyRelay{
		Outbox:    m.Service.Notifications,
		Publisher: publisher,
		Clock:     m.Service.Clock,
		BatchSize: batchSize,
		Logger:    logger,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Parties:       store,
		Identities:    store,
		Relationships: store,
		RefData:       store,
		Sequences:     store,
		Registry:      store,
		Notifications: store,
		Clock:         store,
		IDGenerator:   store,
		CodeEncoder:   services.NewCodeEncoder("dev-invite-salt"),
		InvitationTTL: 7 * 24 * time.Hour,
		Logger:        logger,
	})
	module.Store = store
	return module
}
