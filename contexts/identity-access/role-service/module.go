package role

import (
	"log/slog"

	httpadapter "mandate/contexts/identity-access/role-service/adapters/http"
	"mandate/contexts/identity-access/role-service/adapters/memory"
	"mandate/contexts/identity-access/role-service/application"
	"mandate/contexts/identity-access/role-service/ports"
)

// Module is the role-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Roles       ports.RoleRepository
	RefData     ports.ReferenceDataCatalog
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// NewModule wires the application service and transport handler using
// explicit ports.
func NewModule(deps Dependencies) Module {
	service := application.Service{
		Roles:       deps.Roles,
		RefData:     deps.RefData,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Roles:       store,
		RefData:     store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
