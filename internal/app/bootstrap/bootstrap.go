// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.
package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	authorisation "mandate/contexts/identity-access/authorisation-service"
	abradapter "mandate/contexts/identity-access/authorisation-service/adapters/abr"
	authzmemory "mandate/contexts/identity-access/authorisation-service/adapters/memory"
	authzpostgres "mandate/contexts/identity-access/authorisation-service/adapters/postgres"
	"mandate/contexts/identity-access/authorisation-service/application/workers"
	"mandate/contexts/identity-access/authorisation-service/domain/services"
	authzports "mandate/contexts/identity-access/authorisation-service/ports"
	role "mandate/contexts/identity-access/role-service"
	rolepostgres "mandate/contexts/identity-access/role-service/adapters/postgres"
	"mandate/internal/platform/auth"
	"mandate/internal/platform/config"
	"mandate/internal/platform/db"
	"mandate/internal/platform/httpserver"
	"mandate/internal/platform/messaging"
	"mandate/internal/shared/events"
)

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	bus          *messaging.Bus
	relay        workers.NotifyRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	authzModule, roleModule, pg, err := buildModules(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(
		authzModule,
		roleModule,
		auth.NewTokenParser(cfg.AgencyJWTSecret),
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	authzModule, _, pg, err := buildModules(cfg, logger)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	relay := authzModule.NewNotifyRelay(messaging.DelegatePublisher{Bus: bus}, 100, logger)

	return &WorkerApp{
		postgres:     pg,
		bus:          bus,
		relay:        relay,
		pollInterval: cfg.NotifyPollInterval,
		logger:       logger,
	}, nil
}

// buildModules wires both identity-access modules. An empty POSTGRES_DSN
// selects the in-memory adapters for local development.
func buildModules(cfg config.Config, logger *slog.Logger) (authorisation.Module, role.Module, *db.Postgres, error) {
	encoder := services.NewCodeEncoder(cfg.InviteCodeSalt)

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		authzStore := authzmemory.NewStore()
		var registry authzports.BusinessRegistry = authzStore
		if strings.TrimSpace(cfg.RegistryBaseURL) != "" {
			registry = abradapter.NewClient(cfg.RegistryBaseURL, logger)
		}
		authzModule := authorisation.NewModule(authorisation.Dependencies{
			Parties:       authzStore,
			Identities:    authzStore,
			Relationships: authzStore,
			RefData:       authzStore,
			Sequences:     authzStore,
			Registry:      registry,
			Notifications: authzStore,
			Clock:         authzStore,
			IDGenerator:   authzStore,
			CodeEncoder:   encoder,
			InvitationTTL: cfg.InvitationTTL(),
			Logger:        logger,
		})
		authzModule.Store = authzStore
		roleModule := role.NewInMemoryModule(logger)
		return authzModule, roleModule, nil, nil
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return authorisation.Module{}, role.Module{}, nil, err
	}

	authzRepo := authzpostgres.NewRepository(pg.DB, logger)
	var registry authzports.BusinessRegistry = authzmemory.NewStore()
	if strings.TrimSpace(cfg.RegistryBaseURL) != "" {
		registry = abradapter.NewClient(cfg.RegistryBaseURL, logger)
	}
	authzModule := authorisation.NewModule(authorisation.Dependencies{
		Parties:       authzRepo,
		Identities:    authzRepo,
		Relationships: authzRepo,
		RefData:       authzRepo,
		Sequences:     authzRepo,
		Registry:      registry,
		Notifications: authzRepo,
		Clock:         authzpostgres.SystemClock{},
		IDGenerator:   authzpostgres.UUIDGenerator{},
		CodeEncoder:   encoder,
		InvitationTTL: cfg.InvitationTTL(),
		Logger:        logger,
	})

	roleRepo := rolepostgres.NewRepository(pg.DB, logger)
	roleModule := role.NewModule(role.Dependencies{
		Roles:       roleRepo,
		RefData:     roleRepo,
		Clock:       rolepostgres.SystemClock{},
		IDGenerator: rolepostgres.UUIDGenerator{},
		Logger:      logger,
	})
	return authzModule, roleModule, pg, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	err := w.bus.Subscribe(ctx, messaging.TopicDelegateNotifications, "delegate-notify-cg",
		func(_ context.Context, event events.Envelope) error {
			// Delivery itself is an external concern; the consumer records
			// the hand-off.
			w.logger.Info("delegate notification dispatched",
				"event", "delegate_notification_dispatched",
				"module", "internal/app/bootstrap",
				"layer", "worker",
				"event_id", event.EventID,
				"entity_id", event.EntityID,
			)
			return nil
		})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.relay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
