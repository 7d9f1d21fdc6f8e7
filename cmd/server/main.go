package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	auditapp "github.com/retailops/backend/internal/application/audit"
	appevent "github.com/retailops/backend/internal/application/event"
	inventoryapp "github.com/retailops/backend/internal/application/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/cache"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/event"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/migration"
	"github.com/retailops/backend/internal/infrastructure/persistence"
	"github.com/retailops/backend/internal/infrastructure/strategy"
	"github.com/retailops/backend/internal/infrastructure/telemetry"
	"github.com/retailops/backend/internal/interfaces/http/handler"
	"github.com/retailops/backend/internal/interfaces/http/middleware"
	"github.com/retailops/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prov, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to set up telemetry", zap.Error(err))
	}
	log = prov.BridgeLogger(log)

	profiler, err := telemetry.StartProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Profiler stop failed", zap.Error(err))
		}
	}()
	tracerProvider := profiler.TracerProvider(prov.TracerProvider())

	log.Info("Starting retail engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("driver", cfg.Database.Driver),
	)

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log.Named("gorm"), logger.MapGormLogLevel(cfg.Log.Level)),
		persistence.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		persistence.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem(cfg.Database.Driver),
		TracerProvider:  tracerProvider,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.MigrateOnStart {
		if err := migrateSchema(cfg, db, log); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
	}

	comparators, err := strategy.NewRegistryWithDefaults()
	if err != nil {
		log.Fatal("Failed to build comparator registry", zap.Error(err))
	}
	if _, err := comparators.Get(cfg.Inventory.FulfillmentStrategy); err != nil {
		log.Warn("Unknown fulfillment strategy, using default",
			zap.String("configured", cfg.Inventory.FulfillmentStrategy),
			zap.String("default", comparators.Default()),
		)
	}
	comparator := comparators.GetOrDefault(cfg.Inventory.FulfillmentStrategy)

	observer, err := telemetry.NewLedgerObserver(tracerProvider, prov.MeterProvider())
	if err != nil {
		log.Fatal("Failed to create ledger observer", zap.Error(err))
	}
	observer.WithProfileLabels(profiler.Enabled())

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	relayCfg := event.RelayConfigFrom(cfg.Event)
	writer := event.NewOutboxWriter(serializer, relayCfg.Retry)
	scope := persistence.NewGormTransactionScope(db.DB, writer.RecorderFor)

	svc := newServices(scope, cfg.Inventory, comparator, observer, log)

	outbox := event.NewGormOutboxStore(db.DB)
	outboxService := appevent.NewOutboxService(outbox, log.Named("outbox"))

	store, err := idempotencyStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()

	dispatcher := event.NewLocalDispatcher(log.Named("dispatch"))
	counters := &event.DedupCounters{}
	idemCfg := shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true}
	for name, h := range map[string]shared.EventHandler{
		"notification":  appevent.NewNotificationHandler(appevent.NewLoggingDispatcher(log), log),
		"compliance":    auditapp.NewComplianceHandler(auditapp.NewLoggingComplianceSink(log), log),
		"replenishment": inventoryapp.NewReplenishmentHandler(nil, log.Named("replenishment")),
	} {
		dispatcher.Subscribe(event.NewIdempotentHandler(name, h, store, log,
			event.WithIdempotencyConfig(idemCfg),
			event.WithCounters(counters),
		))
	}

	relayDone := make(chan struct{})
	if cfg.Event.ProcessorEnabled {
		relay := event.NewRelay(outbox, dispatcher, serializer, relayCfg, log.Named("outbox"))
		go func() {
			defer close(relayDone)
			relay.Run(ctx)
		}()
	} else {
		close(relayDone)
	}

	var srv *http.Server
	if cfg.App.OpsAddr != "off" {
		checks := map[string]handler.Check{
			"database": func(context.Context) error { return db.Ping() },
		}
		if rc, ok := store.(*cache.RedisIdempotencyStore); ok {
			checks["redis"] = rc.Ping
		}
		engine := router.New(router.Config{
			Logger: log.Named("ops"),
			Tracing: middleware.TracingConfig{
				ServiceName:    cfg.Telemetry.ServiceName,
				Enabled:        cfg.Telemetry.Enabled,
				TracerProvider: tracerProvider,
				Untraced:       middleware.DefaultUntraced,
			},
			Health:      handler.NewHealthHandler(checks, 2*time.Second),
			Outbox:      handler.NewOutboxHandler(outboxService),
			Comparators: handler.NewComparatorHandler(comparators, comparator.Name()),
			Stock:       handler.NewStockHandler(svc.Stock),
			Audit:       handler.NewAuditHandler(svc.Audit),
		})
		srv = &http.Server{
			Addr:              cfg.App.OpsAddr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("Ops server starting", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Ops server failed", zap.Error(err))
				stop()
			}
		}()
	}

	log.Info("Retail engine running",
		zap.String("fulfillment_strategy", comparator.Name()),
		zap.Bool("auto_reserve_transfers", cfg.Inventory.AutoReserveTransfers),
		zap.Bool("outbox_relay", cfg.Event.ProcessorEnabled),
	)
	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Ops server forced to shutdown", zap.Error(err))
		}
	}
	select {
	case <-relayDone:
	case <-shutdownCtx.Done():
		log.Error("Outbox relay did not stop before the shutdown deadline")
	}
	totals := counters.Snapshot()
	log.Info("Event handler totals",
		zap.Int64("handled", totals.Handled),
		zap.Int64("duplicates", totals.Skipped),
		zap.Int64("failed", totals.Failed),
	)
	if err := prov.Shutdown(shutdownCtx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}
	log.Info("Retail engine stopped")
}

func dbSystem(driver string) string {
	if driver == config.DriverSQLite {
		return "sqlite"
	}
	return "postgresql"
}

// migrateSchema applies the embedded migrations on postgres. SQLite has no
// migration driver here, so its tables come from the GORM models.
func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver == config.DriverSQLite {
		log.Info("Creating sqlite schema from models")
		return db.AutoMigrate()
	}

	// The migrator closes its connection, so it gets one of its own.
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, "", log.Named("migrate"))
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer m.Close()
	return m.Up()
}

func idempotencyStore(ctx context.Context, cfg *config.Config) (shared.IdempotencyStore, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryIdempotencyStore(time.Minute), nil
	}
	client, err := cache.NewRedisClient(ctx, cache.RedisOptions{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	return cache.NewRedisIdempotencyStore(client, cache.DefaultKeyPrefix), nil
}
