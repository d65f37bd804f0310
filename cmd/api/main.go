// cmd/api/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger/internal/adapters/db"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/internal/handlers/middleware"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/internal/pkg/logger"
	"github.com/ammerola/stockledger/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json").Logger

	slogger.Info("starting stock ledger",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat).Logger
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	secrets, err := config.NewSecretsManager(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to create secrets manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := config.ApplySecrets(ctx, cfg, secrets); err != nil {
		slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(ctx, cfg, deps, slogger)

	if err := deps.ledgerServer.Start(deps.ledgerMux); err != nil {
		slogger.Error("failed to start ledger task server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := deps.scheduler.Start(); err != nil {
		slogger.Error("failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		server.Close()
	}

	// stop consuming ledger tasks only after in-flight requests are done
	deps.scheduler.Shutdown()
	deps.ledgerServer.Shutdown()
	stop()

	slogger.Info("server shutdown complete")
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	reportDB       *sql.DB
	redisClient    *redis.Client
	cache          ports.CacheRepository
	importJournal  *redis_a.ImportJournal
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	ledger       *services.Ledger
	ledgerServer *asynq.Server
	ledgerMux    *asynq.ServeMux
	scheduler    *asynq.Scheduler

	ledgerHandler    *handlers.LedgerHandler
	salesHandler     *handlers.SalesHandler
	importHandler    *handlers.ImportHandler
	dashboardHandler *handlers.DashboardHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.reportDB != nil {
		d.reportDB.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}
	ready := false
	defer func() {
		if !ready {
			deps.cleanup()
		}
	}()

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	dbConfig := databaseConfig(cfg)
	database, err := db.NewDatabase(ctx, dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	reportDB, err := db.OpenReportDB(dbConfig.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	deps.reportDB = reportDB

	logger.Info("connecting to Redis", slog.String("address", cfg.GetRedisAddress()))

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolTimeout:  cfg.Redis.PoolTimeout,
	})
	deps.redisClient = redisClient
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	deps.cache = redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)
	alerts := redis_a.NewAlertLog(redisClient, cfg.Redis.AlertHistory, logger)
	deps.importJournal = redis_a.NewImportJournal(redisClient, 0, logger)

	serverCfg := workers.ServerConfig{
		RedisAddr:       cfg.Asynq.RedisAddr,
		RedisPassword:   cfg.Asynq.RedisPassword,
		RedisDB:         cfg.Asynq.RedisDB,
		Concurrency:     4,
		Queues:          map[string]int{workers.QueueLedger: 1},
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
	}
	deps.asynqClient = asynq.NewClient(serverCfg.RedisOpt())
	deps.asynqInspector = asynq.NewInspector(serverCfg.RedisOpt())

	store, err := newObjectStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// The ledger is the only owner of stock state
	stockRepo := db.NewStockRepository(database, logger)
	deps.ledger = services.NewLedger(stockRepo, logger,
		services.WithNotifier(workers.NewAsynqNotifier(deps.asynqClient, logger)),
		services.WithSaveTimeout(cfg.Ledger.SaveTimeout),
	)
	if err := deps.ledger.Warm(ctx); err != nil {
		return nil, fmt.Errorf("failed to warm ledger: %w", err)
	}

	// Tasks that touch stock run in this process, against this ledger
	deps.ledgerServer = workers.NewServer(serverCfg, logger)
	deps.ledgerMux = workers.NewLedgerMux(
		workers.NewRestockProcessor(deps.ledger, store, deps.importJournal, logger),
		workers.NewPruneProcessor(deps.ledger, logger),
	)

	deps.scheduler = asynq.NewScheduler(serverCfg.RedisOpt(), &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   workers.NewAsynqLogger(logger),
	})
	pruneTask, err := workers.NewPruneTask(cfg.Ledger.ReservationTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to build prune task: %w", err)
	}
	if _, err := deps.scheduler.Register("@every "+cfg.Ledger.PruneInterval.String(), pruneTask); err != nil {
		return nil, fmt.Errorf("failed to schedule reservation pruning: %w", err)
	}

	sales := services.NewSalesService(deps.ledger, logger)
	maxFileSize := int64(cfg.Ledger.ImportMaxSizeMB) * 1024 * 1024

	deps.ledgerHandler = handlers.NewLedgerHandler(deps.ledger, deps.cache, logger)
	deps.salesHandler = handlers.NewSalesHandler(sales, deps.cache, logger)
	deps.importHandler = handlers.NewImportHandler(store, deps.asynqClient, maxFileSize, logger)
	deps.dashboardHandler = handlers.NewDashboardHandler(
		db.NewStockReportRepository(reportDB, logger),
		alerts,
		deps.cache,
		cfg.Ledger.DashboardCacheTTL,
		logger,
	)
	deps.healthHandler = handlers.NewHealthHandler(
		database,
		deps.cache,
		deps.asynqInspector,
		cfg.App.Version,
		cfg.App.Environment,
		logger,
	)

	ready = true
	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func databaseConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

func newObjectStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ObjectStorage, error) {
	switch cfg.Storage.Provider {
	case "local":
		return storage.NewLocalStorage(cfg.Storage.LocalPath, logger), nil
	case "s3":
		s3, err := storage.NewS3Storage(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

func setupHTTPServer(ctx context.Context, cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps)

	mws := []middleware.Middleware{
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Logger(logger),
		middleware.Recovery(logger),
	}
	if cfg.Security.RateLimitRequests > 0 {
		mws = append(mws, middleware.RateLimit(ctx, cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	mws = append(mws, middleware.Compression, middleware.Timeout(cfg.Server.WriteTimeout-time.Second))

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, mws...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies) {
	apiV1 := "/api/v1"

	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
	mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)

	// Stock records
	mux.HandleFunc("POST "+apiV1+"/stock", deps.ledgerHandler.RegisterStock)
	mux.HandleFunc("GET "+apiV1+"/stock", deps.ledgerHandler.ListStock)
	mux.HandleFunc("GET "+apiV1+"/stock/low", deps.ledgerHandler.ListLowStock)
	mux.HandleFunc("GET "+apiV1+"/stock/{productID}", deps.ledgerHandler.GetStock)
	mux.HandleFunc("DELETE "+apiV1+"/stock/{productID}", deps.ledgerHandler.DeactivateStock)
	mux.HandleFunc("POST "+apiV1+"/stock/{productID}/restock", deps.ledgerHandler.Restock)
	mux.HandleFunc("POST "+apiV1+"/stock/{productID}/reservations", deps.ledgerHandler.Reserve)

	// Reservations
	mux.HandleFunc("GET "+apiV1+"/reservations/{id}", deps.ledgerHandler.GetReservation)
	mux.HandleFunc("POST "+apiV1+"/reservations/{id}/commit", deps.ledgerHandler.CommitReservation)
	mux.HandleFunc("POST "+apiV1+"/reservations/{id}/release", deps.ledgerHandler.ReleaseReservation)

	mux.HandleFunc("POST "+apiV1+"/sales", deps.salesHandler.Checkout)
	mux.HandleFunc("POST "+apiV1+"/restock/import", deps.importHandler.ImportRestock)

	// Reporting
	mux.HandleFunc("GET "+apiV1+"/dashboard", deps.dashboardHandler.GetDashboard)
	mux.HandleFunc("GET "+apiV1+"/alerts", deps.dashboardHandler.ListAlerts)
	mux.HandleFunc("GET "+apiV1+"/alerts/{productID}", deps.dashboardHandler.GetProductAlert)
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, logger, 3)
}
