package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/database"
	"github.com/siserv-tech/driverbot-backend/internal/config"
	"github.com/siserv-tech/driverbot-backend/internal/handlers"
	"github.com/siserv-tech/driverbot-backend/internal/jobs"
	"github.com/siserv-tech/driverbot-backend/internal/routes"
	"github.com/siserv-tech/driverbot-backend/internal/services"
	"github.com/siserv-tech/driverbot-backend/internal/storage"
	"github.com/siserv-tech/driverbot-backend/internal/tenant"
	"github.com/siserv-tech/driverbot-backend/internal/tenantdb"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	setupLogging(cfg)

	// Initialize storage
	var store storage.Store
	storageType := "PostgreSQL Database"
	if cfg.UseMemoryStore {
		log.Warn().Msg("⚠️  Using in-memory tenant directory (not for production!)")
		mem := storage.NewMemoryStore()
		if cfg.TenantsFile != "" {
			n, err := mem.LoadTenantsFile(cfg.TenantsFile)
			if err != nil {
				log.Fatal().Err(err).Str("file", cfg.TenantsFile).Msg("❌ Failed to load tenants file")
			}
			log.Info().Int("tenants", n).Str("file", cfg.TenantsFile).Msg("✅ Tenants loaded")
		}
		store = mem
		storageType = "In-Memory (Testing)"
	} else {
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Failed to initialize database")
		}
		store = storage.NewDatabaseStore(db)
	}

	resolver := tenant.NewResolver(store, cfg.TenantCharset)
	repo := tenantdb.NewRepository(resolver, cfg.ExternalTimeout)

	sink, err := services.NewTwilioService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom, cfg.MaxMessageLength)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to initialize Twilio service")
	}
	log.Info().Msg("✅ Twilio service initialized")

	sessions := services.NewSessionStore(cfg.SessionTTL)
	registrations := services.NewRegistrationService(repo)
	engine := services.NewWhatsAppService(services.Deps{
		Tenants:       resolver,
		Sessions:      sessions,
		Menus:         services.NewMenuService(repo),
		Roster:        repo,
		Orders:        repo,
		Occurrences:   repo,
		Registrations: registrations,
		Extractor:     services.NewExtractorClient(cfg.ExtractorBaseURL, cfg.ExtractorAPIKey, cfg.ExternalTimeout),
		Media:         services.NewMediaDownloader(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.ExternalTimeout),
		SupportPhone:  cfg.SupportPhone,
	})
	dispatcher := services.NewDispatcher(services.DispatcherConfig{
		Engine:      engine,
		Sink:        sink,
		Log:         repo,
		Processed:   services.NewIdempotencyTracker(cfg.IdempotencyTTL),
		Concurrency: cfg.Concurrency,
	})

	heartbeat := jobs.NewTenantHeartbeat(poolSource{resolver}, cfg.TenantPingInterval, cfg.ExternalTimeout)
	heartbeat.Start()

	app := fiber.New(fiber.Config{
		AppName: "DriverBot Backend v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	routes.SetupRoutes(app, routes.Handlers{
		WhatsApp:     handlers.NewWhatsAppHandler(dispatcher),
		Health:       handlers.NewHealthHandler(version, storageType, runtimeStats{resolver, dispatcher, sessions}),
		Registration: handlers.NewRegistrationHandler(resolver, registrations),
		Occurrence:   handlers.NewOccurrenceHandler(resolver, repo),
	}, cfg.IsDevelopment())

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("🛑 Gracefully shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("❌ Server shutdown failed")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("storage", storageType).
		Str("environment", cfg.Environment).
		Int("concurrency", cfg.Concurrency).
		Msg("🚀 DriverBot Backend starting")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("❌ Server stopped")
	}

	log.Info().Msg("⏹️  Draining message queue...")
	dispatcher.Close()
	heartbeat.Stop()
	resolver.Close()
	log.Info().Msg("✅ Shutdown complete")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}

// poolSource exposes the resolver's open pools to the heartbeat job
type poolSource struct {
	resolver *tenant.Resolver
}

func (p poolSource) Pingers() []jobs.Pinger {
	pools := p.resolver.Pools()
	out := make([]jobs.Pinger, len(pools))
	for i, pool := range pools {
		out[i] = pool
	}
	return out
}

// runtimeStats feeds /health
type runtimeStats struct {
	resolver   *tenant.Resolver
	dispatcher *services.Dispatcher
	sessions   *services.SessionStore
}

func (s runtimeStats) CachedTenants() int { return s.resolver.CachedTenants() }
func (s runtimeStats) QueueDepth() int    { return s.dispatcher.QueueDepth() }
func (s runtimeStats) Sessions() int      { return s.sessions.Count() }
