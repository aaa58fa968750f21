// Package main is the entry point for the UnifiedUI Handoff Service.
// @title UnifiedUI Handoff Service API
// @version 1.0
// @description Shared-bot conversations with human handoff, push and poll sync, feedback and lead capture
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/unifiedui/handoff-service
// @contact.email support@unifiedui.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8086
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer agent key
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/unifiedui/handoff-service/docs"
	"github.com/unifiedui/handoff-service/internal/api/handlers"
	"github.com/unifiedui/handoff-service/internal/api/middleware"
	"github.com/unifiedui/handoff-service/internal/api/routes"
	"github.com/unifiedui/handoff-service/internal/config"
	"github.com/unifiedui/handoff-service/internal/core/cache"
	"github.com/unifiedui/handoff-service/internal/core/docdb"
	"github.com/unifiedui/handoff-service/internal/core/vault"
	rediscache "github.com/unifiedui/handoff-service/internal/infrastructure/cache/redis"
	"github.com/unifiedui/handoff-service/internal/infrastructure/docdb/memory"
	"github.com/unifiedui/handoff-service/internal/infrastructure/docdb/mongodb"
	dotenvvault "github.com/unifiedui/handoff-service/internal/infrastructure/vault/dotenv"
	"github.com/unifiedui/handoff-service/internal/pkg/encryption"
	"github.com/unifiedui/handoff-service/internal/pkg/logger"
	"github.com/unifiedui/handoff-service/internal/pkg/metrics"
	"github.com/unifiedui/handoff-service/internal/services/access"
	"github.com/unifiedui/handoff-service/internal/services/analytics"
	"github.com/unifiedui/handoff-service/internal/services/conversation"
	"github.com/unifiedui/handoff-service/internal/services/handoff"
	"github.com/unifiedui/handoff-service/internal/services/inference"
	"github.com/unifiedui/handoff-service/internal/services/platform"
	"github.com/unifiedui/handoff-service/internal/services/translation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format, nil)

	ctx := context.Background()

	// Initialize vault resolver using factory pattern
	vaultClient, err := createVault(cfg.Vault)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vault")
	}

	// Initialize cache client using factory pattern
	cacheClient, err := createCacheClient(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache client")
	}
	defer cacheClient.Close()

	// Initialize document db client using factory pattern
	docDBClient, err := createDocDBClient(ctx, cfg.DocDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document db client")
	}
	defer docDBClient.Close(ctx)

	// Ensure database indexes
	if err := docDBClient.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	// Initialize encryptor
	encryptor, err := createEncryptor(ctx, cfg.Vault, vaultClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryptor")
	}

	bots, err := platform.LoadFile(cfg.Bots.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Bots.ConfigPath).Msg("failed to load bot policies")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	gate, err := access.NewGate(&access.GateConfig{
		Bots:      bots,
		Cache:     cacheClient,
		Encryptor: encryptor,
		TokenTTL:  cfg.Access.TokenTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize access gate")
	}

	inferenceService, err := createInferenceService(ctx, cfg.Inference, vaultClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize inference service")
	}

	sink, analyticsStore, err := createAnalytics(cfg.Analytics, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analytics")
	}

	translations, err := translation.NewFileService(&translation.FileServiceConfig{
		Dir:      cfg.Translation.Dir,
		Fallback: cfg.Translation.Fallback,
		Cache:    cacheClient,
		CacheTTL: cfg.Translation.CacheTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize translations")
	}

	engine, err := conversation.NewEngine(&conversation.EngineConfig{
		Store:     docDBClient,
		Bots:      bots,
		Gate:      gate,
		Inference: inferenceService,
		Dispatcher: handoff.NewDispatcher(handoff.DispatcherConfig{
			Timeout:           cfg.Handoff.DispatchTimeout,
			DefaultWebhookURL: cfg.Handoff.WebhookURL,
		}),
		Analytics:        sink,
		Metrics:          m,
		InferenceTimeout: cfg.Inference.Timeout,
		HistoryLimit:     cfg.Inference.HistoryLimit,
		SubscriberBuffer: cfg.Sync.SubscriberBuffer,
		LogCacheSize:     cfg.Sync.LogCacheSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize conversation engine")
	}

	if len(cfg.Handoff.AgentKeys) == 0 {
		log.Warn().Msg("HANDOFF_AGENT_KEYS not set, agent endpoints reject every request")
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Setup router
	health := handlers.NewHealthHandler(cacheClient, docDBClient)
	if analyticsStore != nil {
		health.With("analytics", analyticsStore)
	}
	router := setupRouter(cfg, engine, gate, translations, health)

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Address()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout. Open push streams end with their
	// request contexts.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	if recorder, ok := sink.(*analytics.Recorder); ok {
		recorder.Close()
	}
	if analyticsStore != nil {
		_ = analyticsStore.Close()
	}

	log.Info().Msg("server exited")
}

// createVault creates a secret resolver based on the configuration.
func createVault(cfg config.VaultConfig) (vault.Resolver, error) {
	switch vault.Type(cfg.Type) {
	case vault.TypeDotEnv, "":
		return dotenvvault.NewVault(), nil
	default:
		return nil, errors.New("unsupported vault type: " + cfg.Type)
	}
}

// createCacheClient creates a cache client based on the configuration.
func createCacheClient(cfg config.CacheConfig) (cache.Client, error) {
	switch cache.Type(cfg.Type) {
	case cache.TypeRedis:
		return rediscache.NewClient(rediscache.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Password:   cfg.Password,
			DB:         cfg.DB,
			DefaultTTL: cfg.TTL,
			KeyPrefix:  cfg.KeyPrefix,
		})
	case cache.TypeMemory:
		log.Warn().Msg("using embedded redis, capability tokens are lost on restart")
		return rediscache.NewEmbedded(cfg.KeyPrefix, cfg.TTL)
	default:
		return nil, errors.New("unsupported cache type: " + cfg.Type)
	}
}

// createDocDBClient creates a document database client based on the configuration.
func createDocDBClient(ctx context.Context, cfg config.DocDBConfig) (docdb.Client, error) {
	switch docdb.Type(cfg.Type) {
	case docdb.TypeMongoDB:
		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.URI,
			DatabaseName: cfg.Database,
		})
	case docdb.TypeMemory:
		log.Warn().Msg("using in-memory document store, conversations are lost on restart")
		return memory.NewClient(), nil
	default:
		return nil, errors.New("unsupported docdb type: " + cfg.Type)
	}
}

// createEncryptor creates an encryptor based on the configuration.
func createEncryptor(ctx context.Context, cfg config.VaultConfig, resolver vault.Resolver) (encryption.Encryptor, error) {
	encryptionKey := cfg.EncryptionKey
	if encryptionKey == "" {
		encryptionKey = dotenvvault.Scheme + "SECRETS_ENCRYPTION_KEY"
	}

	key, err := resolver.Resolve(ctx, encryptionKey)
	if err != nil || key == "" {
		// Use NoOp encryptor in development
		log.Warn().Msg("SECRETS_ENCRYPTION_KEY not set, using NoOp encryptor")
		return encryption.NewNoOpEncryptor(), nil
	}

	return encryption.NewAESEncryptor(key)
}

// createInferenceService resolves secret references and builds the backend.
func createInferenceService(ctx context.Context, cfg config.InferenceConfig, resolver vault.Resolver) (inference.Service, error) {
	webhookKey, err := resolver.Resolve(ctx, cfg.WebhookKey)
	if err != nil {
		return nil, err
	}
	openAIKey, err := resolver.Resolve(ctx, cfg.OpenAIAPIKey)
	if err != nil {
		return nil, err
	}

	return inference.NewService(&inference.Config{
		Type:    inference.Type(cfg.Type),
		Timeout: cfg.Timeout,
		Webhook: inference.WebhookConfig{
			URL:    cfg.WebhookURL,
			APIKey: webhookKey,
		},
		LLM: inference.LLMConfig{
			Provider:     cfg.LLMProvider,
			Model:        cfg.LLMModel,
			OllamaHost:   cfg.OllamaHost,
			OpenAIAPIKey: openAIKey,
			SystemPrompt: cfg.SystemPrompt,
		},
	})
}

// createAnalytics returns the sink the engine records to and, when enabled,
// the SQLite store behind it.
func createAnalytics(cfg config.AnalyticsConfig, m *metrics.Metrics) (analytics.Sink, *analytics.SQLiteStore, error) {
	if !cfg.Enabled {
		return analytics.NopSink{}, nil, nil
	}

	store, err := analytics.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	return analytics.NewRecorder(store, analytics.RecorderConfig{
		QueueSize: cfg.QueueSize,
		Workers:   cfg.Workers,
	}, m), store, nil
}

// setupRouter creates and configures the Gin router.
func setupRouter(cfg *config.Config, engine *conversation.Engine, gate *access.Gate, translations translation.Service, health *handlers.HealthHandler) *gin.Engine {
	router := gin.New()

	// Create middleware
	loggingMw := middleware.NewLoggingMiddleware(
		routes.BasePath+"/health",
		routes.BasePath+"/ready",
		routes.BasePath+"/live",
		"/metrics",
	)
	errorMw := middleware.NewErrorMiddleware()
	authMw := middleware.NewAuthMiddleware(cfg.Handoff.AgentKeys)
	corsMw := middleware.NewCORSMiddleware(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins))

	// Setup routes
	routesCfg := &routes.Config{
		HealthHandler:   health,
		AccessHandler:   handlers.NewAccessHandler(gate, gate, engine),
		SessionsHandler: handlers.NewSessionsHandler(engine),
		I18nHandler:     handlers.NewI18nHandler(translations),
		HandoffsHandler: handlers.NewHandoffsHandler(&handlers.HandoffsHandlerConfig{
			Engine:         engine,
			Keepalive:      cfg.Sync.Keepalive,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}),
		AuthMiddleware: authMw,
		Gatherer:       prometheus.DefaultGatherer,
	}

	routes.SetupWithMiddleware(router, routesCfg, loggingMw, errorMw, corsMw)

	// Swagger documentation endpoint
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
