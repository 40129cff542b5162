package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/octafabbri/hey/internal/api/router"
	appconfig "github.com/octafabbri/hey/internal/config"
	"github.com/octafabbri/hey/internal/conversation"
	"github.com/octafabbri/hey/internal/notify"
	"github.com/octafabbri/hey/internal/observability/metrics"
	"github.com/octafabbri/hey/internal/realtime"
	"github.com/octafabbri/hey/internal/workorder"
	"github.com/octafabbri/hey/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hey dispatch API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	ctx := context.Background()

	// Work order storage. Postgres when configured, in-memory otherwise
	// so local development works without a database.
	var repo workorder.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = workorder.NewPostgresRepository(pool)
		logger.Info("using postgres work order repository")
	} else {
		repo = workorder.NewInMemoryRepository()
		logger.Warn("DATABASE_URL not set, work orders are stored in memory")
	}

	// Conversation persistence. Optional; without Redis a restart loses
	// in-flight intakes but nothing else.
	var store conversation.ConversationStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		store = conversation.NewRedisConversationStore(client)
		logger.Info("using redis conversation store", "addr", cfg.RedisAddr)
	}

	llm, model, err := buildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}

	dispatchMetrics := metrics.NewDispatchMetrics(prometheus.DefaultRegisterer)

	// Realtime status fan-out and notifications.
	hub := realtime.NewHub(logger)
	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var notifier *notify.Service
	if emailSender != nil {
		notifier = notify.NewService(emailSender, hub, cfg.OpsEmail, logger)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, status emails disabled")
		notifier = notify.NewService(notify.NewStubEmailSender(logger), hub, cfg.OpsEmail, logger)
	}

	// Work order services
	finalizer := workorder.NewFinalizer(repo, workorder.NewTextRenderer(), notifier, logger)
	negotiation := workorder.NewNegotiation(repo, notifier, dispatchMetrics, logger)

	// Conversation services
	extractor := conversation.NewExtractor(llm, model, logger)
	orchestrator := conversation.NewOrchestrator(llm, model, extractor, finalizer, store, dispatchMetrics, logger)

	// Initialize handlers
	conversationHandler := conversation.NewHandler(orchestrator, logger)
	workOrderHandler := workorder.NewHandler(negotiation, workorder.NewTextRenderer(), logger)
	notificationHandler := notify.NewHandler(notifier)

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		ConversationHandler: conversationHandler,
		WorkOrderHandler:    workOrderHandler,
		NotificationHandler: notificationHandler,
		RealtimeHub:         hub,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  corsOrigins(cfg),
		RateLimitPerSecond:  cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server. The write timeout leaves headroom for the
	// slowest LLM round trip.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildLLMClient assembles the configured LLM backend, wrapped with a
// Gemini fallback when credentials for one are present.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.LLMClient, string, error) {
	var (
		primary conversation.LLMClient
		model   string
		err     error
	)

	switch cfg.LLMProvider {
	case "openai":
		primary, err = conversation.NewOpenAILLMClient(cfg.OpenAIAPIKey)
		model = cfg.LLMModel
	case "gemini":
		primary, err = conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		model = cfg.GeminiModelID
	case "bedrock":
		awsCfg, loadErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if loadErr != nil {
			return nil, "", fmt.Errorf("load aws config: %w", loadErr)
		}
		primary = conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		model = cfg.BedrockModelID
	default:
		return nil, "", fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, "", err
	}

	// A second provider's credentials enable automatic failover.
	var fallback conversation.LLMClient
	if cfg.LLMProvider != "gemini" && cfg.GeminiAPIKey != "" {
		fallback, err = conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("fallback LLM unavailable", "error", err.Error())
			fallback = nil
		}
	}
	if fallback == nil {
		return primary, model, nil
	}
	return conversation.NewFallbackLLMClient(primary, fallback, logger.Logger), model, nil
}

// corsOrigins defaults to a wildcard in development so local web
// clients can reach the API without extra configuration.
func corsOrigins(cfg *appconfig.Config) []string {
	if len(cfg.CORSAllowedOrigins) > 0 {
		return cfg.CORSAllowedOrigins
	}
	if cfg.Env == "development" {
		return []string{"*"}
	}
	return nil
}
