package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/the3rdPoliceman/plant-hardener/internal/forecast"
	"github.com/the3rdPoliceman/plant-hardener/internal/hardening"
	"github.com/the3rdPoliceman/plant-hardener/pkg/config"
	"github.com/the3rdPoliceman/plant-hardener/pkg/health"
	"github.com/the3rdPoliceman/plant-hardener/pkg/mqtt"
	"github.com/the3rdPoliceman/plant-hardener/pkg/postgres"
	"github.com/the3rdPoliceman/plant-hardener/pkg/push"
	"github.com/the3rdPoliceman/plant-hardener/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags → file
	cfg := config.NewConfig()
	cfg.LoadFromEnv()
	if err := cfg.LoadFromFlags(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting plant hardening agent",
		"service_name", cfg.ServiceName,
		"location", cfg.LocationID,
		"threshold_c", cfg.ThresholdC,
		"redis_host", cfg.RedisAddress(),
		"log_level", cfg.LogLevel,
		"once", cfg.RunOnce)

	// Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize Redis client and verify the connection; the state store is
	// mandatory and a run must not start without it
	redisClient := redis.NewClient(cfg, logger)
	if err := redisClient.Ping(ctx); err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Initialize MQTT client when MQTT notification or context is enabled
	var mqttClient mqtt.Client
	if cfg.MQTTNotify {
		mqttClient = mqtt.NewClient(cfg, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
		err := mqttClient.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Error("Failed to connect to MQTT broker", "error", err)
			os.Exit(1)
		}
		defer mqttClient.Disconnect()
	}

	// Build notification sinks; every configured sink must succeed before a
	// placement change is committed
	var notifiers []hardening.Notifier
	if mqttClient != nil {
		notifiers = append(notifiers, hardening.NewMQTTNotifier(mqttClient, cfg.LocationID, logger))
	}
	if cfg.PushURL != "" {
		pushClient := push.NewHTTPClient(cfg.PushURL, cfg.PushToken, logger)
		notifiers = append(notifiers, hardening.NewPushNotifier(pushClient, logger))
	}
	notifier := hardening.NewMultiNotifier(notifiers...)

	// Forecast source
	source, err := forecast.NewOpenMeteoClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to create forecast source", "error", err)
		os.Exit(1)
	}

	// State store and decision history
	store := hardening.NewRedisStateStore(redisClient, cfg.LocationID, cfg.MaxHistory, logger)

	// Create the hardening agent
	agent, err := hardening.NewAgent(source, store, notifier, cfg, logger)
	if err != nil {
		logger.Error("Failed to create agent", "error", err)
		os.Exit(1)
	}
	agent.WithHistory(store)
	if mqttClient != nil {
		agent.WithContextPublisher(mqttClient)
	}

	// Optional Postgres decision audit log
	var pgClient postgres.Client
	if cfg.PostgresEnabled() {
		pgClient = postgres.NewClient(cfg, logger)
		if err := pgClient.Connect(ctx); err != nil {
			logger.Error("Failed to connect to Postgres", "error", err)
			os.Exit(1)
		}
		defer pgClient.Disconnect()

		audit := hardening.NewAuditLog(pgClient.DB())
		if err := audit.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to prepare audit schema", "error", err)
			os.Exit(1)
		}
		agent.WithAuditLog(audit)
	}

	// Cron mode: one evaluation, exit code reflects the run
	if cfg.RunOnce {
		os.Exit(runOnce(ctx, agent, logger))
	}

	// Start health check server
	healthChecker := health.NewChecker(mqttClient, redisClient, logger)
	httpServer := startHealthServer(cfg.HealthPort, healthChecker, logger)

	// Start agent in a goroutine
	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	// Wait for shutdown signal or agent error
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	// Graceful shutdown
	logger.Info("Initiating graceful shutdown")
	cancel()
	agent.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("Hardening agent shutdown complete")
}

// runOnce performs a single evaluation. Insufficient forecast data is a
// clean skip (exit 0, the next cron run retries); state store or delivery
// failures exit non-zero.
func runOnce(ctx context.Context, agent *hardening.Agent, logger *slog.Logger) int {
	result, err := agent.EvaluateNow(ctx)
	if err != nil {
		logger.Error("Evaluation failed", "error", err)
		return 1
	}

	logger.Info("Evaluation complete",
		"evaluation_id", result.ID,
		"outcome", result.Outcome)
	return 0
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
