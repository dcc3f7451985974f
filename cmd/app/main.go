package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/corella-au/corella/internal/api"
	"github.com/corella-au/corella/internal/fetcher"
	"github.com/corella-au/corella/internal/notify"
	"github.com/corella-au/corella/internal/scanner"
	"github.com/corella-au/corella/internal/sitemap"
	"github.com/corella-au/corella/internal/verifier"
)

// Config holds the application configuration loaded from environment variables
type Config struct {
	Port              string // HTTP port to listen on
	Env               string // Environment (development/production)
	SentryDSN         string // Sentry DSN for error tracking
	LogLevel          string // Log level (debug, info, warn, error)
	SitemapURL        string // Default sitemap to audit
	SchedulerToken    string // Shared secret for the scheduled-scan endpoint
	SlackWebhookURL   string // Incoming webhook for broken-link notifications
	MaxPages          int    // Cap on pages per scan, 0 = uncapped
	ScheduledMaxPages int    // Tighter cap for scheduled scans
	WorkersPerBatch   int    // Parallel link checks per batch
}

func main() {
	// Load .env files - .env.local takes priority for development
	godotenv.Load(".env.local", ".env")

	// Load configuration
	config := &Config{
		Port:              getEnvWithDefault("PORT", "8080"),
		Env:               getEnvWithDefault("APP_ENV", "development"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		SitemapURL:        os.Getenv("SITEMAP_URL"),
		SchedulerToken:    os.Getenv("SCHEDULER_TOKEN"),
		SlackWebhookURL:   os.Getenv("SLACK_WEBHOOK_URL"),
		MaxPages:          getEnvInt("MAX_PAGES", 0),
		ScheduledMaxPages: getEnvInt("SCHEDULED_MAX_PAGES", 100),
		WorkersPerBatch:   getEnvInt("WORKERS_PER_BATCH", 10),
	}

	setupLogging(config)

	// Initialise Sentry for error tracking
	if config.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.SentryDSN,
			Environment: config.Env,
			TracesSampleRate: func() float64 {
				if config.Env == "production" {
					return 0.1 // 10% sampling in production
				}
				return 1.0 // 100% sampling in development
			}(),
			AttachStacktrace: true,
			Debug:            config.Env == "development",
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialise Sentry")
		} else {
			log.Info().Str("environment", config.Env).Msg("Sentry initialised successfully")
			// Ensure Sentry flushes before application exits
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Warn().Msg("Sentry DSN not configured, error tracking disabled")
	}

	if config.SitemapURL == "" {
		log.Warn().Msg("SITEMAP_URL not configured, scans must provide their own sitemap")
	}
	if config.SchedulerToken == "" {
		log.Warn().Msg("SCHEDULER_TOKEN not configured, scheduled scans disabled")
	}

	// Build the scan pipeline
	sitemapClient := sitemap.New(sitemap.DefaultConfig())
	pageFetcher := fetcher.New(fetcher.DefaultConfig())
	linkChecker := verifier.New(verifier.DefaultConfig())

	scanConfig := scanner.DefaultConfig()
	scanConfig.WorkersPerBatch = config.WorkersPerBatch
	siteScanner := scanner.New(scanConfig, pageFetcher, linkChecker, nil)

	// Scheduled scans run in a bounded execution window, so they get
	// shorter politeness pauses alongside their tighter page cap
	scheduledConfig := scanner.DefaultConfig()
	scheduledConfig.WorkersPerBatch = config.WorkersPerBatch
	scheduledConfig.BatchDelay = scheduledConfig.BatchDelay / 2
	scheduledConfig.PageDelay = scheduledConfig.PageDelay / 2
	scheduledScanner := scanner.New(scheduledConfig, pageFetcher, linkChecker, nil)

	notifyConfig := notify.DefaultConfig()
	notifyConfig.WebhookURL = config.SlackWebhookURL
	notifier := notify.New(notifyConfig)

	log.Info().
		Str("sitemap_url", config.SitemapURL).
		Int("workers_per_batch", config.WorkersPerBatch).
		Int("max_pages", config.MaxPages).
		Bool("slack_enabled", config.SlackWebhookURL != "").
		Msg("Scan pipeline configured")

	// Create API handler with dependencies
	apiHandler := api.NewHandler(&api.Config{
		SitemapURL:        config.SitemapURL,
		SchedulerToken:    config.SchedulerToken,
		MaxPages:          config.MaxPages,
		ScheduledMaxPages: config.ScheduledMaxPages,
	}, sitemapClient, siteScanner, notifier)
	apiHandler.ScheduledScanner = scheduledScanner

	// Create HTTP multiplexer
	mux := http.NewServeMux()

	// Setup API routes
	apiHandler.SetupRoutes(mux)

	// Scans are expensive; keep the per-client limit low
	limiter := api.NewRateLimiter(1, 3)

	// Add middleware in reverse order (outermost first)
	var handler http.Handler = mux
	handler = limiter.Middleware(handler)
	handler = api.LoggingMiddleware(handler)
	handler = api.RequestIDMiddleware(handler)
	handler = api.SecurityHeadersMiddleware(handler)
	handler = api.CORSMiddleware(handler)

	// Create a new HTTP server
	server := &http.Server{
		Addr:    ":" + config.Port,
		Handler: handler,
	}

	// Channel to listen for termination signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal when the server has shut down
	done := make(chan struct{})

	go func() {
		<-stop
		log.Info().Msg("Shutting down server...")

		// Create shutdown context with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Stop accepting new requests
		if err := server.Shutdown(ctx); err != nil {
			sentry.CaptureException(err)
			log.Error().Err(err).Msg("Server forced to shutdown")
		}

		close(done)
	}()

	// Start the server
	log.Info().Str("port", config.Port).Msg("Starting server")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("Server error")
	}

	<-done // Wait for the shutdown process to complete
	log.Info().Msg("Server stopped")
}

// getEnvWithDefault retrieves an environment variable or returns a default value if not set
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns a default value if not set or invalid
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result int
	if _, err := fmt.Sscanf(value, "%d", &result); err != nil {
		log.Warn().
			Str("key", key).
			Str("value", value).
			Int("default", defaultValue).
			Msg("Invalid integer in environment variable, using default")
		return defaultValue
	}

	return result
}

// setupLogging configures the logging system
func setupLogging(config *Config) {
	// Configure log level
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	// Use console writer in development
	if config.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		// In production, use a JSON format that works well with Fly.io logs
		log.Logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Str("service", "corella").
			Logger()
	}
}
