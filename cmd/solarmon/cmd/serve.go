package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hamzajavaid/solarmon/internal/api/handlers"
	"github.com/hamzajavaid/solarmon/internal/api/middleware"
	"github.com/hamzajavaid/solarmon/internal/cache"
	"github.com/hamzajavaid/solarmon/internal/config"
	"github.com/hamzajavaid/solarmon/internal/monitor"
	"github.com/hamzajavaid/solarmon/internal/notify"
	"github.com/hamzajavaid/solarmon/internal/store"
	"github.com/hamzajavaid/solarmon/internal/telemetry"
	"github.com/hamzajavaid/solarmon/internal/watchpower"
	"github.com/hamzajavaid/solarmon/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the monitoring scheduler and API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	st, err := newStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	// Provider client with rate limiting shared by every account.
	limiter := watchpower.NewRateLimiter(
		cfg.Provider.RateLimit.PerSecond,
		cfg.Provider.RateLimit.Burst,
		cfg.Provider.RateLimit.DailyLimit,
	)
	client := watchpower.NewDessClient(
		watchpower.WithBaseURL(cfg.Provider.BaseURL),
		watchpower.WithHTTPClient(&http.Client{Timeout: cfg.Provider.Timeout}),
		watchpower.WithRateLimiter(limiter),
	)
	sessions := watchpower.NewSessionManager(client, watchpower.WithSessionLogger(log))

	sampler := telemetry.NewSampler(
		client,
		sessions,
		cache.New(cache.WithTTL(cfg.Provider.CacheTTL)),
		log,
	)

	dispatcher := notify.NewDispatcher(log, buildNotifiers(cfg, log)...)
	log.Info("notification channels configured", "channels", dispatcher.Channels())

	engine := monitor.NewEngine(st, sampler, dispatcher, cfg.Monitor, log)

	scheduler, err := monitor.NewScheduler(engine, cfg.Monitor.PollInterval, log)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	e := newServer(cfg, log, st, engine, sampler)

	scheduler.Start()
	log.Info("scheduler started", "interval", cfg.Monitor.PollInterval)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
		}
	}()

	// Wait for interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop the scheduler first so no cycle races the server teardown.
	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		log.Warn("timed out waiting for running cycle")
	}

	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("stopped")
	return nil
}

// newStore selects the account store backend from config.
func newStore(cfg *config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Accounts.Source {
	case "static":
		log.Info("using static account store", "accounts", len(cfg.Accounts.Static))
		s, err := store.NewStaticStore(cfg.Accounts.Static)
		if err != nil {
			return nil, fmt.Errorf("creating static store: %w", err)
		}
		return s, nil
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		log.Info("connected to database", "host", cfg.Database.Host, "db", cfg.Database.Name)
		return s, nil
	}
}

// buildNotifiers constructs one notifier per enabled channel. With no
// channels enabled, alerts go to a log-only notifier.
func buildNotifiers(cfg *config.Config, log *slog.Logger) []notify.Notifier {
	var notifiers []notify.Notifier

	n := cfg.Notifications
	if n.Discord.Enabled {
		notifiers = append(notifiers, notify.NewDiscordNotifier(n.Discord.WebhookURL))
	}
	if n.Telegram.Enabled {
		notifiers = append(notifiers, notify.NewTelegramNotifier(n.Telegram.BotToken, n.Telegram.ChatID))
	}
	if n.Webhook.Enabled {
		notifiers = append(notifiers, notify.NewWebhookNotifier(
			n.Webhook.URL,
			notify.WithWebhookHeaders(n.Webhook.Headers),
		))
	}
	if n.Email.Enabled {
		to := strings.Split(n.Email.To, ",")
		for i := range to {
			to[i] = strings.TrimSpace(to[i])
		}
		notifiers = append(notifiers, notify.NewEmailNotifier(
			n.Email.SMTPHost,
			n.Email.SMTPPort,
			n.Email.Username,
			n.Email.Password,
			n.Email.From,
			to,
		))
	}

	if len(notifiers) == 0 {
		log.Warn("no notification channels enabled, alerts will only be logged")
		notifiers = append(notifiers, notify.NewNoOpNotifier(log))
	}

	return notifiers
}

// newServer assembles the echo server: health and metrics endpoints
// plus the Huma-registered API routes.
func newServer(
	cfg *config.Config,
	log *slog.Logger,
	st store.Store,
	engine *monitor.Engine,
	sampler *telemetry.Sampler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("solarmon", Version))
	handlers.RegisterAccountRoutes(api, handlers.NewAccountsHandler(st))
	handlers.RegisterStatusRoutes(api, handlers.NewStatusHandler(st, engine, sampler))

	return e
}
