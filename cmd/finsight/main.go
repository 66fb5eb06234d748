package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"finsight/internal/auth"
	"finsight/internal/backend"
	"finsight/internal/brokerage"
	"finsight/internal/cli"
	"finsight/internal/config"
	apphttp "finsight/internal/http"
	applog "finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	dashCfg, err := dashboardConfig(cfg)
	if err != nil {
		logger.Error("Invalid dashboard configuration", applog.FieldError, err)
		os.Exit(1)
	}
	dashboard := services.NewDashboard(result.Reader, cfg.Catalog(), dashCfg)

	if cfg.SessionSecret == "" {
		logger.Warn("SESSION_SECRET is empty, every protected request will be rejected")
	}
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionIssuer, cfg.AllowedEmails)

	var broker apphttp.HoldingsReader
	if cfg.BrokerAPIKey != "" {
		broker = brokerage.NewClient(cfg.BrokerAPIKey, cfg.BrokerAPIURL, 15*time.Second)
	}

	rl := ratelimit.DefaultConfig()
	rl.RequestsPerMinute = cfg.RateLimitPerMinute

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Dashboard: dashboard,
		Sessions:  sessions,
		Brokerage: broker,
		Publisher: result.Publisher,
		Ready:     result.Ready,
		Logger:    logger,
		RateLimit: rl,

		TrustedProxies: cfg.TrustedProxies,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting finsight server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}

// dashboardConfig applies the milestone origin and tax rate from cfg to the
// dashboard defaults.
func dashboardConfig(cfg *config.Config) (services.DashboardConfig, error) {
	dashCfg := services.DefaultDashboardConfig()
	origin, err := cfg.Origin()
	if err != nil {
		return dashCfg, fmt.Errorf("milestone origin: %w", err)
	}
	dashCfg.Origin = services.Origin{Period: origin, Label: origin.Display()}

	rate, err := cfg.TaxRate()
	if err != nil {
		return dashCfg, fmt.Errorf("other income tax rate: %w", err)
	}
	dashCfg.OtherIncomeTaxRate = rate
	return dashCfg, nil
}
