// Package main - Agentic Weaver daemon
//
// weaverd serves the account administration API, the section registry and
// per-user navigation pages over REST and a WebSocket event stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fpokrzywa/weaver-live/backend/modules/platform/config"
	"github.com/fpokrzywa/weaver-live/backend/modules/platform/logger"
	"github.com/fpokrzywa/weaver-live/backend/modules/platform/server"
	"github.com/fpokrzywa/weaver-live/cli/modules"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/database"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/system"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("weaverd %s (%s)\n", modules.AppVersion, modules.BuildHash())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	// Initialize logger
	outputs := []io.Writer{os.Stdout}
	if cfg.Logging.FilePath != "" {
		logFile, err := logger.CreateLogFile(cfg.Logging.FilePath, 10)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()
		outputs = append(outputs, logFile)
	}
	appLogger := logger.NewLogger(logger.ParseLevel(cfg.Logging.Level), outputs)
	logger.SetGlobalLogger(appLogger)

	logger.Info("Configuration loaded (log level: %s)", cfg.Logging.Level)

	if err := run(cfg); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := database.Open(openCtx, database.Config{URL: cfg.Database.URL, MaxOpenConns: cfg.Database.MaxOpenConns})
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("Database: %s (%s)", database.Redact(cfg.Database.URL), db.Type)

	svc := accounts.NewService(accounts.NewRepository(db))
	var admin *accounts.BootstrapAdmin
	if cfg.Admin.Email != "" {
		admin = &accounts.BootstrapAdmin{
			Email:     cfg.Admin.Email,
			Password:  cfg.Admin.Password,
			FirstName: cfg.Admin.FirstName,
			LastName:  cfg.Admin.LastName,
		}
	}
	if err := svc.SeedDefaults(openCtx, admin); err != nil {
		return fmt.Errorf("failed to seed accounts: %w", err)
	}

	if cfg.JWT.Secret == "" {
		logger.Warn("No jwt.secret configured, tokens will not survive a restart")
	}
	authn, err := auth.New(svc, auth.Config{
		Secret:      cfg.JWT.Secret,
		Issuer:      cfg.JWT.Issuer,
		ExpiryHours: cfg.JWT.ExpiryHours,
	})
	if err != nil {
		return err
	}

	metrics := system.NewMetricsCollector(5 * time.Second)
	metrics.Start()
	defer metrics.Stop()

	srv, err := server.NewServer(cfg, server.Deps{
		Accounts: svc,
		Auth:     authn,
		Bus:      eventbus.NewBus(),
		Metrics:  metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("%s daemon %s starting...", modules.AppName, modules.AppVersion)
	for _, rt := range srv.Routes() {
		logger.Debug("  %-36s %s", rt.Pattern, rt.Access)
	}

	return srv.Start(ctx)
}
