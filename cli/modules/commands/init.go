package commands

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/config"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/database"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/logger"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/core"
)

// AppContext holds application-wide context
type AppContext struct {
	Config     *config.Config
	ConfigPath string
	DB         *database.DB
	Accounts   *accounts.Service
	Auth       *auth.Authenticator
	Bus        *eventbus.Bus
	Logger     *logger.Logger

	logFile io.Closer
}

var globalContext *AppContext

// InitContext opens the database and wires the account services.
// It is a no-op when the context already exists.
func InitContext(ctx context.Context) error {
	if globalContext != nil {
		return nil
	}

	cfg := config.GetGlobal()
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	settings := cfg.Settings

	bus := eventbus.NewBus()
	log, logFile, err := newFileLogger(settings.Logger, bus)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, *settings.Database)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return fmt.Errorf("failed to open database: %w", err)
	}

	svc := accounts.NewService(accounts.NewRepository(db))
	if err := svc.SeedDefaults(ctx, bootstrapAdmin(settings)); err != nil {
		db.Close()
		if logFile != nil {
			logFile.Close()
		}
		return err
	}

	authn, err := auth.New(svc, settings.Auth.Config)
	if err != nil {
		db.Close()
		if logFile != nil {
			logFile.Close()
		}
		return err
	}

	log.Info("Context ready (database %s)", database.Redact(settings.Database.URL))

	globalContext = &AppContext{
		Config:     cfg,
		ConfigPath: config.GetGlobalPath(),
		DB:         db,
		Accounts:   svc,
		Auth:       authn,
		Bus:        bus,
		Logger:     log,
		logFile:    logFile,
	}
	return nil
}

// GetContext returns the global application context
func GetContext() *AppContext {
	return globalContext
}

// CloseContext releases the database and the log file
func CloseContext() error {
	if globalContext == nil {
		return nil
	}
	var err error
	if globalContext.DB != nil {
		err = globalContext.DB.Close()
	}
	if globalContext.logFile != nil {
		globalContext.logFile.Close()
	}
	globalContext = nil
	return err
}

// CreatePresenter builds a presenter over the context's services
func CreatePresenter(appCtx *AppContext) *core.AppPresenter {
	p := core.NewAppPresenter(appCtx.Auth, appCtx.Accounts, appCtx.Bus)
	if ui := appCtx.Config.Settings.UI; ui != nil {
		p.SetDefaultModel(ui.DefaultModel)
	}
	return p
}

// newFileLogger logs to a rotating file. The terminal belongs to the TUI and the shell.
func newFileLogger(lc *config.LoggerConfig, bus *eventbus.Bus) (*logger.Logger, io.Closer, error) {
	if lc == nil {
		lc = config.DefaultLoggerConfig()
	}
	path := lc.FilePath
	if path == "" {
		path = config.DefaultLogPath()
	}

	file, err := logger.CreateLogFile(path, logger.FileOptions{
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   lc.Compress,
	})
	if err != nil {
		return nil, nil, err
	}

	log := logger.NewLogger(logger.ParseLevel(lc.Level), []io.Writer{file}, "weaver")
	log.SetBroadcaster(logger.BusBroadcaster{Bus: bus})
	logger.SetGlobalLogger(log)
	return log, file, nil
}

func bootstrapAdmin(s *config.Settings) *accounts.BootstrapAdmin {
	admin := s.BootstrapAdmin()
	if admin == nil {
		return nil
	}
	return &accounts.BootstrapAdmin{
		Email:     admin.Email,
		Password:  admin.Password,
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
	}
}

// registerSetupCommands registers configuration and setup commands
func registerSetupCommands() {
	RegisterCommand(&Command{
		Name:        "init",
		Category:    "Setup",
		Description: "Write the default config, migrate and seed the database",
		Usage:       "weaver init [--force]",
		Examples: []string{
			"weaver init",
			"weaver --config ./weaver.yaml init --force",
		},
		Handler: initCommand,
		Order:   40,
	})

	RegisterCommand(&Command{
		Name:        "config",
		Aliases:     []string{"cfg"},
		Category:    "Setup",
		Description: "Configuration management",
		Usage:       "weaver config <subcommand>",
		SubCommands: []SubCommand{
			{Name: "show", Description: "Show current configuration", Handler: configShowCommand},
			{Name: "path", Description: "Show config file path", Handler: configPathCommand},
			{Name: "server", Description: "Show or set the weaverd url used by 'weaver daemon'", Handler: configServerCommand},
		},
		Examples: []string{
			"weaver config show",
			"weaver cfg path",
			"weaver config server http://weaver.internal:3001",
		},
		Handler: configCommand,
		Order:   41,
	})
}

func initCommand(args []string) error {
	force := false
	for _, a := range args {
		if a == "--force" || a == "-f" {
			force = true
		}
	}

	path := config.GetGlobalPath()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if err := config.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	loader := config.NewLoader(path)
	if !loader.Exists() || force {
		cfg := config.GetGlobal()
		if err := loader.Save(cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		config.SetGlobal(cfg, path)
		fmt.Fprintf(out, "Wrote %s\n", path)
	} else {
		fmt.Fprintf(out, "Config already exists at %s (use --force to overwrite)\n", path)
	}

	// Opening the context applies migrations and seeds the default roles
	if err := InitContext(context.Background()); err != nil {
		return err
	}
	roles, err := GetContext().Accounts.ListRoles(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Database ready: %d roles\n", len(roles))
	return nil
}

func configCommand(args []string) error {
	if len(args) == 0 {
		return configShowCommand(nil)
	}
	return runSubCommand("config", args)
}

func configShowCommand(_ []string) error {
	cfg := config.GetGlobal()
	s := cfg.Settings

	fmt.Fprintf(out, "Config file: %s\n", config.GetGlobalPath())
	fmt.Fprintf(out, "Version:     %s\n", cfg.Version)
	if s.Database != nil {
		fmt.Fprintf(out, "Database:    %s\n", database.Redact(s.Database.URL))
	}
	if s.Logger != nil {
		fmt.Fprintf(out, "Log level:   %s\n", s.Logger.Level)
	}
	if s.UI != nil {
		fmt.Fprintf(out, "Theme:       %s\n", s.UI.Theme)
		fmt.Fprintf(out, "Model:       %s\n", s.UI.DefaultModel)
	}
	if s.Server != nil {
		fmt.Fprintf(out, "Server:      %s\n", s.Server.URL)
	}
	if admin := s.BootstrapAdmin(); admin != nil {
		fmt.Fprintf(out, "Admin:       %s\n", admin.Email)
	}
	return nil
}

func configPathCommand(_ []string) error {
	path := config.GetGlobalPath()
	if path == "" {
		path = config.FindConfigFile()
	}
	fmt.Fprintln(out, path)
	return nil
}

func configServerCommand(args []string) error {
	cfg := config.GetGlobal()
	if cfg.Settings.Server == nil {
		cfg.Settings.Server = config.DefaultSettings().Server
	}
	if len(args) == 0 {
		fmt.Fprintln(out, cfg.Settings.Server.URL)
		return nil
	}

	u, err := url.Parse(args[0])
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server url: %s", args[0])
	}
	cfg.Settings.Server.URL = strings.TrimRight(args[0], "/")
	if err := config.SaveGlobal(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Server set to %s\n", cfg.Settings.Server.URL)
	return nil
}
