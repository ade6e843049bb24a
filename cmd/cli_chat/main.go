package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"riskadvisor/internal/backend"
	"riskadvisor/internal/config"
	"riskadvisor/internal/repository"
	"riskadvisor/internal/service"
	"riskadvisor/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	var (
		exportDir     string
		markdownStyle string
		appConfigFile string
	)
	flagSet := pflag.NewFlagSet("riskadvisor", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.BackendURL, "backend-url", cfg.BackendURL, "base URL of the agent backend")
	flagSet.StringVar(&cfg.CompanyNumber, "company", cfg.CompanyNumber, "company number sent on every request")
	flagSet.StringVar(&cfg.UserID, "user", cfg.UserID, "user id sent on every request (generated when empty)")
	flagSet.StringVar(&cfg.StorageDir, "storage-dir", cfg.StorageDir, "directory of the local key-value file")
	flagSet.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write JSON log records to this file")
	flagSet.StringVar(&appConfigFile, "config", cfg.AppConfigFile, "YAML file with feature and UI flags")
	flagSet.StringVar(&exportDir, "export-dir", "", "directory for /export and /save files")
	flagSet.StringVar(&markdownStyle, "markdown-style", "auto", "markdown style: auto, dark, light or notty")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}
	if appConfigFile != cfg.AppConfigFile {
		if cfg.App, err = config.LoadAppConfig(appConfigFile); err != nil {
			return err
		}
	}

	logger, err := newFileLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	identityRepo := repository.NewIdentityRepository(store)
	if err := identityRepo.Save(ctx, repository.Identity{CompanyNumber: cfg.CompanyNumber, UserID: cfg.UserID}); err != nil {
		logger.Warn("identity seed failed", zap.Error(err))
	}

	client := backend.NewHTTPClient(cfg.BackendURL, identityRepo, cfg.RequestTimeout, cfg.ReadRetries, logger)
	svc := tui.Services{
		Chat:     service.NewChatService(client, cfg.App, cfg.HistoryLimit, logger),
		Agents:   service.NewAgentService(client, cfg.App.UI.ShowAgentStatus, logger),
		Docs:     service.NewDocumentSearchService(client, logger),
		Identity: identityRepo,
	}
	if cfg.App.Agents.Enabled {
		go svc.Agents.Poll(ctx, cfg.AgentPollInterval)
	}

	model := tui.NewModel(ctx, svc, tui.Options{
		ExportDir:     exportDir,
		MarkdownStyle: markdownStyle,
		App:           cfg.App,
		Logger:        logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// openStorage usa Redis si REDIS_ADDR responde; si no, el archivo local.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.KeyValueStore, func(), error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(ctxPing).Err()
		cancel()
		if err == nil {
			return repository.NewRedisStore(client), func() { _ = client.Close() }, nil
		}
		logger.Warn("redis ping failed, using file storage", zap.Error(err))
		_ = client.Close()
	}
	store, err := repository.NewFileStore(cfg.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

// newFileLogger escribe a archivo: stdout pertenece a la interfaz.
func newFileLogger(path, level string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zcfg.Level = lvl
	}
	return zcfg.Build()
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Risk Advisor terminal chat.

Ask questions about the insured portfolio; answers come from the agent
backend at --backend-url. Type /help inside the panel for commands.

Usage:
  riskadvisor [flags]

Flags:
%s`, flagSet.FlagUsages())
}
