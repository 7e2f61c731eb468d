package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sandevgo/falcon/internal/config"
	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/internal/providers/llm"
	"github.com/sandevgo/falcon/internal/providers/tools"
	"github.com/sandevgo/falcon/internal/service/agent"
	"github.com/sandevgo/falcon/internal/service/maintenance"
	"github.com/sandevgo/falcon/internal/service/memory"
	"github.com/sandevgo/falcon/internal/storage/sqlite"
	"github.com/sandevgo/falcon/internal/transport/cli"
	"github.com/sandevgo/falcon/internal/transport/telegram"
	"github.com/sandevgo/falcon/pkg/log"
	"github.com/sandevgo/falcon/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	// 2. Storage
	store, err := sqlite.Open(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(store.Close))

	turnsRepo := sqlite.NewTurnsRepo(store)
	factsRepo := sqlite.NewFactsRepo(store)
	userCtxRepo := sqlite.NewUserContextRepo(store)
	tasksRepo := sqlite.NewTasksRepo(store)

	seedUserContext(ctx, appCfg, userCtxRepo)

	// 3. AI Provider
	aiProvider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Memory policy and working cache
	manager := memory.NewManager(memory.NewWorkingMemory())

	// 5. Tools
	registry := tools.NewRegistry()
	tools.RegisterBuiltin(registry, tools.BuiltinConfig{
		RuntimePath:  appCfg.GetRuntimePath(),
		ImageCommand: appCfg.ImageGenCommand,
		Provider:     aiProvider,
		Facts:        factsRepo,
		Manager:      manager,
	})

	// 6. Agent Service
	ag := agent.NewAgent(
		appCfg,
		aiProvider,
		turnsRepo,
		factsRepo,
		userCtxRepo,
		tasksRepo,
		manager,
		registry,
	)

	// 7. Maintenance
	services = append(services, maintenance.New(
		store,
		manager.Working(),
		appCfg.SweepSchedule,
		appCfg.RetainDays,
	))

	// 8. Transports
	transports, err := initTransports(ctx, appCfg, ag)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

// seedUserContext writes the default preferences on first run so the context
// summary is never empty.
func seedUserContext(ctx context.Context, cfg *config.AppConfig, repo *sqlite.UserContextRepo) {
	logger := log.FromCtx(ctx)

	existing, err := repo.Read(ctx, "")
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read user context")
		return
	}
	if len(existing) > 0 {
		return
	}

	defaults := map[string]core.Value{
		"preferred_response_style": core.StringValue("concise"),
		"task_execution_preferences": core.MapValue(map[string]core.Value{
			"default_priority": core.StringValue("medium"),
		}),
		"communication_preferences": core.MapValue(map[string]core.Value{
			"use_emojis":      core.BoolValue(true),
			"response_length": core.StringValue("short"),
		}),
	}
	if cfg.UserName != "" {
		defaults["user_name"] = core.StringValue(cfg.UserName)
	}

	for key, value := range defaults {
		if err := repo.Upsert(ctx, key, value, "preference"); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("failed to seed user context")
		}
	}
}

func initTransports(ctx context.Context, cfg *config.AppConfig, ag *agent.Agent) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.IsCLISelected() {
		rl, err := cli.NewReadLine(ag, cfg)
		if err != nil {
			return nil, err
		}
		services = append(services, rl)
	}

	if cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, ag)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
