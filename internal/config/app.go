package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/falcon/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"FALCON_RUNTIME_PATH" envDefault:".falcon"`
	UserName    string `env:"FALCON_USER_NAME"`

	// Transport Flags
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"ENABLE_CLI" envDefault:"true"`

	// Context assembly limits
	HistoryLimit     int `env:"HISTORY_LIMIT" envDefault:"8"`
	MemoryLimit      int `env:"MEMORY_LIMIT" envDefault:"3"`
	TaskPatternLimit int `env:"TASK_PATTERN_LIMIT" envDefault:"3"`

	// Retention
	RetainDays    int    `env:"RETAIN_DAYS" envDefault:"30"`
	SweepSchedule string `env:"SWEEP_SCHEDULE" envDefault:"@hourly"`

	// External image generator; the tool reports unavailable when unset
	ImageGenCommand string `env:"IMAGE_GEN_COMMAND"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "falcon.db")
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}

func (c AppConfig) IsCLISelected() bool {
	return c.EnableCLI
}
