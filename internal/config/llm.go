package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/falcon/pkg/log"
)

type LLMConfig struct {
	Provider string `env:"LLM_PROVIDER" envDefault:"groq"`
	Model    string `env:"LLM_MODEL" envDefault:"llama-3.3-70b-versatile"`

	GroqAPIKey   string `env:"GROQ_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	CustomBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomAPIKey  string `env:"CUSTOM_OPENAI_API_KEY"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}
