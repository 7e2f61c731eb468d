package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sandevgo/falcon/internal/config"
	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/internal/service/agent"
	"github.com/sandevgo/falcon/pkg/log"
)

type ReadLine struct {
	cfg       *config.AppConfig
	agent     *agent.Agent
	rl        *readline.Instance
	sessionID string
}

func NewReadLine(agent *agent.Agent, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:       cfg,
		agent:     agent,
		rl:        rl,
		sessionID: core.NewSessionID(),
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("session_id", r.sessionID).Msg("ReadLine chat started. Type 'exit' to quit.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		_, err = r.agent.Run(ctx, r.sessionID, line, func(msg core.Message) {
			if msg.Content != "" {
				fmt.Fprintf(r.rl.Stdout(), "%s\n", msg.Content)
			}

			if len(msg.ToolCalls) > 0 {
				fmt.Fprintf(r.rl.Stdout(), "[System] Processing %d tool call(s)...\n", len(msg.ToolCalls))
				for _, tc := range msg.ToolCalls {
					fmt.Fprintf(r.rl.Stdout(), "  > Calling %s %s...\n", tc.Function.Name, tc.Function.Arguments)
				}
			}
		})

		if err != nil {
			logger.Error().Err(err).Msg("agent run failed")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
		}
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
