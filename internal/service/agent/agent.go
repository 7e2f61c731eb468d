package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/falcon/internal/config"
	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/internal/providers/tools"
	"github.com/sandevgo/falcon/internal/service/memory"
	"github.com/sandevgo/falcon/pkg/log"
	"github.com/sandevgo/falcon/pkg/retry"
)

const unavailableReply = "I'm having trouble reaching my reasoning service right now. Please try again in a moment."

// Agent runs one conversational turn end to end: classify, persist, assemble
// context, call the reasoning provider, dispatch tools, attach the answer,
// and promote the exchange to long-term memory when it qualifies.
type Agent struct {
	cfg      *config.AppConfig
	ai       core.AIProvider
	turns    core.TurnsRepository
	facts    core.FactsRepository
	userCtx  core.UserContextRepository
	tasks    core.TasksRepository
	manager  *memory.Manager
	registry *tools.Registry
	retrier  *retry.Retrier

	// now is swappable in tests
	now func() time.Time
}

func NewAgent(
	cfg *config.AppConfig,
	ai core.AIProvider,
	turns core.TurnsRepository,
	facts core.FactsRepository,
	userCtx core.UserContextRepository,
	tasks core.TasksRepository,
	manager *memory.Manager,
	registry *tools.Registry,
) *Agent {
	return &Agent{
		cfg:      cfg,
		ai:       ai,
		turns:    turns,
		facts:    facts,
		userCtx:  userCtx,
		tasks:    tasks,
		manager:  manager,
		registry: registry,
		retrier:  retry.NewDefaultRetrier(),
		now:      time.Now,
	}
}

// Run processes a single user message and returns the assistant's answer.
// onUpdate, when non-nil, receives every assistant message as it arrives,
// including intermediate tool-call messages.
func (a *Agent) Run(ctx context.Context, sessionID, input string, onUpdate func(core.Message)) (string, error) {
	logger := log.FromCtx(ctx)
	start := a.now()

	a.manager.Working().SweepExpired()

	tags := a.manager.ExtractTags(input)
	importance := a.manager.ClassifyImportance(input, tags)
	tokenCount := memory.EstimateTokens(input)

	turnID, err := a.turns.AppendTurn(ctx, sessionID, input, core.TurnNormal, importance, tags, tokenCount)
	if err != nil {
		return "", fmt.Errorf("failed to save user message: %w", err)
	}

	logger.Debug().
		Int64("turn_id", turnID).
		Strs("tags", tags).
		Stringer("importance", importance).
		Msg("turn classified")

	messages := a.buildPrompt(ctx, sessionID, input, tags)
	defs := a.registry.Definitions()

	responseMsg, err := a.chat(ctx, messages, defs)
	if err != nil {
		logger.Error().Err(err).Msg("reasoning call failed")
		a.attach(ctx, turnID, unavailableReply, a.now().Sub(start))
		return unavailableReply, nil
	}
	if onUpdate != nil {
		onUpdate(responseMsg)
	}

	answer := strings.TrimSpace(responseMsg.Content)

	if len(responseMsg.ToolCalls) > 0 {
		messages = append(messages, responseMsg)

		for _, tc := range responseMsg.ToolCalls {
			logger.Info().Str("tool", tc.Function.Name).Msg("executing tool")

			result := a.registry.Dispatch(ctx, tc)
			a.recordTask(ctx, tc, result)

			messages = append(messages, core.Message{
				Role:       core.RoleTool,
				Content:    result.Summary,
				ToolCallID: tc.ID,
			})
		}

		finalMsg, err := a.chat(ctx, messages, nil)
		if err != nil {
			logger.Error().Err(err).Msg("final reasoning call failed")
			a.attach(ctx, turnID, unavailableReply, a.now().Sub(start))
			return unavailableReply, nil
		}
		if onUpdate != nil {
			onUpdate(finalMsg)
		}
		answer = strings.TrimSpace(finalMsg.Content)
	}

	latency := a.now().Sub(start)
	a.attach(ctx, turnID, answer, latency)

	if a.manager.ShouldPersistLongTerm(importance) {
		a.promoteTurn(ctx, turnID, input, answer, importance, tags)
	}

	a.manager.Working().Set("last_interaction", map[string]any{
		"input":  input,
		"output": answer,
		"tags":   tags,
	}, 30*time.Minute)

	a.learn(ctx, input, answer, tags)

	return answer, nil
}

// chat wraps the provider call with retries. The returned error is an
// ExternalCallError wrapping the last attempt's failure.
func (a *Agent) chat(ctx context.Context, messages []core.Message, defs []core.Tool) (core.Message, error) {
	var reply core.Message
	err := a.retrier.Do(ctx, func() error {
		var callErr error
		reply, callErr = a.ai.Chat(ctx, messages, defs)
		return callErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return core.Message{}, err
		}
		return core.Message{}, &core.ExternalCallError{Call: "chat", Err: err}
	}
	return reply, nil
}

// attach closes the turn; failure to do so is logged, not surfaced, since
// the answer itself is already decided.
func (a *Agent) attach(ctx context.Context, turnID int64, answer string, latency time.Duration) {
	if err := a.turns.AttachResponse(ctx, turnID, answer, latency); err != nil {
		log.FromCtx(ctx).Error().Err(err).Int64("turn_id", turnID).Msg("failed to attach response")
	}
}

func (a *Agent) recordTask(ctx context.Context, tc core.ToolCall, result tools.Result) {
	rec := core.TaskRecord{
		Description: tc.Function.Name + ": " + tc.Function.Arguments,
		Type:        result.Type,
		Status:      result.Status,
		Summary:     result.Summary,
		Duration:    result.Duration.Seconds(),
	}
	if err := a.tasks.Record(ctx, rec); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("tool", tc.Function.Name).Msg("failed to record task")
	}
}

// promoteTurn copies a qualifying exchange into long-term memory. The key
// embeds both the turn id and the date, so re-running a session never
// collides and a day's promotions are easy to list.
func (a *Agent) promoteTurn(ctx context.Context, turnID int64, input, answer string, importance core.Importance, tags []string) {
	key := fmt.Sprintf("conversation_%d_%s", turnID, a.now().Format("20060102"))
	err := a.facts.UpsertFact(ctx, core.Fact{
		Key:        key,
		Content:    fmt.Sprintf("User: %s\nAssistant: %s", input, answer),
		Category:   "conversation",
		Importance: importance,
		Tags:       tags,
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("key", key).Msg("failed to promote turn to long-term memory")
	}
}
