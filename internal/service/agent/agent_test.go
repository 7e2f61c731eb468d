package agent

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/falcon/internal/config"
	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/internal/providers/tools"
	"github.com/sandevgo/falcon/internal/service/memory"
	"github.com/sandevgo/falcon/internal/storage/sqlite"
	"github.com/sandevgo/falcon/pkg/retry"
)

func fastRetrier() *retry.Retrier {
	return retry.NewRetrier(&retry.Config{
		MaxRetries:    2,
		BackoffFactor: 2.0,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		Jitter:        time.Millisecond,
	})
}

// scriptedProvider returns canned messages in order and records every
// request it sees.
type scriptedProvider struct {
	replies  []core.Message
	err      error
	requests [][]core.Message
	calls    int
}

func (p *scriptedProvider) Chat(ctx context.Context, history []core.Message, defs []core.Tool) (core.Message, error) {
	p.calls++
	p.requests = append(p.requests, history)
	if p.err != nil {
		return core.Message{}, p.err
	}
	if len(p.replies) == 0 {
		return core.Message{Role: core.RoleAssistant, Content: "ok"}, nil
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return reply, nil
}

type fixture struct {
	agent    *Agent
	provider *scriptedProvider
	store    *sqlite.Store
	turns    *sqlite.TurnsRepo
	facts    *sqlite.FactsRepo
	userCtx  *sqlite.UserContextRepo
	tasks    *sqlite.TasksRepo
	manager  *memory.Manager
}

func newFixture(t *testing.T, provider *scriptedProvider, reg *tools.Registry) *fixture {
	t.Helper()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "falcon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	turns := sqlite.NewTurnsRepo(store)
	facts := sqlite.NewFactsRepo(store)
	userCtx := sqlite.NewUserContextRepo(store)
	tasks := sqlite.NewTasksRepo(store)
	manager := memory.NewManager(memory.NewWorkingMemory())

	cfg := &config.AppConfig{
		HistoryLimit:     8,
		MemoryLimit:      3,
		TaskPatternLimit: 3,
	}
	if reg == nil {
		reg = tools.NewRegistry()
	}

	a := NewAgent(cfg, provider, turns, facts, userCtx, tasks, manager, reg)

	return &fixture{
		agent:    a,
		provider: provider,
		store:    store,
		turns:    turns,
		facts:    facts,
		userCtx:  userCtx,
		tasks:    tasks,
		manager:  manager,
	}
}

func TestRunPlainAnswer(t *testing.T) {
	provider := &scriptedProvider{
		replies: []core.Message{{Role: core.RoleAssistant, Content: "Hello back!"}},
	}
	f := newFixture(t, provider, nil)
	ctx := context.Background()

	answer, err := f.agent.Run(ctx, "s1", "hello there", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello back!", answer)
	assert.Equal(t, 1, provider.calls)

	turnsList, err := f.turns.SessionTurns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turnsList, 1)
	require.NotNil(t, turnsList[0].AssistantText)
	assert.Equal(t, "Hello back!", *turnsList[0].AssistantText)
	assert.Equal(t, core.ImportanceLow, turnsList[0].Importance)

	// low importance: no long-term fact
	count, err := f.facts.CountActiveFacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, ok := f.manager.Working().Get("last_interaction")
	assert.True(t, ok, "last_interaction should be cached")
}

func TestRunPromptShape(t *testing.T) {
	provider := &scriptedProvider{
		replies: []core.Message{{Role: core.RoleAssistant, Content: "noted"}},
	}
	f := newFixture(t, provider, nil)
	ctx := context.Background()

	_, err := f.agent.Run(ctx, "s1", "what is the plan", nil)
	require.NoError(t, err)

	require.Len(t, provider.requests, 1)
	msgs := provider.requests[0]
	require.GreaterOrEqual(t, len(msgs), 4)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "FALCON")
	assert.Contains(t, msgs[1].Content, "Context Information")
	assert.Contains(t, msgs[2].Content, "session_id=s1")

	last := msgs[len(msgs)-1]
	assert.Equal(t, core.RoleUser, last.Role)
	assert.Equal(t, "what is the plan", last.Content)
}

func TestRunPromotesImportantTurn(t *testing.T) {
	provider := &scriptedProvider{
		replies: []core.Message{{Role: core.RoleAssistant, Content: "Got it, tea it is."}},
	}
	f := newFixture(t, provider, nil)
	ctx := context.Background()

	_, err := f.agent.Run(ctx, "s1", "remember that I like tea", nil)
	require.NoError(t, err)

	facts, err := f.facts.AllFacts(ctx)
	require.NoError(t, err)
	require.Len(t, facts, 1)

	assert.True(t, strings.HasPrefix(facts[0].Key, "conversation_"))
	assert.Equal(t, "conversation", facts[0].Category)
	assert.Equal(t, core.ImportanceHigh, facts[0].Importance)
	assert.Contains(t, facts[0].Content, "User: remember that I like tea")
	assert.Contains(t, facts[0].Content, "Assistant: Got it, tea it is.")
}

func TestRunToolRoundTrip(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register("lookup", "look something up", `{"type":"object"}`, "system_task",
		func(ctx context.Context, args json.RawMessage) (string, error) {
			return "42", nil
		})

	provider := &scriptedProvider{
		replies: []core.Message{
			{
				Role: core.RoleAssistant,
				ToolCalls: []core.ToolCall{{
					ID:   "call_1",
					Type: "function",
					Function: core.FunctionCall{
						Name:      "lookup",
						Arguments: `{"q":"answer"}`,
					},
				}},
			},
			{Role: core.RoleAssistant, Content: "The answer is 42."},
		},
	}
	f := newFixture(t, provider, reg)
	ctx := context.Background()

	answer, err := f.agent.Run(ctx, "s1", "run the lookup task", nil)
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", answer)
	assert.Equal(t, 2, provider.calls)

	// second request carries the assistant tool-call message and the tool
	// result, in order
	second := provider.requests[1]
	rt := second[len(second)-1]
	assert.Equal(t, core.RoleTool, rt.Role)
	assert.Equal(t, "42", rt.Content)
	assert.Equal(t, "call_1", rt.ToolCallID)
	assert.NotEmpty(t, second[len(second)-2].ToolCalls)

	recs, err := f.tasks.Patterns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, core.TaskSuccess, recs[0].Status)
	assert.Equal(t, "system_task", recs[0].Type)
	assert.Equal(t, "42", recs[0].Summary)
}

func TestRunProviderDown(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("connection refused")}
	f := newFixture(t, provider, nil)
	f.agent.retrier = fastRetrier()
	ctx := context.Background()

	answer, err := f.agent.Run(ctx, "s1", "hello", nil)
	require.NoError(t, err, "provider failure must not surface as an error")
	assert.Equal(t, unavailableReply, answer)
	assert.Greater(t, provider.calls, 1, "call should have been retried")

	turnsList, err := f.turns.SessionTurns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turnsList, 1)
	require.NotNil(t, turnsList[0].AssistantText)
	assert.Equal(t, unavailableReply, *turnsList[0].AssistantText)
}

func TestRunBumpsInterests(t *testing.T) {
	provider := &scriptedProvider{
		replies: []core.Message{{Role: core.RoleAssistant, Content: "done"}},
	}
	f := newFixture(t, provider, nil)
	ctx := context.Background()

	_, err := f.agent.Run(ctx, "s1", "run this task now", nil)
	require.NoError(t, err)

	stored, err := f.userCtx.Read(ctx, "interests")
	require.NoError(t, err)
	v, ok := stored["interests"]
	require.True(t, ok)
	m, isMap := v.Map()
	require.True(t, isMap)

	n, isNum := m["task"].Number()
	require.True(t, isNum)
	assert.Equal(t, 1.0, n)
}

func promptText(msgs []core.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func TestRunFactFloorExcludesLow(t *testing.T) {
	provider := &scriptedProvider{
		replies: []core.Message{{Role: core.RoleAssistant, Content: "sure"}},
	}
	f := newFixture(t, provider, nil)
	ctx := context.Background()

	require.NoError(t, f.facts.UpsertFact(ctx, core.Fact{
		Key:        "scratch_note",
		Content:    "passing low-value aside",
		Category:   "observation",
		Importance: core.ImportanceLow,
		Tags:       []string{"personal"},
	}))
	require.NoError(t, f.facts.UpsertFact(ctx, core.Fact{
		Key:        "tea_preference",
		Content:    "prefers Earl Grey tea",
		Category:   "preference",
		Importance: core.ImportanceMedium,
		Tags:       []string{"personal"},
	}))

	_, err := f.agent.Run(ctx, "s1", "tell me about the plans", nil)
	require.NoError(t, err)

	require.Len(t, provider.requests, 1)
	prompt := promptText(provider.requests[0])
	assert.Contains(t, prompt, "prefers Earl Grey tea")
	assert.NotContains(t, prompt, "passing low-value aside",
		"low-importance facts must stay out of the bundle")
}

func TestRunRecallsPromotedFact(t *testing.T) {
	provider := &scriptedProvider{
		replies: []core.Message{
			{Role: core.RoleAssistant, Content: "Noted, blue it is."},
			{Role: core.RoleAssistant, Content: "You like blue."},
		},
	}
	f := newFixture(t, provider, nil)
	ctx := context.Background()

	_, err := f.agent.Run(ctx, "s1", "Please remember my favorite color is blue", nil)
	require.NoError(t, err)

	facts, err := f.facts.AllFacts(ctx)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, core.ImportanceHigh, facts[0].Importance)
	assert.Contains(t, facts[0].Tags, "personal")

	// a later personal-tagged message, in a fresh session, sees the fact
	_, err = f.agent.Run(ctx, "s2", "tell me about my preferences", nil)
	require.NoError(t, err)

	require.Len(t, provider.requests, 2)
	prompt := promptText(provider.requests[1])
	assert.Contains(t, prompt, "favorite color is blue")
}
