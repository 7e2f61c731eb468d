package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/internal/service/memory"
	"github.com/sandevgo/falcon/pkg/log"
)

const systemInstructions = `FALCON — Personal AI Companion

You are FALCON, an advanced AI assistant with sophisticated memory and contextual awareness. You learn from interactions, remember important information, and provide increasingly personalized assistance.

BEHAVIORAL GUIDELINES:
- Keep responses concise (1-2 sentences) unless detail is specifically requested
- Remember and reference past conversations and preferences
- Proactively suggest improvements based on usage patterns
- Prioritize user safety and system security

MEMORY USAGE:
- Automatically store important information in long-term memory
- Reference relevant past conversations and preferences
- Adapt responses based on the user's communication style and preferences

TOOLS:
- execute_system_task: for system tasks like opening applications, automation, etc.
- generate_image: for creating images based on prompts
- write_content: for generating articles, code, reports, etc.
- remember_information: for storing important information in long-term memory

Always be helpful, intelligent, and continuously improving through interaction.`

// contextSummary is the machine-readable context block injected as the
// second system message.
type contextSummary struct {
	UserPreferences  map[string]core.Value `json:"user_preferences"`
	RelevantMemories []string              `json:"relevant_memories"`
	RecentPatterns   []string              `json:"recent_patterns"`
	CurrentTags      []string              `json:"current_context_tags"`
}

// buildPrompt assembles the full message list for one reasoning call:
// instructions, context summary, real-time info, memory excerpts, recent
// history, and the live user message last. Lookup failures degrade to a
// smaller prompt instead of failing the turn.
func (a *Agent) buildPrompt(ctx context.Context, sessionID, input string, tags []string) []core.Message {
	logger := log.FromCtx(ctx)

	facts, err := a.facts.RelevantFacts(ctx, tags, core.ImportanceMedium, a.cfg.MemoryLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("relevant facts lookup failed")
	}

	history, err := a.turns.RecentHistory(ctx, sessionID, a.cfg.HistoryLimit, core.ImportanceLow)
	if err != nil {
		logger.Warn().Err(err).Msg("history lookup failed")
	}

	prefs, err := a.userCtx.Read(ctx, "")
	if err != nil {
		logger.Warn().Err(err).Msg("user context lookup failed")
	}

	var patterns []core.TaskRecord
	if memory.TagsIntersect(tags, "task", "system", "code") {
		patterns, err = a.tasks.Patterns(ctx, "", a.cfg.TaskPatternLimit)
		if err != nil {
			logger.Warn().Err(err).Msg("task patterns lookup failed")
		}
	}

	summary := contextSummary{
		UserPreferences:  prefs,
		RelevantMemories: make([]string, 0, len(facts)),
		RecentPatterns:   make([]string, 0),
		CurrentTags:      tags,
	}
	for _, f := range facts {
		summary.RelevantMemories = append(summary.RelevantMemories, f.Content)
	}
	for i, p := range patterns {
		if i == 2 {
			break
		}
		summary.RecentPatterns = append(summary.RecentPatterns, p.Description)
	}

	messages := []core.Message{
		{Role: core.RoleSystem, Content: systemInstructions},
		{Role: core.RoleSystem, Content: "Context Information: " + marshalSummary(summary)},
		{Role: core.RoleSystem, Content: "Current time info: " + a.realTimeInfo(sessionID)},
	}

	if len(facts) > 0 {
		var b strings.Builder
		b.WriteString("Relevant memories:\n")
		for _, f := range facts {
			b.WriteString("- ")
			b.WriteString(f.Content)
			b.WriteString("\n")
		}
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: strings.TrimRight(b.String(), "\n")})
	}

	messages = append(messages, history...)
	messages = append(messages, core.Message{Role: core.RoleUser, Content: input})

	return messages
}

func (a *Agent) realTimeInfo(sessionID string) string {
	now := a.now()
	return fmt.Sprintf("day=%s date=%s time=%s session_id=%s",
		now.Format("Monday"),
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		sessionID)
}

func marshalSummary(s contextSummary) string {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
