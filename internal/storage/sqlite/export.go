package sqlite

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/sandevgo/falcon/internal/core"
)

// Exporter serializes the durable record families for one session scope,
// either as a nested JSON document or as a flat CSV of the turn family.
type Exporter struct {
	store   *Store
	turns   *TurnsRepo
	facts   *FactsRepo
	userCtx *UserContextRepo
	tasks   *TasksRepo
}

func NewExporter(store *Store) *Exporter {
	return &Exporter{
		store:   store,
		turns:   NewTurnsRepo(store),
		facts:   NewFactsRepo(store),
		userCtx: NewUserContextRepo(store),
		tasks:   NewTasksRepo(store),
	}
}

type ExportOptions struct {
	SessionID    string
	IncludeFacts bool
	IncludeTasks bool
}

type Insights struct {
	TaskSuccessRate float64         `json:"task_success_rate"`
	TotalTasks      int             `json:"total_tasks_executed"`
	TopInterests    []InterestCount `json:"top_interests"`
	FactCount       int             `json:"long_term_memories"`
	SessionMessages int             `json:"session_messages"`
	SessionID       string          `json:"current_session_id"`
}

type InterestCount struct {
	Tag   string  `json:"tag"`
	Count float64 `json:"count"`
}

type exportDocument struct {
	ExportTimestamp time.Time             `json:"export_timestamp"`
	SessionID       string                `json:"session_id"`
	Conversations   []core.Turn           `json:"conversations"`
	UserContext     map[string]core.Value `json:"user_context"`
	Insights        Insights              `json:"insights"`
	Facts           []core.Fact           `json:"long_term_memories,omitempty"`
	TaskHistory     []core.TaskRecord     `json:"task_history,omitempty"`
}

func (e *Exporter) ExportJSON(ctx context.Context, opts ExportOptions) ([]byte, error) {
	turns, err := e.turns.SessionTurns(ctx, opts.SessionID)
	if err != nil {
		return nil, err
	}

	userContext, err := e.userCtx.Read(ctx, "")
	if err != nil {
		return nil, err
	}

	insights, err := e.Insights(ctx, opts.SessionID)
	if err != nil {
		return nil, err
	}

	doc := exportDocument{
		ExportTimestamp: e.store.now(),
		SessionID:       opts.SessionID,
		Conversations:   turns,
		UserContext:     userContext,
		Insights:        insights,
	}

	if opts.IncludeFacts {
		if doc.Facts, err = e.facts.AllFacts(ctx); err != nil {
			return nil, err
		}
	}
	if opts.IncludeTasks {
		if doc.TaskHistory, err = e.tasks.Patterns(ctx, "", 100); err != nil {
			return nil, err
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, core.NewStorageError("export_json", err)
	}
	return data, nil
}

// ExportCSV writes the conversation-turn family alone as flat rows.
func (e *Exporter) ExportCSV(ctx context.Context, sessionID string) ([]byte, error) {
	turns, err := e.turns.SessionTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "session_id", "user_message", "assistant_message", "message_type",
		"importance_score", "context_tags", "token_count", "response_time", "timestamp"}
	if err := w.Write(header); err != nil {
		return nil, core.NewStorageError("export_csv", err)
	}

	for _, t := range turns {
		assistant := ""
		if t.AssistantText != nil {
			assistant = *t.AssistantText
		}
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.SessionID,
			t.UserText,
			assistant,
			string(t.Kind),
			strconv.Itoa(int(t.Importance)),
			marshalTags(t.Tags),
			strconv.Itoa(t.TokenCount),
			strconv.FormatFloat(t.ResponseTime, 'f', -1, 64),
			t.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, core.NewStorageError("export_csv", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, core.NewStorageError("export_csv", err)
	}
	return buf.Bytes(), nil
}

// Insights derives usage statistics: task success rate over the recent
// window, interest counters accumulated by the learner, and store sizes.
func (e *Exporter) Insights(ctx context.Context, sessionID string) (Insights, error) {
	insights := Insights{SessionID: sessionID}

	patterns, err := e.tasks.Patterns(ctx, "", 50)
	if err != nil {
		return insights, err
	}
	insights.TotalTasks = len(patterns)
	if len(patterns) > 0 {
		successes := 0
		for _, p := range patterns {
			if p.Status == core.TaskSuccess {
				successes++
			}
		}
		insights.TaskSuccessRate = float64(successes) / float64(len(patterns)) * 100
	}

	interests, err := e.userCtx.Read(ctx, "interests")
	if err != nil {
		return insights, err
	}
	if raw, ok := interests["interests"]; ok {
		if m, ok := raw.Map(); ok {
			for tag, v := range m {
				if n, ok := v.Number(); ok {
					insights.TopInterests = append(insights.TopInterests, InterestCount{Tag: tag, Count: n})
				}
			}
			sort.Slice(insights.TopInterests, func(i, j int) bool {
				if insights.TopInterests[i].Count != insights.TopInterests[j].Count {
					return insights.TopInterests[i].Count > insights.TopInterests[j].Count
				}
				return insights.TopInterests[i].Tag < insights.TopInterests[j].Tag
			})
			if len(insights.TopInterests) > 5 {
				insights.TopInterests = insights.TopInterests[:5]
			}
		}
	}

	if insights.FactCount, err = e.facts.CountActiveFacts(ctx); err != nil {
		return insights, err
	}
	if insights.SessionMessages, err = e.turns.CountSession(ctx, sessionID); err != nil {
		return insights, err
	}

	return insights, nil
}
