package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/pkg/log"
)

// Handler executes one tool invocation and returns the text fed back into
// the conversation as the tool-role message.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Result is the outcome of a single dispatch, in the shape the task-history
// table records.
type Result struct {
	Status      core.TaskStatus
	Summary     string
	Duration    time.Duration
	Type        string
	Description string
}

type entry struct {
	def      core.Tool
	taskType string
	handler  Handler
}

// Registry maps tool names to handlers and owns the definitions advertised
// to the reasoning model. Registration happens once at startup; Dispatch is
// read-only after that.
type Registry struct {
	entries map[string]entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool under name. Later registrations with the same name
// replace earlier ones.
func (r *Registry) Register(name, description, schema, taskType string, h Handler) {
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = entry{
		def: core.Tool{
			Type: "function",
			Function: core.Function{
				Name:        name,
				Description: description,
				Parameters:  json.RawMessage(schema),
			},
		},
		taskType: taskType,
		handler:  h,
	}
}

// Definitions returns the advertised tool set in registration order.
func (r *Registry) Definitions() []core.Tool {
	defs := make([]core.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.entries[name].def)
	}
	return defs
}

// Dispatch runs the named tool and classifies the outcome. An unknown tool
// name or a handler error both come back as a failed Result rather than an
// error: the conversation continues either way, and the failure text is what
// the model sees.
func (r *Registry) Dispatch(ctx context.Context, call core.ToolCall) Result {
	name := call.Function.Name
	start := time.Now()

	e, ok := r.entries[name]
	if !ok {
		return Result{
			Status:      core.TaskFailed,
			Summary:     fmt.Sprintf("unknown tool: %s", name),
			Duration:    time.Since(start),
			Type:        "unknown",
			Description: name,
		}
	}

	out, err := e.handler(ctx, json.RawMessage(call.Function.Arguments))
	duration := time.Since(start)

	if err != nil {
		log.FromCtx(ctx).Warn().
			Err(err).
			Str("tool", name).
			Dur("duration", duration).
			Msg("tool failed")
		return Result{
			Status:      core.TaskFailed,
			Summary:     fmt.Sprintf("Error: %v", err),
			Duration:    duration,
			Type:        e.taskType,
			Description: name,
		}
	}

	log.FromCtx(ctx).Debug().
		Str("tool", name).
		Dur("duration", duration).
		Msg("tool completed")

	return Result{
		Status:      core.TaskSuccess,
		Summary:     out,
		Duration:    duration,
		Type:        e.taskType,
		Description: name,
	}
}
