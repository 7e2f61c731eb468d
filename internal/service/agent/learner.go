package agent

import (
	"context"
	"strings"
	"time"

	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/pkg/log"
)

var (
	brevityCues = []string{"too long", "brief", "short"}
	detailCues  = []string{"more detail", "explain", "elaborate"}
)

// learn updates stored preferences from lexical cues in the exchange.
// Failures are logged and swallowed: learning must never cost the user
// their answer.
func (a *Agent) learn(ctx context.Context, input, answer string, tags []string) {
	logger := log.FromCtx(ctx)
	lower := strings.ToLower(input)

	if containsAny(lower, brevityCues) {
		if err := a.userCtx.Upsert(ctx, "preferred_response_length", core.StringValue("short"), "preference"); err != nil {
			logger.Warn().Err(err).Msg("failed to update response-length preference")
		}
	} else if containsAny(lower, detailCues) {
		if err := a.userCtx.Upsert(ctx, "preferred_response_length", core.StringValue("detailed"), "preference"); err != nil {
			logger.Warn().Err(err).Msg("failed to update response-length preference")
		}
	}

	if containsTag(tags, "task") && strings.Contains(lower, "good") {
		a.manager.Working().Set("successful_task_approach", map[string]any{
			"approach": answer,
			"context":  tags,
		}, 30*time.Minute)
	}

	if len(tags) > 0 {
		a.bumpInterests(ctx, tags)
	}
}

// bumpInterests increments the per-tag interest counters kept under the
// "interests" context key.
func (a *Agent) bumpInterests(ctx context.Context, tags []string) {
	logger := log.FromCtx(ctx)

	stored, err := a.userCtx.Read(ctx, "interests")
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read interests")
		return
	}

	counts := make(map[string]core.Value)
	if v, ok := stored["interests"]; ok {
		if m, isMap := v.Map(); isMap {
			for k, item := range m {
				counts[k] = item
			}
		}
	}

	for _, tag := range tags {
		n := 0.0
		if v, ok := counts[tag]; ok {
			if num, isNum := v.Number(); isNum {
				n = num
			}
		}
		counts[tag] = core.NumberValue(n + 1)
	}

	if err := a.userCtx.Upsert(ctx, "interests", core.MapValue(counts), "interests"); err != nil {
		logger.Warn().Err(err).Msg("failed to update interests")
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
