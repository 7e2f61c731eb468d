package core

import (
	"context"
	"time"
)

type TurnsRepository interface {
	// AppendTurn inserts an unanswered turn and returns its id. Ids are
	// monotonically increasing within a database.
	AppendTurn(ctx context.Context, sessionID, userText string, kind TurnKind, importance Importance, tags []string, tokenCount int) (int64, error)
	// AttachResponse closes a turn. Updating a missing id is a no-op, not
	// an error.
	AttachResponse(ctx context.Context, turnID int64, assistantText string, latency time.Duration) error
	// RecentHistory returns up to limit answered turns at or above the
	// importance floor, flattened to alternating user/assistant messages
	// in chronological order (oldest first).
	RecentHistory(ctx context.Context, sessionID string, limit int, floor Importance) ([]Message, error)
	SearchTurns(ctx context.Context, keyword string, limit int) ([]Turn, error)
	SessionTurns(ctx context.Context, sessionID string) ([]Turn, error)
	CountSession(ctx context.Context, sessionID string) (int, error)
}

type FactsRepository interface {
	// UpsertFact replaces any existing fact with the same key and
	// recomputes the content fingerprint.
	UpsertFact(ctx context.Context, fact Fact) error
	// RelevantFacts filters by importance floor and (when tags are given)
	// tag overlap, excluding expired facts. Each returned fact's access
	// counter is bumped within the same transaction as the read.
	RelevantFacts(ctx context.Context, tags []string, floor Importance, limit int) ([]Fact, error)
	AllFacts(ctx context.Context) ([]Fact, error)
	CountActiveFacts(ctx context.Context) (int, error)
}

type UserContextRepository interface {
	Upsert(ctx context.Context, key string, value Value, category string) error
	// Read returns the full mapping, or only entries of the given
	// category when category is non-empty.
	Read(ctx context.Context, category string) (map[string]Value, error)
}

type TasksRepository interface {
	Record(ctx context.Context, rec TaskRecord) error
	// Patterns returns recent task records, most recent first, optionally
	// filtered by type.
	Patterns(ctx context.Context, taskType string, limit int) ([]TaskRecord, error)
}

type SweepStats struct {
	Turns int64
	Facts int64
	Tasks int64
}

type Sweeper interface {
	// Sweep deletes low-importance turns and failed task records older
	// than the retention window, and facts whose expiry has passed.
	Sweep(ctx context.Context, retainDays int) (SweepStats, error)
	Vacuum(ctx context.Context) error
}

type AIProvider interface {
	Chat(ctx context.Context, history []Message, tools []Tool) (Message, error)
}
