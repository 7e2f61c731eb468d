package core

import (
	"strings"
	"time"
)

// Importance is the ordinal retention/retrieval priority of a turn or fact.
// The numeric values are the persisted compatibility surface.
type Importance int

const (
	ImportanceLow Importance = iota + 1
	ImportanceMedium
	ImportanceHigh
	ImportanceCritical
)

func (i Importance) String() string {
	switch i {
	case ImportanceLow:
		return "low"
	case ImportanceMedium:
		return "medium"
	case ImportanceHigh:
		return "high"
	case ImportanceCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseImportance maps a free-form level name to an Importance, defaulting
// to medium for anything unrecognized (tool arguments come from the model).
func ParseImportance(s string) Importance {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ImportanceLow
	case "high":
		return ImportanceHigh
	case "critical":
		return ImportanceCritical
	default:
		return ImportanceMedium
	}
}

// TurnKind is the persisted message_type column. Only TurnNormal is written
// today; the other values occur in existing databases and must stay
// readable.
type TurnKind string

const (
	TurnNormal     TurnKind = "normal"
	TurnToolCall   TurnKind = "tool_call"
	TurnToolResult TurnKind = "tool_result"
)

// Turn is one user message and its eventually attached assistant response.
// AssistantText is nil until the turn is answered.
type Turn struct {
	ID            int64      `json:"id"`
	SessionID     string     `json:"session_id"`
	UserText      string     `json:"user_message"`
	AssistantText *string    `json:"assistant_message"`
	Kind          TurnKind   `json:"message_type"`
	Importance    Importance `json:"importance_score"`
	Tags          []string   `json:"context_tags"`
	TokenCount    int        `json:"token_count"`
	ResponseTime  float64    `json:"response_time"`
	CreatedAt     time.Time  `json:"timestamp"`
}

// Fact is a long-term memory record. Key is the identity; re-adding a key
// replaces the content. Reads are not side-effect-free: every successful
// retrieval bumps AccessCount and LastAccessed.
type Fact struct {
	Key          string     `json:"memory_key"`
	Content      string     `json:"memory_content"`
	Category     string     `json:"memory_type"`
	Importance   Importance `json:"importance"`
	Tags         []string   `json:"context_tags"`
	Fingerprint  string     `json:"content_hash"`
	AccessCount  int        `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// UserContextEntry is an upsert-only preference/context key.
type UserContextEntry struct {
	Key       string    `json:"context_key"`
	Value     Value     `json:"context_value"`
	Category  string    `json:"context_type"`
	UpdatedAt time.Time `json:"last_updated"`
}

type TaskStatus string

const (
	TaskSuccess TaskStatus = "success"
	TaskFailed  TaskStatus = "failed"
)

// TaskRecord is an append-only log entry for a tool backend invocation.
type TaskRecord struct {
	ID          int64      `json:"id"`
	Description string     `json:"task_description"`
	Type        string     `json:"task_type"`
	Status      TaskStatus `json:"execution_status"`
	Summary     string     `json:"result_summary"`
	Duration    float64    `json:"execution_time"`
	CreatedAt   time.Time  `json:"timestamp"`
}
