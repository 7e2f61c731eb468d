package memory

import (
	"strings"

	"github.com/sandevgo/falcon/internal/core"
)

// tagCategory pairs a context tag with its keyword list. The slice order is
// fixed so ExtractTags output is deterministic across runs.
type tagCategory struct {
	name     string
	keywords []string
}

var tagCategories = []tagCategory{
	{"file", []string{"file", "document", "save", "write", "create"}},
	{"system", []string{"open", "close", "application", "program", "system"}},
	{"image", []string{"image", "picture", "generate", "create", "visual"}},
	{"code", []string{"code", "script", "program", "function", "class"}},
	{"personal", []string{"my", "me", "preference", "like", "dislike"}},
	{"task", []string{"do", "execute", "run", "perform", "task"}},
	{"question", []string{"what", "how", "why", "when", "where", "who"}},
	{"urgent", []string{"urgent", "important", "asap", "quickly", "now"}},
}

var emergencyKeywords = []string{"emergency", "urgent", "critical", "important"}

var memoryKeywords = []string{"remember", "save", "preference", "always", "never"}

var identityPhrases = []string{"my name", "i am", "i like"}

// Manager is the pure-policy layer: tag extraction, importance
// classification, and the long-term persistence decision. It holds no
// durable state of its own.
type Manager struct {
	working *WorkingMemory
}

func NewManager(working *WorkingMemory) *Manager {
	return &Manager{working: working}
}

func (m *Manager) Working() *WorkingMemory {
	return m.working
}

// ExtractTags matches the fixed category table against the lower-cased
// input. A category is included when any of its keywords appears as a
// substring; this is coarse lexical matching, not semantic search.
func (m *Manager) ExtractTags(text string) []string {
	lower := strings.ToLower(text)

	var tags []string
	for _, cat := range tagCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, cat.name)
				break
			}
		}
	}
	return tags
}

// ClassifyImportance runs the rule cascade, first match wins. The order is
// load-bearing: an emergency keyword outranks a personal-identity phrase, so
// "emergency: my name is Alex" classifies critical, not high.
func (m *Manager) ClassifyImportance(text string, tags []string) core.Importance {
	lower := strings.ToLower(text)

	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return core.ImportanceCritical
		}
	}

	for _, kw := range memoryKeywords {
		if strings.Contains(lower, kw) {
			return core.ImportanceHigh
		}
	}
	if containsTag(tags, "personal") {
		return core.ImportanceHigh
	}
	for _, phrase := range identityPhrases {
		if strings.Contains(lower, phrase) {
			return core.ImportanceHigh
		}
	}

	for _, tag := range []string{"task", "system", "code"} {
		if containsTag(tags, tag) {
			return core.ImportanceMedium
		}
	}

	return core.ImportanceLow
}

// ShouldPersistLongTerm reports whether a turn of the given importance gets
// promoted to a long-term fact.
func (m *Manager) ShouldPersistLongTerm(level core.Importance) bool {
	return level >= core.ImportanceMedium
}

// TagsIntersect reports whether any of the candidate tags is present.
// Used for the conditional task-pattern fetch during context assembly.
func TagsIntersect(tags []string, candidates ...string) bool {
	for _, c := range candidates {
		if containsTag(tags, c) {
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
