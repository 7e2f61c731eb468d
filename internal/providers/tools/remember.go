package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/internal/service/memory"
)

const rememberInformationSchema = `
{
  "type": "object",
  "properties": {
    "key": { "type": "string", "description": "Memory key/identifier" },
    "information": { "type": "string", "description": "Information to remember" },
    "importance": {
      "type": "string",
      "enum": ["low", "medium", "high", "critical"],
      "description": "Importance level"
    }
  },
  "required": ["key", "information"]
}
`

// Remember stores model-selected information as a long-term fact. Tags are
// derived from the information text, not left to the model.
type Remember struct {
	facts   core.FactsRepository
	manager *memory.Manager
}

func NewRemember(facts core.FactsRepository, manager *memory.Manager) *Remember {
	return &Remember{facts: facts, manager: manager}
}

func (r *Remember) RememberInformation(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Key         string `json:"key"`
		Information string `json:"information"`
		Importance  string `json:"importance"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(input.Key) == "" || strings.TrimSpace(input.Information) == "" {
		return "", fmt.Errorf("key and information are required")
	}

	level := core.ParseImportance(input.Importance)

	err := r.facts.UpsertFact(ctx, core.Fact{
		Key:        input.Key,
		Content:    input.Information,
		Category:   "user_instruction",
		Importance: level,
		Tags:       r.manager.ExtractTags(input.Information),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store information: %w", err)
	}

	return fmt.Sprintf("Information stored in long-term memory with %s importance", level), nil
}
