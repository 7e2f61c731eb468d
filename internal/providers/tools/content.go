package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandevgo/falcon/internal/core"
)

const writeContentSchema = `
{
  "type": "object",
  "properties": {
    "topic": { "type": "string", "description": "Topic or type of content to generate" },
    "content_type": {
      "type": "string",
      "enum": ["code", "article", "story", "report", "documentation"],
      "description": "Type of content to generate"
    },
    "length": {
      "type": "string",
      "enum": ["short", "medium", "long"],
      "description": "Desired content length"
    }
  },
  "required": ["topic"]
}
`

// ContentWriter generates text content through the reasoning provider and
// saves it under OutDir. Files are never overwritten: the name carries a
// timestamp.
type ContentWriter struct {
	provider core.AIProvider
	OutDir   string
}

func NewContentWriter(provider core.AIProvider, outDir string) *ContentWriter {
	return &ContentWriter{provider: provider, OutDir: outDir}
}

func (c *ContentWriter) WriteContent(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Topic       string `json:"topic"`
		ContentType string `json:"content_type"`
		Length      string `json:"length"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(input.Topic) == "" {
		return "", fmt.Errorf("topic is required")
	}
	if input.ContentType == "" {
		input.ContentType = "code"
	}
	if input.Length == "" {
		input.Length = "medium"
	}

	prompt := fmt.Sprintf("Write %s %s about: %s. Respond with the content only, no preamble.",
		input.Length, input.ContentType, input.Topic)

	reply, err := c.provider.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: "You are a precise content generator."},
		{Role: core.RoleUser, Content: prompt},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}
	if strings.TrimSpace(reply.Content) == "" {
		return "", fmt.Errorf("content generation returned an empty response")
	}

	if err := os.MkdirAll(c.OutDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s",
		slugify(input.Topic),
		time.Now().Format("20060102_150405"),
		contentExtension(input.ContentType))
	path := filepath.Join(c.OutDir, name)

	if err := os.WriteFile(path, []byte(reply.Content), 0644); err != nil {
		return "", fmt.Errorf("save content: %w", err)
	}

	return fmt.Sprintf("%s generated and saved to %s", titleCase(input.ContentType), path), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func contentExtension(contentType string) string {
	if contentType == "code" {
		return ".txt"
	}
	return ".md"
}

// slugify reduces a topic to a safe filename stem.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		slug = "content"
	}
	return slug
}
