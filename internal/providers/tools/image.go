package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const generateImageSchema = `
{
  "type": "object",
  "properties": {
    "prompt": { "type": "string", "description": "Detailed description of the image to generate" },
    "style": { "type": "string", "description": "Image style preference (optional)" }
  },
  "required": ["prompt"]
}
`

const imageGenTimeout = 3 * time.Minute

// ImageGen shells out to an external image generator. The command comes from
// configuration and receives the full prompt in FALCON_IMAGE_PROMPT; with no
// command configured the tool reports itself unavailable instead of failing
// silently.
type ImageGen struct {
	Command string
	WorkDir string
}

func NewImageGen(command, workDir string) *ImageGen {
	return &ImageGen{Command: command, WorkDir: workDir}
}

func (g *ImageGen) GenerateImage(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Prompt string `json:"prompt"`
		Style  string `json:"style"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}
	if g.Command == "" {
		return "", fmt.Errorf("image generation is not configured (set IMAGE_GEN_COMMAND)")
	}

	prompt := input.Prompt
	if input.Style != "" {
		prompt = prompt + " " + input.Style
	}

	ctx, cancel := context.WithTimeout(ctx, imageGenTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", g.Command)
	cmd.Env = append(os.Environ(), "FALCON_IMAGE_PROMPT="+prompt)
	if g.WorkDir != "" {
		cmd.Dir = g.WorkDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("image generation timed out after %v", imageGenTimeout)
		}
		return "", fmt.Errorf("image generation failed: %v\n%s", err, truncateOutput(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "Image generated successfully", nil
	}
	return "Image generated successfully: " + truncateOutput(out), nil
}
