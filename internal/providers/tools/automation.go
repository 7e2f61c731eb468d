package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/sandevgo/falcon/internal/service/memory"
)

const executeSystemTaskSchema = `
{
  "type": "object",
  "properties": {
    "task_description": { "type": "string", "description": "Shell command for the task to execute" },
    "priority": {
      "type": "string",
      "enum": ["low", "medium", "high", "urgent"],
      "description": "Task priority level"
    }
  },
  "required": ["task_description"]
}
`

const (
	maxOutputLines     = 200
	defaultExecTimeout = 5 * time.Minute
)

// Automation runs system tasks through the shell, scoped to WorkDir.
type Automation struct {
	WorkDir string
	working *memory.WorkingMemory
}

func NewAutomation(workDir string, working *memory.WorkingMemory) *Automation {
	return &Automation{WorkDir: workDir, working: working}
}

func (a *Automation) ExecuteSystemTask(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Task     string `json:"task_description"`
		Priority string `json:"priority"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(input.Task) == "" {
		return "", fmt.Errorf("task_description is required")
	}
	if input.Priority == "" {
		input.Priority = "medium"
	}

	// Child context with a timeout to prevent hanging commands
	ctx, cancel := context.WithTimeout(ctx, defaultExecTimeout)
	defer cancel()

	start := time.Now()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", input.Task)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", input.Task)
	}
	if a.WorkDir != "" {
		cmd.Dir = a.WorkDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start)

	output := truncateOutput(stdout.String())
	errOutput := truncateOutput(stderr.String())

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("task timed out after %v", defaultExecTimeout)
		}
		return "", fmt.Errorf("task failed: %v\nSTDOUT:\n%s\nSTDERR:\n%s", err, output, errOutput)
	}

	// Successful runs are kept as short-lived hints so the next turn can
	// reference "that task you just ran".
	if a.working != nil {
		a.working.Set("last_successful_task_"+input.Priority, map[string]any{
			"task":           input.Task,
			"execution_time": elapsed.Seconds(),
		}, 30*time.Minute)
	}

	return fmt.Sprintf("Task executed successfully in %.2fs\nSTDOUT:\n%s\nSTDERR:\n%s", elapsed.Seconds(), output, errOutput), nil
}

func truncateOutput(output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return "(empty)"
	}

	lines := strings.Split(output, "\n")
	if len(lines) <= maxOutputLines {
		return output
	}

	truncated := lines[len(lines)-maxOutputLines:]
	return fmt.Sprintf("... (output truncated, showing last %d lines)\n%s", maxOutputLines, strings.Join(truncated, "\n"))
}
