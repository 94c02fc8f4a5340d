package completion

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CLIClient shells out to the claude CLI for local dev duplicate checks.
// Uses your existing Claude plan, so no API key is needed.
type CLIClient struct {
	cliPath string
	timeout time.Duration
}

// NewCLIClient returns a client that kills the CLI after timeout; zero means
// no limit beyond ctx.
func NewCLIClient(cliPath string, timeout time.Duration) *CLIClient {
	return &CLIClient{cliPath: cliPath, timeout: timeout}
}

func (c *CLIClient) Complete(ctx context.Context, messages []Message) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	system, turns := splitSystem(messages)

	args := []string{"--print", "--output-format", "text", "--max-turns", "1"}
	if system != "" {
		args = append(args, "--system-prompt", system)
	}
	cmd := exec.CommandContext(ctx, c.cliPath, args...)
	cmd.WaitDelay = time.Second

	var prompt strings.Builder
	for i, m := range turns {
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(m.Content)
	}
	cmd.Stdin = strings.NewReader(prompt.String())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("claude CLI stopped: %w", ctxErr)
		}
		return nil, fmt.Errorf("claude CLI error: %w\nstderr: %s", err, stderr.String())
	}

	responseText := strings.TrimSpace(stdout.String())
	if responseText == "" {
		return nil, fmt.Errorf("claude CLI returned empty response")
	}

	return &Response{Content: responseText}, nil
}
