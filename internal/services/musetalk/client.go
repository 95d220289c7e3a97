// Package musetalk assembles a lip-synced composite from a video artifact
// and an audio artifact by invoking the musetalk CLI.
package musetalk

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"doppel/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps musetalk CLI interactions.
type Client struct {
	binary string
	exec   Executor
}

// New constructs a musetalk client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("musetalk binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Sync renders videoPath with its mouth movements re-timed to audioPath and
// the audio track replaced, writing the composite to outputPath.
func (c *Client) Sync(ctx context.Context, videoPath, audioPath, outputPath string) error {
	for _, required := range []string{videoPath, audioPath, outputPath} {
		if strings.TrimSpace(required) == "" {
			return services.Wrap(services.ErrExternalTool, "lipsync", "musetalk", "input and output paths required", nil)
		}
	}

	args := []string{
		"--video", videoPath,
		"--audio", audioPath,
		"--output", outputPath,
	}

	output, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		message := strings.TrimSpace(output)
		if message == "" {
			message = "musetalk failed"
		}
		return services.Wrap(services.ErrExternalTool, "lipsync", "musetalk", message, err)
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	return string(output), err
}
