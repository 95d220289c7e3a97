// Package facefusion swaps the subject's face in a video for a reference
// face image by invoking the facefusion CLI.
package facefusion

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

// Client wraps facefusion CLI interactions.
type Client struct {
	binary string
	exec   Executor
}

// New constructs a facefusion client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("facefusion binary required")
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

// Swap renders videoPath with the subject's face replaced by the face in
// facePath, writing the result to outputPath.
func (c *Client) Swap(ctx context.Context, videoPath, facePath, outputPath string) error {
	for _, required := range []string{videoPath, facePath, outputPath} {
		if strings.TrimSpace(required) == "" {
			return services.Wrap(services.ErrExternalTool, "faceswap", "facefusion", "input and output paths required", nil)
		}
	}

	args := []string{
		"run",
		"--source", facePath,
		"--target", videoPath,
		"--output", outputPath,
	}

	output, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		message := strings.TrimSpace(output)
		if message == "" {
			message = "facefusion failed"
		}
		return services.Wrap(services.ErrExternalTool, "faceswap", "facefusion", message, err)
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	return string(output), err
}
