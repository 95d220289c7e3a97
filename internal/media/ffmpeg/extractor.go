// Package ffmpeg extracts audio tracks from video artifacts by invoking the
// ffmpeg binary.
package ffmpeg

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

// Option configures the extractor.
type Option func(*Extractor)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *Extractor) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// Extractor wraps ffmpeg CLI interactions.
type Extractor struct {
	binary string
	exec   Executor
}

// New constructs an ffmpeg extractor.
func New(binary string, opts ...Option) (*Extractor, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	extractor := &Extractor{
		binary: binary,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(extractor)
	}
	return extractor, nil
}

// Extract demuxes the audio track of videoPath into a stereo 44.1 kHz PCM
// WAV at audioPath.
func (e *Extractor) Extract(ctx context.Context, videoPath, audioPath string) error {
	if strings.TrimSpace(videoPath) == "" {
		return services.Wrap(services.ErrExternalTool, "extract-audio", "ffmpeg", "video path required", nil)
	}
	if strings.TrimSpace(audioPath) == "" {
		return services.Wrap(services.ErrExternalTool, "extract-audio", "ffmpeg", "audio path required", nil)
	}

	args := []string{
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "2",
		audioPath,
	}

	output, err := e.exec.Run(ctx, e.binary, args)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "extract-audio", "ffmpeg", tail(output), err)
	}
	return nil
}

// tail keeps the last output lines so job error messages stay readable.
func tail(output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return "ffmpeg failed"
	}
	lines := strings.Split(output, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	return string(output), err
}
