package facefusion_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"doppel/internal/services"
	"doppel/internal/services/facefusion"
)

type fakeExecutor struct {
	binary string
	args   []string
	output string
	err    error
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	f.binary = binary
	f.args = args
	return f.output, f.err
}

func TestSwapBuildsExpectedArgs(t *testing.T) {
	exec := &fakeExecutor{}
	client, err := facefusion.New("facefusion", facefusion.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := client.Swap(context.Background(), "/ws/source.mp4", "/ws/face.jpg", "/ws/faceswap.mp4"); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}

	got := strings.Join(exec.args, " ")
	want := "run --source /ws/face.jpg --target /ws/source.mp4 --output /ws/faceswap.mp4"
	if got != want {
		t.Fatalf("unexpected args %q", got)
	}
}

func TestSwapWrapsToolFailure(t *testing.T) {
	exec := &fakeExecutor{output: "no face detected", err: errors.New("exit status 2")}
	client, err := facefusion.New("facefusion", facefusion.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	swapErr := client.Swap(context.Background(), "/ws/source.mp4", "/ws/face.jpg", "/ws/faceswap.mp4")
	if !errors.Is(swapErr, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", swapErr)
	}
	if !strings.Contains(swapErr.Error(), "no face detected") {
		t.Fatalf("expected tool output in error, got %v", swapErr)
	}
}

func TestSwapRequiresPaths(t *testing.T) {
	client, err := facefusion.New("facefusion", facefusion.WithExecutor(&fakeExecutor{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := client.Swap(context.Background(), "", "/ws/face.jpg", "/ws/out.mp4"); err == nil {
		t.Fatal("expected error for missing video path")
	}
}
