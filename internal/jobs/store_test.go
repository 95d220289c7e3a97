package jobs_test

import (
	"context"
	"errors"
	"testing"

	"doppel/internal/jobs"
	"doppel/internal/testsupport"
)

func newJob(id string) *jobs.Job {
	return &jobs.Job{
		ID:        id,
		UserID:    "U1",
		PersonaID: "P1",
		SourceURL: "https://x/video.mp4",
	}
}

func TestCreateAndFetchJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.CreateJob(ctx, newJob("J1")); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	job, err := store.JobByID(ctx, "J1")
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if job.Status != jobs.StatusQueued {
		t.Fatalf("expected queued status, got %s", job.Status)
	}
	if job.Progress != 0 {
		t.Fatalf("expected zero progress, got %d", job.Progress)
	}
	if job.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestJobByIDNotFound(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	_, err := store.JobByID(context.Background(), "missing")
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateJobRequiresID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	if err := store.CreateJob(context.Background(), &jobs.Job{}); err == nil {
		t.Fatal("expected error for missing job id")
	}
}

func TestStatusUpdatesApplyInOrder(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.CreateJob(ctx, newJob("J1")); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	checkpoints := []int{0, 10, 20, 50, 70, 90}
	for _, progress := range checkpoints {
		if err := store.SetStatus(ctx, "J1", jobs.StatusProcessing, progress); err != nil {
			t.Fatalf("SetStatus(%d) failed: %v", progress, err)
		}
		job, err := store.JobByID(ctx, "J1")
		if err != nil {
			t.Fatalf("JobByID failed: %v", err)
		}
		if job.Progress != progress {
			t.Fatalf("expected progress %d, got %d", progress, job.Progress)
		}
		if job.Status != jobs.StatusProcessing {
			t.Fatalf("expected processing status, got %s", job.Status)
		}
	}
}

func TestSetResultReachesTerminalDone(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.CreateJob(ctx, newJob("J1")); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := store.SetResult(ctx, "J1", "https://store/results/J1_result.mp4"); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}

	job, err := store.JobByID(ctx, "J1")
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if job.Status != jobs.StatusDone || job.Progress != 100 {
		t.Fatalf("expected done/100, got %s/%d", job.Status, job.Progress)
	}
	if job.OutputURL != "https://store/results/J1_result.mp4" {
		t.Fatalf("unexpected output url %q", job.OutputURL)
	}
	if job.ErrorMessage != "" {
		t.Fatalf("expected empty error message, got %q", job.ErrorMessage)
	}
}

func TestSetErrorKeepsLastProgress(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.CreateJob(ctx, newJob("J1")); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := store.SetStatus(ctx, "J1", jobs.StatusProcessing, 20); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := store.SetError(ctx, "J1", "facefusion exited 1"); err != nil {
		t.Fatalf("SetError failed: %v", err)
	}

	job, err := store.JobByID(ctx, "J1")
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if job.Status != jobs.StatusFailed {
		t.Fatalf("expected failed status, got %s", job.Status)
	}
	if job.Progress != 20 {
		t.Fatalf("expected progress preserved at 20, got %d", job.Progress)
	}
	if job.ErrorMessage != "facefusion exited 1" {
		t.Fatalf("unexpected error message %q", job.ErrorMessage)
	}
	if job.OutputURL != "" {
		t.Fatalf("expected empty output url, got %q", job.OutputURL)
	}
}

func TestTerminalJobsRejectFurtherUpdates(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.CreateJob(ctx, newJob("J1")); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := store.SetResult(ctx, "J1", "https://store/results/J1_result.mp4"); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}

	if err := store.SetStatus(ctx, "J1", jobs.StatusProcessing, 0); !errors.Is(err, jobs.ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}
	if err := store.SetError(ctx, "J1", "late failure"); !errors.Is(err, jobs.ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}

	job, err := store.JobByID(ctx, "J1")
	if err != nil {
		t.Fatalf("JobByID failed: %v", err)
	}
	if job.Status != jobs.StatusDone || job.Progress != 100 {
		t.Fatalf("terminal record mutated: %s/%d", job.Status, job.Progress)
	}
}

func TestPersonaRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	persona := &jobs.Persona{ID: "P1", Name: "Ada", FaceURL: "https://x/face.jpg", VoiceID: "V1"}
	if err := store.CreatePersona(ctx, persona); err != nil {
		t.Fatalf("CreatePersona failed: %v", err)
	}

	fetched, err := store.PersonaByID(ctx, "P1")
	if err != nil {
		t.Fatalf("PersonaByID failed: %v", err)
	}
	if fetched.FaceURL != "https://x/face.jpg" || fetched.VoiceID != "V1" {
		t.Fatalf("unexpected persona %#v", fetched)
	}

	_, err = store.PersonaByID(ctx, "P2")
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := jobs.ParseStatus(" Done "); !ok || status != jobs.StatusDone {
		t.Fatalf("expected done, got %s (%v)", status, ok)
	}
	if _, ok := jobs.ParseStatus("bogus"); ok {
		t.Fatal("expected bogus status to be rejected")
	}
}
