package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"doppel/internal/jobs"
	"doppel/internal/logging"
	"doppel/internal/services"
	"doppel/internal/workspace"
)

// Stage names in execution order. Used for logging and error context.
const (
	StageAcquire  = "acquire"
	StageExtract  = "extract_audio"
	StagePersona  = "resolve_persona"
	StageFaceSwap = "face_swap"
	StageVoice    = "voice_convert"
	StageLipSync  = "lip_sync"
	StagePublish  = "publish"
)

// Progress checkpoints written between stages.
const (
	progressStarted   = 0
	progressAcquired  = 10
	progressExtracted = 20
	progressSwapped   = 50
	progressConverted = 70
	progressSynced    = 90
)

// Transfer moves artifacts between remote storage and the local workspace.
type Transfer interface {
	Fetch(ctx context.Context, rawURL, destPath string) error
	Publish(ctx context.Context, localPath, key string) (string, error)
}

// AudioExtractor pulls the audio track out of a video file.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath, audioPath string) error
}

// FaceSwapper replaces the face in a video with the persona's face image.
type FaceSwapper interface {
	Swap(ctx context.Context, videoPath, facePath, outputPath string) error
}

// VoiceConverter re-voices an audio track with the persona's voice.
type VoiceConverter interface {
	Convert(ctx context.Context, audioPath, voiceID, outputPath string) error
}

// LipSyncer aligns a video's mouth movements to an audio track.
type LipSyncer interface {
	Sync(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// Deps bundles everything an Orchestrator needs. All fields except Logger
// and StageTimeout are required.
type Deps struct {
	Records    jobs.Records
	Reporter   jobs.Reporter
	Workspaces *workspace.Manager
	Transfer   Transfer
	Audio      AudioExtractor
	Faces      FaceSwapper
	Voices     VoiceConverter
	Lips       LipSyncer
	Logger     *slog.Logger

	// StageTimeout caps the wall-clock time of each stage. Zero disables
	// the per-stage deadline.
	StageTimeout time.Duration
}

// Orchestrator drives one job through the fixed transformation sequence:
// acquire, extract audio, resolve persona, face swap, voice convert,
// lip sync, publish. Stage order never varies and no stage is retried.
type Orchestrator struct {
	records      jobs.Records
	reporter     jobs.Reporter
	workspaces   *workspace.Manager
	transfer     Transfer
	audio        AudioExtractor
	faces        FaceSwapper
	voices       VoiceConverter
	lips         LipSyncer
	logger       *slog.Logger
	stageTimeout time.Duration
}

// New validates the dependency set and builds an Orchestrator.
func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Records == nil:
		return nil, errors.New("orchestrator: records required")
	case deps.Reporter == nil:
		return nil, errors.New("orchestrator: reporter required")
	case deps.Workspaces == nil:
		return nil, errors.New("orchestrator: workspace manager required")
	case deps.Transfer == nil:
		return nil, errors.New("orchestrator: transfer client required")
	case deps.Audio == nil:
		return nil, errors.New("orchestrator: audio extractor required")
	case deps.Faces == nil:
		return nil, errors.New("orchestrator: face swapper required")
	case deps.Voices == nil:
		return nil, errors.New("orchestrator: voice converter required")
	case deps.Lips == nil:
		return nil, errors.New("orchestrator: lip syncer required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		records:      deps.Records,
		reporter:     deps.Reporter,
		workspaces:   deps.Workspaces,
		transfer:     deps.Transfer,
		audio:        deps.Audio,
		faces:        deps.Faces,
		voices:       deps.Voices,
		lips:         deps.Lips,
		logger:       logger.With(logging.String(logging.FieldComponent, "pipeline")),
		stageTimeout: deps.StageTimeout,
	}, nil
}

// ResultKey returns the object storage key a job's final video is published
// under.
func ResultKey(jobID string) string {
	return fmt.Sprintf("results/%s_result.mp4", jobID)
}

// Run processes a single job message to a terminal outcome. The returned
// status is the job's final state for handled runs, including runs that end
// in a persisted failure. A non-nil error means the run could not reach a
// terminal state (store or workspace infrastructure fault) and the message
// should be redelivered.
func (o *Orchestrator) Run(ctx context.Context, msg Message) (jobs.Status, error) {
	ctx = services.WithJobID(ctx, msg.JobID)
	logger := logging.WithContext(ctx, o.logger)

	job, err := o.records.JobByID(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			logger.Warn("job record missing, dropping message")
			return "", nil
		}
		return "", fmt.Errorf("load job %s: %w", msg.JobID, err)
	}
	if job.Status.IsTerminal() {
		logger.Info("job already terminal, skipping redelivery",
			logging.String("status", string(job.Status)))
		return job.Status, nil
	}

	if err := o.reporter.SetStatus(ctx, job.ID, jobs.StatusProcessing, progressStarted); err != nil {
		return "", fmt.Errorf("mark job processing: %w", err)
	}

	ws, err := o.workspaces.Create(job.ID)
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if err := ws.Release(); err != nil {
			logger.Warn("release workspace lock", logging.Error(err))
		}
		if err := o.workspaces.Cleanup(job.ID); err != nil {
			logger.Warn("cleanup workspace", logging.Error(err))
		}
	}()

	logger.Info("pipeline started")

	sourceURL := msg.VideoURL
	if sourceURL == "" {
		sourceURL = job.SourceURL
	}
	personaID := msg.PersonaID
	if personaID == "" {
		personaID = job.PersonaID
	}

	if err := o.runStage(ctx, StageAcquire, func(sc context.Context) error {
		return o.transfer.Fetch(sc, sourceURL, ws.SourceVideo())
	}); err != nil {
		return o.failJob(ctx, job.ID, err)
	}
	if err := o.reporter.SetStatus(ctx, job.ID, jobs.StatusProcessing, progressAcquired); err != nil {
		return "", fmt.Errorf("record progress: %w", err)
	}

	if err := o.runStage(ctx, StageExtract, func(sc context.Context) error {
		return o.audio.Extract(sc, ws.SourceVideo(), ws.ExtractedAudio())
	}); err != nil {
		return o.failJob(ctx, job.ID, err)
	}
	if err := o.reporter.SetStatus(ctx, job.ID, jobs.StatusProcessing, progressExtracted); err != nil {
		return "", fmt.Errorf("record progress: %w", err)
	}

	var persona *jobs.Persona
	if err := o.runStage(ctx, StagePersona, func(sc context.Context) error {
		p, lookupErr := o.records.PersonaByID(sc, personaID)
		if lookupErr != nil {
			if errors.Is(lookupErr, jobs.ErrNotFound) {
				return services.Wrap(services.ErrValidation, "", "", "Persona not found", nil)
			}
			return lookupErr
		}
		persona = p
		return nil
	}); err != nil {
		return o.failJob(ctx, job.ID, err)
	}

	if err := o.runStage(ctx, StageFaceSwap, func(sc context.Context) error {
		if err := o.transfer.Fetch(sc, persona.FaceURL, ws.FaceImage()); err != nil {
			return err
		}
		return o.faces.Swap(sc, ws.SourceVideo(), ws.FaceImage(), ws.SwappedVideo())
	}); err != nil {
		return o.failJob(ctx, job.ID, err)
	}
	if err := o.reporter.SetStatus(ctx, job.ID, jobs.StatusProcessing, progressSwapped); err != nil {
		return "", fmt.Errorf("record progress: %w", err)
	}

	if err := o.runStage(ctx, StageVoice, func(sc context.Context) error {
		return o.voices.Convert(sc, ws.ExtractedAudio(), persona.VoiceID, ws.ConvertedAudio())
	}); err != nil {
		return o.failJob(ctx, job.ID, err)
	}
	if err := o.reporter.SetStatus(ctx, job.ID, jobs.StatusProcessing, progressConverted); err != nil {
		return "", fmt.Errorf("record progress: %w", err)
	}

	if err := o.runStage(ctx, StageLipSync, func(sc context.Context) error {
		return o.lips.Sync(sc, ws.SwappedVideo(), ws.ConvertedAudio(), ws.FinalVideo())
	}); err != nil {
		return o.failJob(ctx, job.ID, err)
	}
	if err := o.reporter.SetStatus(ctx, job.ID, jobs.StatusProcessing, progressSynced); err != nil {
		return "", fmt.Errorf("record progress: %w", err)
	}

	var outputURL string
	if err := o.runStage(ctx, StagePublish, func(sc context.Context) error {
		url, pubErr := o.transfer.Publish(sc, ws.FinalVideo(), ResultKey(job.ID))
		if pubErr != nil {
			return pubErr
		}
		outputURL = url
		return nil
	}); err != nil {
		return o.failJob(ctx, job.ID, err)
	}

	if err := o.reporter.SetResult(ctx, job.ID, outputURL); err != nil {
		return "", fmt.Errorf("record result: %w", err)
	}

	logger.Info("pipeline completed", logging.String("output_url", outputURL))
	return jobs.StatusDone, nil
}

// runStage executes one stage with stage-scoped context, deadline, and
// lifecycle logging.
func (o *Orchestrator) runStage(ctx context.Context, stage string, fn func(context.Context) error) error {
	stageCtx := services.WithStage(ctx, stage)
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(stageCtx, o.stageTimeout)
		defer cancel()
	}
	logger := logging.WithContext(stageCtx, o.logger)

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"))
	start := time.Now()

	if err := fn(stageCtx); err != nil {
		if stageCtx.Err() != nil && errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			err = services.Wrap(services.ErrExternalTool, stage, "", "stage deadline exceeded", err)
		}
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("duration", time.Since(start)),
			logging.Error(err))
		return err
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", time.Since(start)))
	return nil
}

// failJob persists a stage failure to the job record. Progress stays at the
// last checkpoint reached. A store fault here is the one failure the run
// cannot absorb, so it propagates for redelivery.
func (o *Orchestrator) failJob(ctx context.Context, jobID string, stageErr error) (jobs.Status, error) {
	// Shutdown is not a job failure; let the message redeliver.
	if ctx.Err() != nil {
		return "", fmt.Errorf("run interrupted: %w", context.Cause(ctx))
	}

	logger := logging.WithContext(ctx, o.logger)
	message := services.Details(stageErr)

	if err := o.reporter.SetError(ctx, jobID, message); err != nil {
		if errors.Is(err, jobs.ErrTerminal) {
			logger.Warn("job reached terminal state concurrently", logging.Error(err))
			return jobs.StatusFailed, nil
		}
		return "", fmt.Errorf("persist job failure: %w", err)
	}

	logger.Error("pipeline failed", logging.String("reason", message))
	return jobs.StatusFailed, nil
}
