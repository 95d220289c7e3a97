package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// lockFileName sits inside each job directory and scopes ownership to one
// pipeline run at a time.
const lockFileName = ".doppel.lock"

// ErrBusy indicates the job workspace is owned by another pipeline run.
var ErrBusy = errors.New("workspace busy")

// Manager hands out per-job workspaces under a common root.
type Manager struct {
	root string
}

// NewManager ensures the workspace root exists.
func NewManager(root string) (*Manager, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("workspace root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	return &Manager{root: root}, nil
}

// Root returns the workspace root directory.
func (m *Manager) Root() string {
	return m.root
}

// Dir returns the directory a job's artifacts live in.
func (m *Manager) Dir(jobID string) string {
	return filepath.Join(m.root, jobID)
}

// Create ensures a job-scoped directory exists and takes its ownership lock.
// Returns ErrBusy when another run holds the lock.
func (m *Manager) Create(jobID string) (*Workspace, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("job id required")
	}
	dir := m.Dir(jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock workspace: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("workspace %s: %w", jobID, ErrBusy)
	}

	return &Workspace{jobID: jobID, dir: dir, lock: lock}, nil
}

// Cleanup removes every artifact belonging to the job. The job directory is
// the unit of removal.
func (m *Manager) Cleanup(jobID string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return errors.New("job id required")
	}
	if err := os.RemoveAll(m.Dir(jobID)); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}

// Workspace is the ephemeral holding area for one job's intermediate
// artifacts. It is owned by exactly one pipeline run.
type Workspace struct {
	jobID string
	dir   string
	lock  *flock.Flock
}

// JobID returns the owning job's identifier.
func (w *Workspace) JobID() string {
	return w.jobID
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Release drops the ownership lock. Call before Cleanup.
func (w *Workspace) Release() error {
	if w == nil || w.lock == nil {
		return nil
	}
	return w.lock.Unlock()
}

// Artifact paths produced by the pipeline stages, in stage order.

func (w *Workspace) SourceVideo() string { return filepath.Join(w.dir, "source.mp4") }

func (w *Workspace) ExtractedAudio() string { return filepath.Join(w.dir, "audio.wav") }

func (w *Workspace) FaceImage() string { return filepath.Join(w.dir, "face.jpg") }

func (w *Workspace) SwappedVideo() string { return filepath.Join(w.dir, "faceswap.mp4") }

func (w *Workspace) ConvertedAudio() string { return filepath.Join(w.dir, "voice.wav") }

func (w *Workspace) FinalVideo() string { return filepath.Join(w.dir, "final.mp4") }
