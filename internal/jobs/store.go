package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"doppel/internal/config"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrTerminal indicates an update was refused because the job already
// reached a terminal state.
var ErrTerminal = errors.New("job already terminal")

// Store manages job and persona persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateJob inserts a new job in status queued.
func (s *Store) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is required")
	}
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("job id is required")
	}
	if job.Status == "" {
		job.Status = StatusQueued
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (id, user_id, persona_id, status, progress, source_url, output_url, error_message, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.UserID,
		job.PersonaID,
		job.Status,
		job.Progress,
		job.SourceURL,
		job.OutputURL,
		job.ErrorMessage,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// JobByID fetches a job record. Returns ErrNotFound when absent.
func (s *Store) JobByID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, persona_id, status, progress, source_url, output_url, error_message, created_at, updated_at
         FROM jobs WHERE id = ?`,
		id,
	)
	return scanJob(row)
}

// ListJobs returns all jobs, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, persona_id, status, progress, source_url, output_url, error_message, created_at, updated_at
         FROM jobs ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SetStatus updates status and progress for a non-terminal job.
func (s *Store) SetStatus(ctx context.Context, id string, status Status, progress int) error {
	return s.guardedUpdate(ctx, id,
		`UPDATE jobs SET status = ?, progress = ?, updated_at = ?
         WHERE id = ? AND status NOT IN (?, ?)`,
		status, progress, time.Now().UTC().Format(time.RFC3339Nano), id, StatusDone, StatusFailed,
	)
}

// SetError marks a non-terminal job failed with the given message. Progress
// is left at its last checkpoint.
func (s *Store) SetError(ctx context.Context, id string, message string) error {
	return s.guardedUpdate(ctx, id,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status NOT IN (?, ?)`,
		StatusFailed, message, time.Now().UTC().Format(time.RFC3339Nano), id, StatusDone, StatusFailed,
	)
}

// SetResult marks a non-terminal job done with the published output URL.
func (s *Store) SetResult(ctx context.Context, id string, outputURL string) error {
	return s.guardedUpdate(ctx, id,
		`UPDATE jobs SET status = ?, progress = 100, output_url = ?, error_message = '', updated_at = ?
         WHERE id = ? AND status NOT IN (?, ?)`,
		StatusDone, outputURL, time.Now().UTC().Format(time.RFC3339Nano), id, StatusDone, StatusFailed,
	)
}

// guardedUpdate applies an update that must not touch terminal jobs. The
// WHERE clause excludes terminal statuses so a redelivered message can never
// drag a finished job back to processing.
func (s *Store) guardedUpdate(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	existing, err := s.JobByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsTerminal() {
		return fmt.Errorf("job %s: %w", id, ErrTerminal)
	}
	return fmt.Errorf("job %s: %w", id, ErrNotFound)
}

// CreatePersona inserts a new persona record.
func (s *Store) CreatePersona(ctx context.Context, persona *Persona) error {
	if persona == nil {
		return errors.New("persona is required")
	}
	if strings.TrimSpace(persona.ID) == "" {
		return errors.New("persona id is required")
	}
	now := time.Now().UTC()
	persona.CreatedAt = now

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO personas (id, name, face_url, voice_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		persona.ID,
		persona.Name,
		persona.FaceURL,
		persona.VoiceID,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert persona: %w", err)
	}
	return nil
}

// PersonaByID fetches a persona record. Returns ErrNotFound when absent.
func (s *Store) PersonaByID(ctx context.Context, id string) (*Persona, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, face_url, voice_id, created_at FROM personas WHERE id = ?`,
		id,
	)

	var persona Persona
	var createdAt string
	err := row.Scan(&persona.ID, &persona.Name, &persona.FaceURL, &persona.VoiceID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan persona: %w", err)
	}
	persona.CreatedAt = parseTimestamp(createdAt)
	return &persona, nil
}

// ListPersonas returns all personas, newest first.
func (s *Store) ListPersonas(ctx context.Context) ([]*Persona, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, face_url, voice_id, created_at FROM personas ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	defer rows.Close()

	var personas []*Persona
	for rows.Next() {
		var persona Persona
		var createdAt string
		if err := rows.Scan(&persona.ID, &persona.Name, &persona.FaceURL, &persona.VoiceID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan persona: %w", err)
		}
		persona.CreatedAt = parseTimestamp(createdAt)
		personas = append(personas, &persona)
	}
	return personas, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var status string
	var createdAt, updatedAt string
	err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.PersonaID,
		&status,
		&job.Progress,
		&job.SourceURL,
		&job.OutputURL,
		&job.ErrorMessage,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	job.Status = Status(status)
	job.CreatedAt = parseTimestamp(createdAt)
	job.UpdatedAt = parseTimestamp(updatedAt)
	return &job, nil
}

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
