package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a transformation job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusDone,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further pipeline mutation.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Job represents one transformation request persisted in SQLite.
type Job struct {
	ID           string
	UserID       string
	PersonaID    string
	Status       Status
	Progress     int
	SourceURL    string
	OutputURL    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsTerminal reports whether the job has reached a terminal state.
func (j Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Persona is a registered identity bundle referenced by jobs. The pipeline
// only reads personas.
type Persona struct {
	ID        string
	Name      string
	FaceURL   string
	VoiceID   string
	CreatedAt time.Time
}
