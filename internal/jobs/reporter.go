package jobs

import "context"

// Reporter is the only write channel to a job record while the pipeline owns
// it. Updates are applied in issuance order; external observers treat
// progress as monotonic.
type Reporter interface {
	SetStatus(ctx context.Context, id string, status Status, progress int) error
	SetError(ctx context.Context, id string, message string) error
	SetResult(ctx context.Context, id string, outputURL string) error
}

// Records exposes the read side the pipeline needs: the authoritative job
// and persona records behind a queue message.
type Records interface {
	JobByID(ctx context.Context, id string) (*Job, error)
	PersonaByID(ctx context.Context, id string) (*Persona, error)
}

var (
	_ Reporter = (*Store)(nil)
	_ Records  = (*Store)(nil)
)
