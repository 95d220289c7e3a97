// Package jobs persists job and persona records in SQLite and exposes the
// read/update interfaces the pipeline consumes. Job updates issued during
// processing go through the Reporter; terminal jobs are never mutated.
package jobs
