package async

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballot-registry/constants"
)

// Job is one ingest batch: files grouped together in a single run and
// consolidated into one registry.
type Job struct {
	ID          uuid.UUID
	Registry    string
	Paths       []string
	SubmittedAt time.Time
	TraceID     string
}

// Result is what a handler reports back for a job.
type Result struct {
	Job       Job
	Status    constants.BatchStatus
	Documents int
	Err       error
	Elapsed   time.Duration
}

// Handler processes one batch.
type Handler func(ctx context.Context, job Job) (documents int, err error)

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Status(id uuid.UUID) (constants.BatchStatus, bool)
	Shutdown(ctx context.Context)
}
