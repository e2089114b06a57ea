package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/common"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

type BatchQueue struct {
	handle   Handler
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult func(Result)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	statusMu sync.Mutex
	statuses map[uuid.UUID]constants.BatchStatus
}

type Option func(*BatchQueue)

func WithWorkers(n int) Option {
	return func(q *BatchQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *BatchQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithProcessTimeout bounds each batch; zero disables the bound.
func WithProcessTimeout(d time.Duration) Option {
	return func(q *BatchQueue) {
		if d >= 0 {
			q.timeout = d
		}
	}
}

// WithResultHook is called from the worker after every batch.
func WithResultHook(fn func(Result)) Option {
	return func(q *BatchQueue) {
		q.onResult = fn
	}
}

func NewBatchQueue(handle Handler, logger *slog.Logger, opts ...Option) *BatchQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &BatchQueue{
		handle:   handle,
		logger:   logger,
		workers:  1,
		timeout:  30 * time.Minute,
		ch:       make(chan Job, 64),
		statuses: make(map[uuid.UUID]constants.BatchStatus),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *BatchQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Info("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *BatchQueue) run(workerID int, job Job) {
	q.setStatus(job.ID, constants.BatchStatusRunning)
	start := time.Now()

	ctx, cancel := common.WithTimeout(context.Background(), q.timeout)
	ctx = common.WithRequestID(ctx, job.TraceID)
	ctx = common.WithRegistry(ctx, job.Registry)
	docs, err := q.invoke(ctx, job)
	cancel()

	res := Result{Job: job, Documents: docs, Err: err, Elapsed: time.Since(start)}
	switch {
	case err == nil:
		res.Status = constants.BatchStatusDone
		q.logger.Info("queue.batch.ok",
			"worker_id", workerID, "batch_id", job.ID, "registry", job.Registry,
			"files", len(job.Paths), "documents", docs,
			"elapsed_ms", res.Elapsed.Milliseconds(),
		)
	case docs > 0:
		res.Status = constants.BatchStatusPartial
		q.logger.Warn("queue.batch.partial",
			"worker_id", workerID, "batch_id", job.ID, "registry", job.Registry,
			"documents", docs, "error", err,
		)
	default:
		res.Status = constants.BatchStatusFailed
		q.logger.Error("queue.batch.failed",
			"worker_id", workerID, "batch_id", job.ID, "registry", job.Registry,
			"error", err,
		)
	}
	q.setStatus(job.ID, res.Status)
	if q.onResult != nil {
		q.onResult(res)
	}
}

// invoke keeps a panicking handler from taking the worker down with it.
func (q *BatchQueue) invoke(ctx context.Context, job Job) (docs int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = common.NewAppError("INTERNAL", fmt.Sprintf("batch %s panicked: %v", job.ID, r), common.ErrInternal)
		}
	}()
	return q.handle(ctx, job)
}

func (q *BatchQueue) setStatus(id uuid.UUID, s constants.BatchStatus) {
	q.statusMu.Lock()
	q.statuses[id] = s
	q.statusMu.Unlock()
}

// Status reports the lifecycle state of a batch seen by this queue.
func (q *BatchQueue) Status(id uuid.UUID) (constants.BatchStatus, bool) {
	q.statusMu.Lock()
	defer q.statusMu.Unlock()
	s, ok := q.statuses[id]
	return s, ok
}

func (q *BatchQueue) Enqueue(ctx context.Context, job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.rejected", "batch_id", job.ID, "reason", "shutting down")
		return ErrQueueClosed
	}
	q.setStatus(job.ID, constants.BatchStatusQueued)
	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueue.ok", "batch_id", job.ID, "registry", job.Registry, "files", len(job.Paths))
	default:
		q.logger.Warn("queue.enqueue.backpressure", "batch_id", job.ID)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			q.statusMu.Lock()
			delete(q.statuses, job.ID)
			q.statusMu.Unlock()
			return ctx.Err()
		}
	}
	return nil
}

func (q *BatchQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.ok")
	}
}
