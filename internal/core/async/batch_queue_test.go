package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/common"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestBatchQueueReportsResults(t *testing.T) {
	var (
		mu      sync.Mutex
		results []Result
	)
	handler := func(_ context.Context, job Job) (int, error) {
		switch job.Registry {
		case "partial":
			return 2, errors.New("authorization expired")
		case "failed":
			return 0, errors.New("no pages")
		default:
			return len(job.Paths), nil
		}
	}
	q := NewBatchQueue(handler, quiet(), WithResultHook(func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}))

	ids := map[string]uuid.UUID{"ok": uuid.New(), "partial": uuid.New(), "failed": uuid.New()}
	for _, reg := range []string{"ok", "partial", "failed"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{ID: ids[reg], Registry: reg, Paths: []string{"a.pdf"}}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 3)

	want := map[string]constants.BatchStatus{
		"ok":      constants.BatchStatusDone,
		"partial": constants.BatchStatusPartial,
		"failed":  constants.BatchStatusFailed,
	}
	for reg, status := range want {
		got, ok := q.Status(ids[reg])
		require.True(t, ok, reg)
		assert.Equal(t, status, got, reg)
	}
}

func TestBatchQueueRejectsAfterShutdown(t *testing.T) {
	q := NewBatchQueue(func(context.Context, Job) (int, error) { return 0, nil }, quiet())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Registry: "r"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestBatchQueueAssignsIDs(t *testing.T) {
	seen := make(chan Job, 1)
	q := NewBatchQueue(func(_ context.Context, job Job) (int, error) {
		seen <- job
		return 0, nil
	}, quiet())
	defer q.Shutdown(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), Job{Registry: "r"}))
	select {
	case job := <-seen:
		assert.NotEqual(t, uuid.Nil, job.ID)
		assert.False(t, job.SubmittedAt.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestBatchQueueTagsContext(t *testing.T) {
	type seen struct {
		requestID, registry string
		hasDeadline         bool
	}
	got := make(chan seen, 1)
	q := NewBatchQueue(func(ctx context.Context, _ Job) (int, error) {
		_, ok := ctx.Deadline()
		got <- seen{common.RequestIDFromContext(ctx), common.RegistryFromContext(ctx), ok}
		return 0, nil
	}, quiet(), WithProcessTimeout(0))
	defer q.Shutdown(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), Job{Registry: "house-7", TraceID: "trace-1"}))
	select {
	case s := <-got:
		assert.Equal(t, "trace-1", s.requestID)
		assert.Equal(t, "house-7", s.registry)
		assert.False(t, s.hasDeadline)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestBatchQueueSurvivesPanickingHandler(t *testing.T) {
	results := make(chan Result, 2)
	q := NewBatchQueue(func(_ context.Context, job Job) (int, error) {
		if job.Registry == "bad" {
			panic("nil record")
		}
		return 1, nil
	}, quiet(), WithWorkers(1), WithResultHook(func(r Result) { results <- r }))

	require.NoError(t, q.Enqueue(context.Background(), Job{Registry: "bad"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Registry: "good"}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	first, second := <-results, <-results
	assert.Equal(t, constants.BatchStatusFailed, first.Status)
	assert.ErrorIs(t, first.Err, common.ErrInternal)
	assert.Equal(t, constants.BatchStatusDone, second.Status)
}
