package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troyfry/workorder-reconciler/constants"
	"github.com/troyfry/workorder-reconciler/internal/ingest"
	"github.com/troyfry/workorder-reconciler/internal/pipeline"
)

type recordingIngestor struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recordingIngestor) ProcessPath(_ context.Context, _, path string) (pipeline.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return pipeline.Result{Status: constants.ProcessMatched}, r.err
}

func (r *recordingIngestor) IngestDirectory(_ context.Context, _, _ string, _ bool) ([]ingest.FileResult, ingest.DirStats, error) {
	return nil, ingest.DirStats{}, nil
}

func (r *recordingIngestor) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestQueueProcessesAllJobs(t *testing.T) {
	ing := &recordingIngestor{}
	q := NewProcessorQueue(ing, nil, WithWorkers(2), WithQueueSize(16))

	for _, p := range []string{"/inbox/a.pdf", "/inbox/b.pdf", "/inbox/c.pdf"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p, SenderKey: "acme"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.ElementsMatch(t, []string{"/inbox/a.pdf", "/inbox/b.pdf", "/inbox/c.pdf"}, ing.seen())
}

func TestQueueSurvivesProcessingFailures(t *testing.T) {
	ing := &recordingIngestor{err: errors.New("broken document")}
	q := NewProcessorQueue(ing, nil, WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "/inbox/bad.pdf"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "/inbox/next.pdf"}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Len(t, ing.seen(), 2, "a failing document must not stall the worker")
}

func TestQueueEnqueueAfterShutdownIsIgnored(t *testing.T) {
	ing := &recordingIngestor{}
	q := NewProcessorQueue(ing, nil, WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "/inbox/late.pdf"}))
	assert.Empty(t, ing.seen())
}

func TestQueueShutdownIsIdempotent(t *testing.T) {
	q := NewProcessorQueue(&recordingIngestor{}, nil, WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)
	q.Shutdown(ctx)
}
