// Package jobqueue is the optional durable backend for work the Worker
// Pool would otherwise only run in-process: queue runs that must survive
// a process restart, and scheduled maintenance like temp-file cleanup.
// It adapts the teacher's generic River-backed queue client to the
// queue manager's own job types.
package jobqueue

import (
	"context"
	"time"
)

// Job is a durably-enqueued unit of work, mirroring the teacher's
// generic Job[T] contract so RiverQueue can stay untouched by what T is.
type Job[T any] interface {
	ID() string
	Type() Type
	Payload() T
	Attempt() int
}

// Type enumerates the durable job kinds the queue manager knows about.
type Type string

const (
	// TypeRunQueue executes an entire bqmqueue.Queue through the Worker
	// Pool; enqueued instead of run inline when a caller wants the run
	// to survive a process restart.
	TypeRunQueue Type = "run_queue"
	// TypeCleanupTemp removes scratch directories left behind by tasks
	// that crashed before their own cleanup ran.
	TypeCleanupTemp Type = "cleanup_temp"
	// TypeStartStream brings up an MJPEG stream (generator + server)
	// for a saved album/settings pair.
	TypeStartStream Type = "start_stream"
)

// RetryPolicy configures how many times and how long a failed job is
// retried before it's abandoned to the dead-letter state.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// WorkerOptions configures one Type's consumer: how many run
// concurrently and its retry policy.
type WorkerOptions struct {
	Concurrency int
	Policy      RetryPolicy
}

// Queue is the durable-enqueue contract the rest of bqm depends on,
// letting internal/pool or internal/mjpeg submit work without knowing
// it's backed by River/Postgres.
type Queue[T any] interface {
	Enqueue(ctx context.Context, jobType Type, payload T) (jobID string, err error)
	EnqueueIn(ctx context.Context, jobType Type, payload T, delay time.Duration) (jobID string, err error)
	RegisterWorker(jobType Type, opts WorkerOptions, handler func(ctx context.Context, job Job[T]) error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
