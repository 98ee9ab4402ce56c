package jobqueue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// payloadArgs wraps a typed payload with the river.JobArgs Kind() river
// needs for dispatch, the same closed-generic trick the teacher's queue
// package uses so one Go type parameter covers every job kind.
type payloadArgs[T any] struct {
	Data T
	kind string
}

func (a payloadArgs[T]) Kind() string { return a.kind }

type jobWrapper[T any] struct {
	rjob *river.Job[payloadArgs[T]]
}

func (j *jobWrapper[T]) ID() string   { return strconv.FormatInt(j.rjob.ID, 10) }
func (j *jobWrapper[T]) Type() Type   { return Type(j.rjob.Args.kind) }
func (j *jobWrapper[T]) Payload() T   { return j.rjob.Args.Data }
func (j *jobWrapper[T]) Attempt() int { return j.rjob.Attempt }

type genericWorker[T any] struct {
	river.WorkerDefaults[payloadArgs[T]]
	handler func(ctx context.Context, job Job[T]) error
}

func (w *genericWorker[T]) Work(ctx context.Context, job *river.Job[payloadArgs[T]]) error {
	return w.handler(ctx, &jobWrapper[T]{rjob: job})
}

// RiverQueue implements Queue[T] over a River client backed by
// Postgres, giving the queue manager a durable fallback for runs it
// can't afford to lose on process restart.
type RiverQueue[T any] struct {
	dbPool       *pgxpool.Pool
	workers      *river.Workers
	queueConfigs map[string]river.QueueConfig
	client       *river.Client[pgx.Tx]
}

func NewRiverQueue[T any](dbPool *pgxpool.Pool) *RiverQueue[T] {
	return &RiverQueue[T]{
		dbPool:       dbPool,
		workers:      river.NewWorkers(),
		queueConfigs: make(map[string]river.QueueConfig),
	}
}

func (r *RiverQueue[T]) Enqueue(ctx context.Context, jobType Type, payload T) (string, error) {
	result, err := r.client.Insert(ctx, payloadArgs[T]{Data: payload, kind: string(jobType)}, nil)
	if err != nil {
		return "", fmt.Errorf("jobqueue: enqueue %s: %w", jobType, err)
	}
	return strconv.FormatInt(result.Job.ID, 10), nil
}

func (r *RiverQueue[T]) EnqueueIn(ctx context.Context, jobType Type, payload T, delay time.Duration) (string, error) {
	opts := &river.InsertOpts{ScheduledAt: time.Now().Add(delay)}
	result, err := r.client.Insert(ctx, payloadArgs[T]{Data: payload, kind: string(jobType)}, opts)
	if err != nil {
		return "", fmt.Errorf("jobqueue: enqueue %s in %s: %w", jobType, delay, err)
	}
	return strconv.FormatInt(result.Job.ID, 10), nil
}

func (r *RiverQueue[T]) RegisterWorker(jobType Type, opts WorkerOptions, handler func(ctx context.Context, job Job[T]) error) {
	r.queueConfigs[string(jobType)] = river.QueueConfig{MaxWorkers: opts.Concurrency}
	river.AddWorker(r.workers, &genericWorker[T]{handler: handler})
}

func (r *RiverQueue[T]) Start(ctx context.Context) error {
	cli, err := river.NewClient(riverpgxv5.New(r.dbPool), &river.Config{
		Queues:  r.queueConfigs,
		Workers: r.workers,
	})
	if err != nil {
		return fmt.Errorf("jobqueue: create river client: %w", err)
	}
	r.client = cli
	return r.client.Start(ctx)
}

func (r *RiverQueue[T]) Stop(ctx context.Context) error {
	return r.client.Stop(ctx)
}
