// Package pool implements the Worker Pool (C7): the bounded-concurrency
// executor that drains one or more Queues' pending items through cloned
// Task pipelines, honoring cooperative cancellation the way digiKam's
// ActionThread polls its cancel flag between units of work.
package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"bqm/internal/bqmqueue"
	"bqm/internal/hostiface"
	"bqm/internal/task"
)

// pollInterval is how often the pool checks its cancellation flag while
// idle between item dispatches; spec.md requires the cooperative-cancel
// poll to happen at 10Hz or better, so 50ms comfortably clears that bar.
const pollInterval = 50 * time.Millisecond

// EventKind distinguishes the four points in a Run a caller can observe.
type EventKind int

const (
	// EventStarting fires the moment an item is handed to a worker, before
	// its Task begins decoding.
	EventStarting EventKind = iota
	// EventFinished fires once an item's Task has produced a terminal Result.
	EventFinished
	// EventQueueProcessed fires once, the moment a given queue's last
	// pending item reaches a terminal state, even while other queues in
	// the same Run are still draining.
	EventQueueProcessed
	// EventAllDone fires exactly once, after every queue in the Run has
	// been fully processed.
	EventAllDone
)

// ItemRef identifies one item across a multi-queue Run.
type ItemRef struct {
	QueueID   string
	ItemIndex int
}

// Event reports one point in a Run's progress, letting a caller stream
// progress instead of waiting for Run to return the full result map.
// Item is populated for EventStarting and EventFinished, Result only for
// EventFinished; only Item.QueueID is populated for EventQueueProcessed;
// neither is populated for EventAllDone.
type Event struct {
	Kind   EventKind
	Item   ItemRef
	Result task.Result
}

// Pool runs a fixed number of workers, each pulling the next pending
// item off the FIFO-ordered admission list built from one or more
// Queues and executing a freshly cloned Assignment against it.
type Pool struct {
	Concurrency int
	Host        hostiface.Host

	canceled atomic.Bool
	events   chan Event
}

// New returns a pool sized to concurrency, clamped to at least 1.
func New(concurrency int, host hostiface.Host) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	// Buffered generously relative to concurrency: each worker can emit
	// starting+finished+queueProcessed in a tight burst, and a slow
	// reader should still see most of them before the non-blocking send
	// starts dropping.
	return &Pool{Concurrency: concurrency, Host: host, events: make(chan Event, concurrency*4+4)}
}

// SizeFromCPU reports the worker count digiKam's "use multi-core CPU"
// queue setting implies: one worker per logical core, falling back to
// runtime.NumCPU if the gopsutil probe fails.
func SizeFromCPU() int {
	if counts, err := cpu.Counts(true); err == nil && counts > 0 {
		return counts
	}
	return runtime.NumCPU()
}

// Cancel requests cooperative cancellation: in-flight items run to their
// next tool boundary and then report StatusCanceled; no new items start.
func (p *Pool) Cancel() { p.canceled.Store(true) }

// Events returns the channel Run publishes progress on. Callers that
// don't need a live feed can ignore it; Run still drains it internally
// via a non-blocking send so a slow or absent reader never stalls a
// worker.
func (p *Pool) Events() <-chan Event { return p.events }

type pendingItem struct {
	queue     *bqmqueue.Queue
	itemIndex int
	item      bqmqueue.Item
}

// Run drains every queue's pending items in FIFO admission order --
// queues in the order given, items within a queue in their existing
// order -- writing results under outputDir, and returns each queue's
// Results in item order, keyed by queue ID. It respects both ctx
// cancellation and an explicit Cancel() call, and never starts a new
// item once either fires.
func (p *Pool) Run(ctx context.Context, queues []*bqmqueue.Queue, outputDir string) map[string][]task.Result {
	results := make(map[string][]task.Result, len(queues))
	remaining := make(map[string]*atomic.Int64, len(queues))
	var fifo []pendingItem

	for _, q := range queues {
		items := q.Items()
		results[q.ID] = make([]task.Result, len(items))
		pendingCount := int64(0)
		for i, item := range items {
			if item.State != bqmqueue.ItemPending {
				continue
			}
			fifo = append(fifo, pendingItem{queue: q, itemIndex: i, item: item})
			pendingCount++
		}
		counter := &atomic.Int64{}
		counter.Store(pendingCount)
		remaining[q.ID] = counter
		if pendingCount == 0 {
			p.publish(Event{Kind: EventQueueProcessed, Item: ItemRef{QueueID: q.ID}})
		}
	}

	workerCtx, stop := context.WithCancel(ctx)
	defer stop()
	go p.watchCancellation(workerCtx, stop)

	var conflictMu sync.Mutex
	seen := map[string]bool{}
	conflictCheck := func(path string) bool {
		conflictMu.Lock()
		defer conflictMu.Unlock()
		if seen[path] {
			return true
		}
		exists := p.Host.Files.Exists(path)
		if exists {
			seen[path] = true
		}
		return exists
	}

	group := newBoundedGroup(p.Concurrency)

	for _, pi := range fifo {
		pi := pi
		ref := ItemRef{QueueID: pi.queue.ID, ItemIndex: pi.itemIndex}

		if workerCtx.Err() != nil || p.canceled.Load() {
			result := task.Result{Status: task.StatusCanceled, SourcePath: pi.item.SourcePath, FailedStep: -1}
			results[pi.queue.ID][pi.itemIndex] = result
			p.finishItem(pi.queue, pi.itemIndex, result, ref, remaining[pi.queue.ID])
			continue
		}

		group.Go(func() error {
			p.publish(Event{Kind: EventStarting, Item: ref})
			tk := &task.Task{Host: p.Host, Chain: pi.queue.Assignment.Clone(), Settings: pi.queue.Settings}
			result := tk.Run(workerCtx, pi.item, outputDir, conflictCheck)
			results[pi.queue.ID][pi.itemIndex] = result
			p.finishItem(pi.queue, pi.itemIndex, result, ref, remaining[pi.queue.ID])
			if result.Status == task.StatusFailed {
				return fmt.Errorf("pool: queue %s item %d: %s", pi.queue.ID, pi.itemIndex, result.Message)
			}
			return nil
		})
	}

	_ = group.Wait()
	p.publish(Event{Kind: EventAllDone})
	return results
}

// finishItem records an item's terminal state on its owning queue,
// emits EventFinished, and -- if that was the queue's last pending item
// -- emits EventQueueProcessed.
func (p *Pool) finishItem(q *bqmqueue.Queue, itemIndex int, result task.Result, ref ItemRef, counter *atomic.Int64) {
	_ = q.UpdateState(itemIndex, stateFor(result.Status), result.Message)
	if result.DestPath != "" {
		_ = q.SetDestination(itemIndex, result.DestPath)
	}
	p.publish(Event{Kind: EventFinished, Item: ref, Result: result})
	if counter.Add(-1) == 0 {
		p.publish(Event{Kind: EventQueueProcessed, Item: ItemRef{QueueID: q.ID}})
	}
}

func (p *Pool) publish(ev Event) {
	select {
	case p.events <- ev:
	default:
	}
}

func (p *Pool) watchCancellation(ctx context.Context, stop context.CancelFunc) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.canceled.Load() {
				stop()
				return
			}
		}
	}
}

func stateFor(s task.Status) bqmqueue.ItemState {
	switch s {
	case task.StatusDone:
		return bqmqueue.ItemDone
	case task.StatusFailed:
		return bqmqueue.ItemFailed
	case task.StatusCanceled:
		return bqmqueue.ItemCanceled
	case task.StatusSkipped:
		return bqmqueue.ItemSkipped
	default:
		return bqmqueue.ItemPending
	}
}
