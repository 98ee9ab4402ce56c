package control

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"bqm/internal/assignment"
	"bqm/internal/bqmqueue"
	"bqm/internal/hostiface"
	"bqm/internal/mjpeg/server"
	"bqm/internal/mjpeg/stream"
	"bqm/internal/pool"
	"bqm/internal/task"
	"bqm/internal/tool"
	"bqm/internal/workflow"
)

// QueueManager owns every live Queue and the single Worker Pool that
// drains them, the control plane's equivalent of digiKam's
// BatchToolsManager + QueuePool pairing.
type QueueManager struct {
	Registry *tool.Registry
	Host     hostiface.Host
	Pool     *pool.Pool

	outputDir string
	log       *zap.Logger

	mu     sync.Mutex
	queues map[string]*bqmqueue.Queue
}

// NewQueueManager wires a manager around an already-constructed host
// and pool, writing finished items under outputDir by default. A nil
// logger is replaced with zap.NewNop(), so callers that don't care about
// run-level logging don't need to construct one.
func NewQueueManager(registry *tool.Registry, host hostiface.Host, p *pool.Pool, outputDir string, log *zap.Logger) *QueueManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueueManager{
		Registry:  registry,
		Host:      host,
		Pool:      p,
		outputDir: outputDir,
		log:       log,
		queues:    map[string]*bqmqueue.Queue{},
	}
}

// CreateQueue adds an empty, named queue running an empty assignment
// and returns it for the caller to populate.
func (m *QueueManager) CreateQueue(name string) *bqmqueue.Queue {
	q := bqmqueue.New(name, assignment.New())
	m.mu.Lock()
	m.queues[q.ID] = q
	m.mu.Unlock()
	return q
}

// Get returns the queue with id, if any.
func (m *QueueManager) Get(id string) (*bqmqueue.Queue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[id]
	return q, ok
}

// List returns every live queue, in no particular order.
func (m *QueueManager) List() []*bqmqueue.Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*bqmqueue.Queue, 0, len(m.queues))
	for _, q := range m.queues {
		out = append(out, q)
	}
	return out
}

// Delete removes a queue by id; it has no effect on a run already in
// flight, since Pool.Run holds its own reference.
func (m *QueueManager) Delete(id string) {
	m.mu.Lock()
	delete(m.queues, id)
	m.mu.Unlock()
}

// AppendTool resolves name against the registry, applies settings, and
// appends it to q's assignment chain.
func (m *QueueManager) AppendTool(q *bqmqueue.Queue, name string, settings tool.Settings) error {
	inst, err := m.Registry.New(name)
	if err != nil {
		return err
	}
	if len(settings) > 0 {
		configured, err := inst.WithSettings(settings)
		if err != nil {
			return err
		}
		inst = configured
	}
	q.Assignment.Append(inst)
	return nil
}

// Run drains q's pending items through the Worker Pool and returns
// every item's terminal Result in item order. It hands the pool a
// single-queue FIFO; RunMany is the multi-queue form the HTTP layer
// doesn't yet expose but the Pool itself always supports.
func (m *QueueManager) Run(ctx context.Context, q *bqmqueue.Queue) []task.Result {
	return m.RunMany(ctx, []*bqmqueue.Queue{q})[q.ID]
}

// RunMany drains every queue in queues through the Worker Pool in the
// given FIFO admission order, returning each queue's Results keyed by
// queue ID.
func (m *QueueManager) RunMany(ctx context.Context, queues []*bqmqueue.Queue) map[string][]task.Result {
	for _, q := range queues {
		m.log.Info("queue run starting", zap.String("queue_id", q.ID), zap.Int("pending", q.PendingCount()))
	}
	allResults := m.Pool.Run(ctx, queues, m.outputDir)

	for _, q := range queues {
		results := allResults[q.ID]
		var done, failed, canceled, skipped int
		for _, r := range results {
			switch r.Status {
			case task.StatusDone:
				done++
			case task.StatusFailed:
				failed++
			case task.StatusCanceled:
				canceled++
			case task.StatusSkipped:
				skipped++
			}
		}
		m.log.Info("queue run finished",
			zap.String("queue_id", q.ID),
			zap.Int("done", done),
			zap.Int("failed", failed),
			zap.Int("canceled", canceled),
			zap.Int("skipped", skipped))
	}
	return allResults
}

// ApplyWorkflow replaces q's assignment and queue settings with wf's, the
// control plane's equivalent of dragging a saved template onto a queue.
func (m *QueueManager) ApplyWorkflow(q *bqmqueue.Queue, wf *workflow.Workflow) {
	q.Assignment = wf.Chain.Clone()
	q.Settings = wf.QSettings
}

// StreamManager owns the MJPEG generator/server pairs started through
// the control plane, keyed by an operator-chosen name.
type StreamManager struct {
	mu      sync.Mutex
	streams map[string]*liveStream
}

type liveStream struct {
	gen    *stream.Generator
	server *server.Server
	cancel context.CancelFunc
}

// NewStreamManager returns an empty stream manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{streams: map[string]*liveStream{}}
}

// Start brings up a generator bound to settings and a broadcast server
// listening on addr, wiring the generator's frames straight into the
// server.
func (sm *StreamManager) Start(name string, settings stream.Settings, load stream.Loader, addr string, maxClients int) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, exists := sm.streams[name]; exists {
		return fmt.Errorf("control: stream %q already running", name)
	}

	gen := stream.New(settings, load)
	srv := server.New(settings.Rate, maxClients)
	if err := srv.Open(addr); err != nil {
		return fmt.Errorf("control: open stream %q: %w", name, err)
	}
	srv.Start()

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan stream.Frame, 4)
	go func() {
		_ = gen.Run(ctx, frames)
	}()
	bytesCh := make(chan []byte, 4)
	go func() {
		for f := range frames {
			bytesCh <- f.JPEG
		}
		close(bytesCh)
	}()
	go srv.RunBroadcast(bytesCh)

	sm.streams[name] = &liveStream{gen: gen, server: srv, cancel: cancel}
	return nil
}

// Stop tears down a running stream by name.
func (sm *StreamManager) Stop(name string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	live, ok := sm.streams[name]
	if !ok {
		return fmt.Errorf("control: stream %q not running", name)
	}
	live.cancel()
	_ = live.server.Close()
	delete(sm.streams, name)
	return nil
}

// Addr returns the listen address of a running stream, for clients
// that started it without pinning a fixed port.
func (sm *StreamManager) Addr(name string) (string, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	live, ok := sm.streams[name]
	if !ok {
		return "", false
	}
	return live.server.Addr().String(), true
}

// ClientCount reports how many MJPEG clients a running stream has.
func (sm *StreamManager) ClientCount(name string) (int, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	live, ok := sm.streams[name]
	if !ok {
		return 0, false
	}
	return live.server.ClientCount(), true
}

// Names lists every currently running stream.
func (sm *StreamManager) Names() []string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	out := make([]string, 0, len(sm.streams))
	for name := range sm.streams {
		out = append(out, name)
	}
	return out
}
