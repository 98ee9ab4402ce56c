package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bqm/internal/assignment"
	"bqm/internal/bqmqueue"
	"bqm/internal/hostiface"
	"bqm/internal/task"
	"bqm/internal/tool"
)

type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemFiles() *memFiles { return &memFiles{files: map[string][]byte{}} }

func (m *memFiles) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, assert.AnError
	}
	return data, nil
}
func (m *memFiles) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	return nil
}
func (m *memFiles) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}
func (m *memFiles) MkdirAll(dir string) error { return nil }
func (m *memFiles) Remove(path string) error  { delete(m.files, path); return nil }
func (m *memFiles) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[oldPath]
	if !ok {
		return assert.AnError
	}
	m.files[newPath] = data
	delete(m.files, oldPath)
	return nil
}

type passthroughDecoder struct{}

func (passthroughDecoder) IsRaw(string) bool { return false }
func (passthroughDecoder) Decode(path string, data []byte, rule bqmqueue.RawLoadingRule) (tool.Image, error) {
	return tool.Image{Data: data, Format: "jpeg"}, nil
}

type passthroughEncoder struct{}

func (passthroughEncoder) Encode(img tool.Image) ([]byte, error) { return img.Data, nil }

type noopMetadata struct{}

func (noopMetadata) ReadTags(string, []byte) (tool.Metadata, error) { return tool.Metadata{}, nil }
func (noopMetadata) WriteTags(string, tool.Metadata) error          { return nil }
func (noopMetadata) SidecarPath(p string) string                    { return p + ".xmp" }

func testHost(files *memFiles) hostiface.Host {
	return hostiface.Host{Files: files, Decoder: passthroughDecoder{}, Encoder: passthroughEncoder{}, Metadata: noopMetadata{}}
}

func TestPoolRunProcessesAllPendingItems(t *testing.T) {
	files := newMemFiles()
	files.files["/src/a.jpg"] = []byte("a")
	files.files["/src/b.jpg"] = []byte("b")

	q := bqmqueue.New("q", assignment.New())
	q.AddItem("/src/a.jpg")
	q.AddItem("/src/b.jpg")

	p := New(2, testHost(files))
	results := p.Run(context.Background(), []*bqmqueue.Queue{q}, "/out")[q.ID]

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, task.StatusDone, r.Status)
	}
	for _, item := range q.Items() {
		assert.Equal(t, bqmqueue.ItemDone, item.State)
	}
}

func TestPoolRunSkipsAlreadyTerminalItems(t *testing.T) {
	files := newMemFiles()
	files.files["/src/a.jpg"] = []byte("a")

	q := bqmqueue.New("q", assignment.New())
	q.AddItem("/src/a.jpg")
	require.NoError(t, q.UpdateState(0, bqmqueue.ItemSkipped, "manually skipped"))

	p := New(1, testHost(files))
	results := p.Run(context.Background(), []*bqmqueue.Queue{q}, "/out")[q.ID]

	require.Len(t, results, 1)
	assert.Equal(t, task.Result{}, results[0])
}

func TestPoolRunHonorsExplicitCancel(t *testing.T) {
	files := newMemFiles()
	for _, name := range []string{"a", "b", "c"} {
		files.files["/src/"+name+".jpg"] = []byte(name)
	}

	q := bqmqueue.New("q", assignment.New())
	q.AddItem("/src/a.jpg")
	q.AddItem("/src/b.jpg")
	q.AddItem("/src/c.jpg")

	p := New(1, testHost(files))
	p.Cancel()
	results := p.Run(context.Background(), []*bqmqueue.Queue{q}, "/out")[q.ID]

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, task.StatusCanceled, r.Status)
	}
}

func TestSizeFromCPUIsPositive(t *testing.T) {
	assert.Greater(t, SizeFromCPU(), 0)
}

func TestPoolRunEmitsStartingAndFinishedEvents(t *testing.T) {
	files := newMemFiles()
	files.files["/src/a.jpg"] = []byte("a")

	q := bqmqueue.New("q", assignment.New())
	q.AddItem("/src/a.jpg")

	p := New(1, testHost(files))
	var kinds []EventKind
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		deadline := time.After(time.Second)
		for {
			select {
			case ev := <-p.Events():
				kinds = append(kinds, ev.Kind)
				if ev.Kind == EventAllDone {
					return
				}
			case <-deadline:
				return
			}
		}
	}()
	p.Run(context.Background(), []*bqmqueue.Queue{q}, "/out")
	<-collected

	require.Contains(t, kinds, EventStarting)
	require.Contains(t, kinds, EventFinished)
	require.Contains(t, kinds, EventQueueProcessed)
	require.Contains(t, kinds, EventAllDone)
}

func TestPoolRunMultiQueueFIFOAndPerQueueResults(t *testing.T) {
	files := newMemFiles()
	files.files["/src/a.jpg"] = []byte("a")
	files.files["/src/b.jpg"] = []byte("b")

	q1 := bqmqueue.New("first", assignment.New())
	q1.AddItem("/src/a.jpg")
	q2 := bqmqueue.New("second", assignment.New())
	q2.AddItem("/src/b.jpg")

	p := New(2, testHost(files))
	allResults := p.Run(context.Background(), []*bqmqueue.Queue{q1, q2}, "/out")

	require.Len(t, allResults, 2)
	require.Len(t, allResults[q1.ID], 1)
	require.Len(t, allResults[q2.ID], 1)
	assert.Equal(t, task.StatusDone, allResults[q1.ID][0].Status)
	assert.Equal(t, task.StatusDone, allResults[q2.ID][0].Status)
}

func TestPoolRunEmptyQueueStillFiresQueueProcessed(t *testing.T) {
	files := newMemFiles()
	q := bqmqueue.New("empty", assignment.New())

	p := New(1, testHost(files))
	var kinds []EventKind
	go func() {
		for ev := range p.Events() {
			kinds = append(kinds, ev.Kind)
		}
	}()
	allResults := p.Run(context.Background(), []*bqmqueue.Queue{q}, "/out")

	assert.Empty(t, allResults[q.ID])
	time.Sleep(50 * time.Millisecond)
	assert.Contains(t, kinds, EventQueueProcessed)
}
