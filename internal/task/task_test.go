package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bqm/internal/assignment"
	"bqm/internal/bqmqueue"
	"bqm/internal/hostiface"
	"bqm/internal/tool"
	"bqm/internal/tool/builtin"
)

type fakeFiles struct {
	files     map[string][]byte
	renameErr error
}

func newFakeFiles() *fakeFiles { return &fakeFiles{files: map[string][]byte{}} }

func (f *fakeFiles) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, assert.AnError
	}
	return data, nil
}
func (f *fakeFiles) WriteFile(path string, data []byte) error { f.files[path] = data; return nil }
func (f *fakeFiles) Exists(path string) bool                  { _, ok := f.files[path]; return ok }
func (f *fakeFiles) MkdirAll(dir string) error                { return nil }
func (f *fakeFiles) Remove(path string) error                 { delete(f.files, path); return nil }
func (f *fakeFiles) Rename(oldPath, newPath string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	data, ok := f.files[oldPath]
	if !ok {
		return assert.AnError
	}
	f.files[newPath] = data
	delete(f.files, oldPath)
	return nil
}

type fakeDecoder struct{}

func (fakeDecoder) IsRaw(path string) bool { return false }
func (fakeDecoder) Decode(path string, data []byte, rule bqmqueue.RawLoadingRule) (tool.Image, error) {
	return tool.Image{Data: data, Format: "jpeg", Width: 100, Height: 100}, nil
}

type fakeEncoder struct{}

func (fakeEncoder) Encode(img tool.Image) ([]byte, error) { return img.Data, nil }

type fakeMetadataStore struct {
	written map[string]tool.Metadata
}

func newFakeMetadataStore() *fakeMetadataStore {
	return &fakeMetadataStore{written: map[string]tool.Metadata{}}
}
func (m *fakeMetadataStore) ReadTags(path string, data []byte) (tool.Metadata, error) {
	return tool.Metadata{"Exif.Image.Make": "Canon"}, nil
}
func (m *fakeMetadataStore) WriteTags(path string, tags tool.Metadata) error {
	m.written[path] = tags
	return nil
}
func (m *fakeMetadataStore) SidecarPath(imagePath string) string { return imagePath + ".xmp" }

func newTestHost(files *fakeFiles, meta *fakeMetadataStore) hostiface.Host {
	return hostiface.Host{
		Files:    files,
		Decoder:  fakeDecoder{},
		Encoder:  fakeEncoder{},
		Metadata: meta,
	}
}

func TestTaskRunSucceeds(t *testing.T) {
	files := newFakeFiles()
	files.files["/src/a.jpg"] = []byte("fake-jpeg-bytes")
	meta := newFakeMetadataStore()

	chain := assignment.New()
	chain.Append(builtin.NewStripMetadata())

	tk := &Task{
		Host:     newTestHost(files, meta),
		Chain:    chain,
		Settings: bqmqueue.DefaultSettings(),
	}

	result := tk.Run(context.Background(), bqmqueue.Item{SourcePath: "/src/a.jpg"}, "/out", func(string) bool { return false })
	require.Equal(t, StatusDone, result.Status)
	assert.Equal(t, "/out/a.jpg", result.DestPath)
	assert.Contains(t, files.files, "/out/a.jpg")
	assert.Contains(t, meta.written, "/out/a.jpg")
	assert.NotContains(t, files.files, "/out/a.jpg.bqmtmp", "temp file must be renamed away, not left alongside dest")
}

func TestTaskRunNoMetadataWriteSkipsPersist(t *testing.T) {
	files := newFakeFiles()
	files.files["/src/a.jpg"] = []byte("fake-jpeg-bytes")
	meta := newFakeMetadataStore()

	settings := bqmqueue.DefaultSettings()
	settings.NoMetadataWrite = true

	tk := &Task{
		Host:     newTestHost(files, meta),
		Chain:    assignment.New(),
		Settings: settings,
	}

	result := tk.Run(context.Background(), bqmqueue.Item{SourcePath: "/src/a.jpg"}, "/out", func(string) bool { return false })
	require.Equal(t, StatusDone, result.Status)
	assert.NotContains(t, meta.written, "/out/a.jpg")
}

func TestTaskRunCanceledBeforeStart(t *testing.T) {
	files := newFakeFiles()
	meta := newFakeMetadataStore()
	tk := &Task{Host: newTestHost(files, meta), Chain: assignment.New(), Settings: bqmqueue.DefaultSettings()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := tk.Run(ctx, bqmqueue.Item{SourcePath: "/src/a.jpg"}, "/out", func(string) bool { return false })
	assert.Equal(t, StatusCanceled, result.Status)
}

func TestTaskRunReadFailureReportsFailed(t *testing.T) {
	files := newFakeFiles()
	meta := newFakeMetadataStore()
	tk := &Task{Host: newTestHost(files, meta), Chain: assignment.New(), Settings: bqmqueue.DefaultSettings()}

	result := tk.Run(context.Background(), bqmqueue.Item{SourcePath: "/missing.jpg"}, "/out", func(string) bool { return false })
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, -1, result.FailedStep)
}

func TestTaskRunConflictSkipReportsSkipped(t *testing.T) {
	files := newFakeFiles()
	files.files["/src/a.jpg"] = []byte("fake-jpeg-bytes")
	meta := newFakeMetadataStore()

	settings := bqmqueue.DefaultSettings()
	settings.ConflictRule = bqmqueue.ConflictSkip

	tk := &Task{Host: newTestHost(files, meta), Chain: assignment.New(), Settings: settings}

	result := tk.Run(context.Background(), bqmqueue.Item{SourcePath: "/src/a.jpg"}, "/out", func(string) bool { return true })
	assert.Equal(t, StatusSkipped, result.Status)
}

func TestTaskRunRenameFailureReportsFailedAndCleansTemp(t *testing.T) {
	files := newFakeFiles()
	files.files["/src/a.jpg"] = []byte("fake-jpeg-bytes")
	files.renameErr = assert.AnError
	meta := newFakeMetadataStore()

	tk := &Task{Host: newTestHost(files, meta), Chain: assignment.New(), Settings: bqmqueue.DefaultSettings()}

	result := tk.Run(context.Background(), bqmqueue.Item{SourcePath: "/src/a.jpg"}, "/out", func(string) bool { return false })
	assert.Equal(t, StatusFailed, result.Status)
	assert.NotContains(t, files.files, "/out/a.jpg")
	assert.NotContains(t, files.files, "/out/a.jpg.bqmtmp")
}

func TestTaskRunChainFailureReportsFailedStep(t *testing.T) {
	files := newFakeFiles()
	files.files["/src/a.jpg"] = []byte("fake-jpeg-bytes")
	meta := newFakeMetadataStore()

	chain := assignment.New()
	chain.Append(builtin.NewResize()) // invalid image bytes make bimg fail inside Apply

	tk := &Task{Host: newTestHost(files, meta), Chain: chain, Settings: bqmqueue.DefaultSettings()}

	result := tk.Run(context.Background(), bqmqueue.Item{SourcePath: "/src/a.jpg"}, "/out", func(string) bool { return false })
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 0, result.FailedStep)
}
