package bqmqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bqm/internal/assignment"
	"bqm/internal/tool"
	"bqm/internal/tool/builtin"
)

// mustConvertTo returns a Convert instance targeting format, the minimal
// chain step ResolveDestination's suffix tests need to exercise a
// non-empty OutputSuffix().
func mustConvertTo(t *testing.T, format string) tool.Instance {
	t.Helper()
	inst, err := builtin.NewConvert().WithSettings(tool.Settings{"format": tool.StringValue(format), "quality": tool.IntValue(90)})
	require.NoError(t, err)
	return inst
}

func TestQueueAddAndRemoveItem(t *testing.T) {
	q := New("test-queue", assignment.New())
	q.AddItem("/photos/a.jpg")
	q.AddItem("/photos/b.jpg")

	require.Len(t, q.Items(), 2)
	require.NoError(t, q.RemoveItem(0))
	items := q.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "/photos/b.jpg", items[0].SourcePath)
}

func TestQueueUpdateState(t *testing.T) {
	q := New("q", assignment.New())
	q.AddItem("/photos/a.jpg")
	require.NoError(t, q.UpdateState(0, ItemFailed, "decode error"))

	items := q.Items()
	assert.Equal(t, ItemFailed, items[0].State)
	assert.Equal(t, "decode error", items[0].Message)
}

func TestQueueUpdateStateOutOfRange(t *testing.T) {
	q := New("q", assignment.New())
	assert.Error(t, q.UpdateState(0, ItemDone, ""))
}

func TestQueuePendingCount(t *testing.T) {
	q := New("q", assignment.New())
	q.AddItem("a")
	q.AddItem("b")
	q.AddItem("c")
	require.NoError(t, q.UpdateState(0, ItemDone, ""))
	assert.Equal(t, 2, q.PendingCount())
}

func TestQueueReset(t *testing.T) {
	q := New("q", assignment.New())
	q.AddItem("a")
	require.NoError(t, q.UpdateState(0, ItemFailed, "boom"))
	require.NoError(t, q.SetDestination(0, "/out/a.jpg"))

	q.Reset()
	items := q.Items()
	assert.Equal(t, ItemPending, items[0].State)
	assert.Empty(t, items[0].Message)
	assert.Empty(t, items[0].DestPath)
}

func TestResolveDestinationDifferentNameOnConflict(t *testing.T) {
	s := DefaultSettings()
	s.ConflictRule = ConflictDifferentName
	exists := map[string]bool{"/out/a.jpg": true, "/out/a (2).jpg": true}
	dest, err := ResolveDestination("/src/a.jpg", "/out", s, nil, func(p string) bool { return exists[p] })
	require.NoError(t, err)
	assert.Equal(t, "/out/a (3).jpg", dest)
}

func TestResolveDestinationSkipOnConflict(t *testing.T) {
	s := DefaultSettings()
	s.ConflictRule = ConflictSkip
	_, err := ResolveDestination("/src/a.jpg", "/out", s, nil, func(p string) bool { return true })
	require.Error(t, err)
}

func TestResolveDestinationOverwrite(t *testing.T) {
	s := DefaultSettings()
	s.ConflictRule = ConflictOverwrite
	dest, err := ResolveDestination("/src/a.jpg", "/out", s, nil, func(p string) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, "/out/a.jpg", dest)
}

func TestResolveDestinationCustomPattern(t *testing.T) {
	s := DefaultSettings()
	s.RenamingRule = RenamingCustomPattern
	s.RenamingPattern = "vacation_[name]"
	dest, err := ResolveDestination("/src/img001.jpg", "/out", s, nil, func(p string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, "/out/vacation_img001.jpg", dest)
}

func TestResolveDestinationChainOverridesExtension(t *testing.T) {
	s := DefaultSettings()
	chain := assignment.New()
	chain.Append(mustConvertTo(t, "tif"))

	dest, err := ResolveDestination("/in/b.jpg", "/out", s, chain, func(p string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, "/out/b.tif", dest)
}

func TestResolveDestinationNilChainKeepsSourceExtension(t *testing.T) {
	s := DefaultSettings()
	dest, err := ResolveDestination("/in/b.jpg", "/out", s, nil, func(p string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, "/out/b.jpg", dest)
}
