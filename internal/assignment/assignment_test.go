package assignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bqm/internal/tool"
	"bqm/internal/tool/builtin"
)

func TestAssignmentAppendAndSteps(t *testing.T) {
	a := New()
	a.Append(builtin.NewResize())
	a.Append(builtin.NewConvert())

	steps := a.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].Index)
	assert.Equal(t, 1, steps[1].Index)
	assert.Equal(t, "Resize", steps[0].Instance.Name())
}

func TestAssignmentRemoveRenumbers(t *testing.T) {
	a := New()
	a.Append(builtin.NewResize())
	a.Append(builtin.NewConvert())
	a.Append(builtin.NewRotate())

	require.NoError(t, a.Remove(1))
	steps := a.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "Resize", steps[0].Instance.Name())
	assert.Equal(t, "Rotate", steps[1].Instance.Name())
	assert.Equal(t, 1, steps[1].Index)
}

func TestAssignmentRemoveOutOfRange(t *testing.T) {
	a := New()
	assert.Error(t, a.Remove(0))
}

func TestAssignmentMoveReorders(t *testing.T) {
	a := New()
	a.Append(builtin.NewResize())
	a.Append(builtin.NewConvert())
	a.Append(builtin.NewRotate())

	require.NoError(t, a.Move(2, 0))
	steps := a.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, "Rotate", steps[0].Instance.Name())
	assert.Equal(t, "Resize", steps[1].Instance.Name())
	assert.Equal(t, "Convert", steps[2].Instance.Name())
	for i, s := range steps {
		assert.Equal(t, i, s.Index)
	}
}

func TestAssignmentCloneIsIndependent(t *testing.T) {
	a := New()
	r, err := builtin.NewResize().WithSettings(tool.Settings{"maxWidth": tool.IntValue(100), "maxHeight": tool.IntValue(100)})
	require.NoError(t, err)
	a.Append(r)

	clone := a.Clone()
	cloneSettings := clone.Steps()[0].Instance.Settings()
	cloneSettings["maxWidth"] = tool.IntValue(999)

	assert.Equal(t, int64(100), a.Steps()[0].Instance.Settings().Int("maxWidth", 0))
}

func TestIsLastInChainGroup(t *testing.T) {
	a := New()
	a.Append(builtin.NewResize())
	a.Append(builtin.NewUserScript())
	a.Append(builtin.NewUserScript())
	a.Append(builtin.NewConvert())

	assert.True(t, a.IsLastInChainGroup(0))
	assert.True(t, a.IsLastInChainGroup(1))
	assert.False(t, a.IsLastInChainGroup(2))
	assert.True(t, a.IsLastInChainGroup(3))
}

func TestAssignmentRunStopsOnFirstError(t *testing.T) {
	badResize := builtin.NewResize()
	invalid, err := badResize.WithSettings(tool.Settings{"maxWidth": tool.IntValue(100), "maxHeight": tool.IntValue(100)})
	require.NoError(t, err)

	a := New()
	a.Append(invalid)

	ac := &tool.Context{
		Image: tool.Image{Data: []byte("not-a-real-image"), Width: 10, Height: 10},
		Meta:  tool.Metadata{},
	}
	_, failedIndex, err := a.Run(context.Background(), ac)
	require.Error(t, err)
	assert.Equal(t, 0, failedIndex)
}

func TestAssignmentRunHonorsCancellation(t *testing.T) {
	a := New()
	a.Append(builtin.NewResize())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := a.Run(ctx, &tool.Context{Image: tool.Image{}, Meta: tool.Metadata{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssignmentInsertAtMiddle(t *testing.T) {
	a := New()
	a.Append(builtin.NewResize())
	a.Append(builtin.NewConvert())

	require.NoError(t, a.InsertAt(1, builtin.NewRotate()))
	steps := a.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, "Resize", steps[0].Instance.Name())
	assert.Equal(t, "Rotate", steps[1].Instance.Name())
	assert.Equal(t, "Convert", steps[2].Instance.Name())
	for i, s := range steps {
		assert.Equal(t, i, s.Index)
	}
}

func TestAssignmentInsertAtEndMatchesAppend(t *testing.T) {
	a := New()
	a.Append(builtin.NewResize())

	require.NoError(t, a.InsertAt(a.Len(), builtin.NewConvert()))
	steps := a.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "Convert", steps[1].Instance.Name())
}

func TestAssignmentInsertAtOutOfRange(t *testing.T) {
	a := New()
	assert.Error(t, a.InsertAt(-1, builtin.NewResize()))
	assert.Error(t, a.InsertAt(1, builtin.NewResize()))
}

func TestAssignmentClear(t *testing.T) {
	a := New()
	a.Append(builtin.NewResize())
	a.Append(builtin.NewConvert())

	a.Clear()
	assert.Equal(t, 0, a.Len())
}

func TestAssignmentOutputSuffixUnchangedWhenNoToolOverrides(t *testing.T) {
	a := New()
	a.Append(builtin.NewResize())
	a.Append(builtin.NewRotate())

	suffix, overridden := a.OutputSuffix("jpg")
	assert.Equal(t, "jpg", suffix)
	assert.False(t, overridden)
}

func TestAssignmentOutputSuffixFollowsConvert(t *testing.T) {
	convert, err := builtin.NewConvert().WithSettings(tool.Settings{"format": tool.StringValue("tiff"), "quality": tool.IntValue(90)})
	require.NoError(t, err)

	a := New()
	a.Append(builtin.NewResize())
	a.Append(convert)

	suffix, overridden := a.OutputSuffix("jpg")
	assert.Equal(t, "tiff", suffix)
	assert.True(t, overridden)
}

func TestAssignmentRunSetsIsLastInChain(t *testing.T) {
	a := New()
	a.Append(builtin.NewResize())

	ac := &tool.Context{
		Image: tool.Image{Data: []byte("not-a-real-image"), Width: 10, Height: 10},
		Meta:  tool.Metadata{},
	}
	_, _, err := a.Run(context.Background(), ac)
	require.Error(t, err)
	assert.True(t, ac.IsLastInChain)
}

func TestAssignmentDropPaletteSelectionInserts(t *testing.T) {
	r := tool.NewRegistry()
	builtin.RegisterAll(r)

	a := New()
	a.Append(builtin.NewResize())

	require.NoError(t, a.Drop(0, r, &DropPaletteSelection{Group: tool.GroupConvert, Name: "Convert"}, nil))
	steps := a.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "Convert", steps[0].Instance.Name())
	assert.Equal(t, "Resize", steps[1].Instance.Name())
}

func TestAssignmentDropMoveExistingReorders(t *testing.T) {
	r := tool.NewRegistry()
	builtin.RegisterAll(r)

	a := New()
	a.Append(builtin.NewResize())
	a.Append(builtin.NewConvert())
	a.Append(builtin.NewRotate())

	require.NoError(t, a.Drop(0, r, nil, &DropMoveExisting{From: 2}))
	steps := a.Steps()
	assert.Equal(t, "Rotate", steps[0].Instance.Name())
}

func TestAssignmentDropRejectsAmbiguousPayload(t *testing.T) {
	r := tool.NewRegistry()
	a := New()
	assert.Error(t, a.Drop(0, r, nil, nil))
	assert.Error(t, a.Drop(0, r, &DropPaletteSelection{Name: "Resize"}, &DropMoveExisting{From: 0}))
}
