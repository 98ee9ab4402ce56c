package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInstance struct {
	name     string
	version  int
	group    Group
	settings Settings
}

func (f *fakeInstance) Name() string         { return f.name }
func (f *fakeInstance) Version() int         { return f.version }
func (f *fakeInstance) Group() Group         { return f.group }
func (f *fakeInstance) Settings() Settings   { return f.settings }
func (f *fakeInstance) OutputSuffix() string { return "" }

func (f *fakeInstance) WithSettings(s Settings) (Instance, error) {
	clone := *f
	clone.settings = s.Clone()
	return &clone, nil
}

func (f *fakeInstance) Clone() Instance {
	clone := *f
	clone.settings = f.settings.Clone()
	return &clone
}

func (f *fakeInstance) Apply(ctx context.Context, ac *Context) (*Context, error) {
	return ac, ctx.Err()
}

func newFakeDescriptor(name string) Descriptor {
	return Descriptor{
		Name:    name,
		Version: 1,
		Group:   GroupConvert,
		Factory: func() Instance {
			return &fakeInstance{name: name, version: 1, group: GroupConvert, settings: Settings{}}
		},
	}
}

func TestRegistryLookupAndNew(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeDescriptor("resize"))

	d, ok := r.Lookup("resize")
	require.True(t, ok)
	assert.Equal(t, 1, d.Version)

	inst, err := r.New("resize")
	require.NoError(t, err)
	assert.Equal(t, "resize", inst.Name())
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.New("does-not-exist")
	require.Error(t, err)
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "does-not-exist", unknown.Name)
}

func TestRegistryRegisterNilFactoryPanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() {
		r.Register(Descriptor{Name: "broken"})
	})
}

func TestRegistryRegisterDuplicateGroupNameFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeDescriptor("resize")))

	err := r.Register(newFakeDescriptor("resize"))
	require.Error(t, err)
	var dup *DuplicateToolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "resize", dup.Name)
}

func TestRegistrySameNameDifferentGroupIsNotADuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeDescriptor("resize")))

	other := newFakeDescriptor("resize")
	other.Group = GroupMetadata
	require.NoError(t, r.Register(other))

	_, ok := r.Find(GroupConvert, "resize")
	require.True(t, ok)
	_, ok = r.Find(GroupMetadata, "resize")
	require.True(t, ok)
}

func TestRegistryListIsOrderedByGroupThenName(t *testing.T) {
	r := NewRegistry()
	b := newFakeDescriptor("b")
	b.Group = GroupMetadata
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Register(newFakeDescriptor("a")))
	z := newFakeDescriptor("z")
	z.Group = GroupConvert
	require.NoError(t, r.Register(z))

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "z", list[1].Name)
	assert.Equal(t, "b", list[2].Name)
}

func TestRegistrySetVisibleDoesNotAffectFind(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeDescriptor("resize")))

	require.NoError(t, r.SetVisible(GroupConvert, "resize", false))
	assert.False(t, r.Visible(GroupConvert, "resize"))

	_, ok := r.Find(GroupConvert, "resize")
	assert.True(t, ok)

	assert.Error(t, r.SetVisible(GroupConvert, "does-not-exist", false))
}

func TestInstanceCloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeDescriptor("resize"))
	inst, err := r.New("resize")
	require.NoError(t, err)

	withSettings, err := inst.WithSettings(Settings{"quality": IntValue(80)})
	require.NoError(t, err)

	clone := withSettings.Clone()
	clone.Settings()["quality"] = IntValue(1)

	assert.Equal(t, int64(80), withSettings.Settings().Int("quality", 0))
}
