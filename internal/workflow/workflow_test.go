package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bqm/internal/tool"
	"bqm/internal/tool/builtin"
)

func testRegistry() *tool.Registry {
	r := tool.NewRegistry()
	builtin.RegisterAll(r)
	return r
}

func TestResolveAndDocumentRoundTrip(t *testing.T) {
	registry := testRegistry()
	doc := workflowDocument{
		Title:       "web-export",
		Description: "resize and convert for web",
		Tools: toolListXML{Steps: []toolStep{
			{Index: 0, Group: int(tool.GroupConvert), Tool: "Resize", Version: 1, Settings: tool.Settings{"maxWidth": tool.IntValue(1280), "maxHeight": tool.IntValue(720)}},
			{Index: 1, Group: int(tool.GroupConvert), Tool: "Convert", Version: 1, Settings: tool.Settings{"format": tool.StringValue("jpeg"), "quality": tool.IntValue(85)}},
		}},
	}

	wf, err := Resolve(doc, registry)
	require.NoError(t, err)
	assert.Equal(t, "web-export", wf.Title)
	assert.Equal(t, 2, wf.Chain.Len())

	roundTripped := wf.Document()
	assert.Equal(t, doc.Title, roundTripped.Title)
	require.Len(t, roundTripped.Tools.Steps, 2)
	assert.Equal(t, "Resize", roundTripped.Tools.Steps[0].Tool)
}

func TestResolveUnknownToolFails(t *testing.T) {
	registry := testRegistry()
	doc := workflowDocument{Title: "broken", Tools: toolListXML{Steps: []toolStep{
		{Index: 0, Group: int(tool.GroupConvert), Tool: "DoesNotExist"},
	}}}
	_, err := Resolve(doc, registry)
	require.Error(t, err)
}

func TestResolveInvalidSettingsFails(t *testing.T) {
	registry := testRegistry()
	doc := workflowDocument{Title: "broken", Tools: toolListXML{Steps: []toolStep{
		{Index: 0, Group: int(tool.GroupConvert), Tool: "Convert", Version: 1, Settings: tool.Settings{"format": tool.StringValue("bmp")}},
	}}}
	_, err := Resolve(doc, registry)
	require.Error(t, err)
}

func TestResolveNewerVersionThanRegisteredFails(t *testing.T) {
	registry := testRegistry()
	doc := workflowDocument{Title: "future", Tools: toolListXML{Steps: []toolStep{
		{Index: 0, Group: int(tool.GroupConvert), Tool: "Resize", Version: 99},
	}}}
	_, err := Resolve(doc, registry)
	require.Error(t, err)
	var unresolved *UnresolvedStepError
	require.ErrorAs(t, err, &unresolved)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	registry := testRegistry()
	path := filepath.Join(t.TempDir(), "workflows.xml")

	store, err := Open(path, registry)
	require.NoError(t, err)
	assert.Empty(t, store.List())

	doc := workflowDocument{
		Title: "thumbnails",
		Tools: toolListXML{Steps: []toolStep{{Index: 0, Group: int(tool.GroupConvert), Tool: "Resize", Version: 1, Settings: tool.Settings{"maxWidth": tool.IntValue(200), "maxHeight": tool.IntValue(200)}}}},
	}
	wf, err := Resolve(doc, registry)
	require.NoError(t, err)
	require.NoError(t, store.Save(wf))

	reopened, err := Open(path, registry)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"thumbnails"}, reopened.List())
	assert.Empty(t, reopened.Failed())

	loaded, ok := reopened.Get("thumbnails")
	require.True(t, ok)
	assert.Equal(t, 1, loaded.Chain.Len())
}

func TestStoreDeleteRemovesWorkflow(t *testing.T) {
	registry := testRegistry()
	path := filepath.Join(t.TempDir(), "workflows.xml")
	store, err := Open(path, registry)
	require.NoError(t, err)

	wf, err := Resolve(workflowDocument{Title: "temp"}, registry)
	require.NoError(t, err)
	require.NoError(t, store.Save(wf))
	require.NoError(t, store.Delete("temp"))

	_, ok := store.Get("temp")
	assert.False(t, ok)
}

func TestOpenIsolatesBrokenWorkflowIntoFailed(t *testing.T) {
	registry := testRegistry()
	path := filepath.Join(t.TempDir(), "workflows.xml")

	raw := `<workflowlist version="1">
  <workflow title="good">
    <queueSettings></queueSettings>
    <tools>
      <tool group="0" name="Resize" version="1">
        <settings><entry key="maxWidth" type="int">200</entry><entry key="maxHeight" type="int">200</entry></settings>
      </tool>
    </tools>
  </workflow>
  <workflow title="broken-version">
    <queueSettings></queueSettings>
    <tools>
      <tool group="0" name="Resize" version="99"></tool>
    </tools>
  </workflow>
  <workflow title="broken-unknown">
    <queueSettings></queueSettings>
    <tools>
      <tool group="0" name="NoSuchTool" version="1"></tool>
    </tools>
  </workflow>
</workflowlist>`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	store, err := Open(path, registry)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"good"}, store.List())

	failed := store.Failed()
	require.Len(t, failed, 2)
	titles := []string{failed[0].Title, failed[1].Title}
	assert.ElementsMatch(t, []string{"broken-version", "broken-unknown"}, titles)
}

func TestOpenRejectsUnsupportedStoreVersion(t *testing.T) {
	registry := testRegistry()
	path := filepath.Join(t.TempDir(), "workflows.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<workflowlist version="2"></workflowlist>`), 0o644))

	_, err := Open(path, registry)
	require.Error(t, err)
}

func TestStoreEventsPublishOnSaveAndDelete(t *testing.T) {
	registry := testRegistry()
	path := filepath.Join(t.TempDir(), "workflows.xml")
	store, err := Open(path, registry)
	require.NoError(t, err)

	wf, err := Resolve(workflowDocument{Title: "evented"}, registry)
	require.NoError(t, err)
	require.NoError(t, store.Save(wf))

	select {
	case ev := <-store.Events():
		assert.Equal(t, WorkflowAdded, ev.Kind)
		assert.Equal(t, "evented", ev.Title)
	default:
		t.Fatal("expected a WorkflowAdded event")
	}

	require.NoError(t, store.Delete("evented"))
	select {
	case ev := <-store.Events():
		assert.Equal(t, WorkflowRemoved, ev.Kind)
	default:
		t.Fatal("expected a WorkflowRemoved event")
	}
}
