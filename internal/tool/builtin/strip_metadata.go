package builtin

import (
	"context"

	"bqm/internal/tool"
)

// NewStripMetadata returns the Metadata-group tool that removes all or a
// named subset of tags from an item, mirroring digiKam's "Remove
// Metadata" batch tool.
func NewStripMetadata() tool.Instance {
	return &stripMetadataTool{base: base{
		name:    "StripMetadata",
		version: 1,
		group:   tool.GroupMetadata,
		settings: tool.Settings{
			"keys": tool.MapValue(tool.Settings{}), // empty == strip everything
		},
	}}
}

type stripMetadataTool struct{ base }

func (t *stripMetadataTool) WithSettings(s tool.Settings) (tool.Instance, error) {
	if v, ok := s["keys"]; ok && v.Kind != tool.KindMap {
		return nil, &tool.SettingsError{Tool: t.name, Key: "keys", Reason: "must be a map of tag name to true"}
	}
	clone := *t
	clone.settings = s.Clone()
	return &clone, nil
}

func (t *stripMetadataTool) Clone() tool.Instance {
	clone := *t
	clone.base = t.cloneBase()
	return &clone
}

func (t *stripMetadataTool) Apply(ctx context.Context, ac *tool.Context) (*tool.Context, error) {
	if err := ctx.Err(); err != nil {
		return ac, err
	}
	keys := t.settings["keys"]
	if keys.Kind != tool.KindMap || len(keys.Map) == 0 {
		ac.Meta = tool.Metadata{}
		return ac, nil
	}
	for key := range keys.Map {
		delete(ac.Meta, key)
	}
	return ac, nil
}
