package builtin

import "bqm/internal/tool"

// RegisterAll installs every built-in tool descriptor into r. Called once
// at startup before any Workflow or Assignment is resolved. A collision
// here is always a programming error in this fixed, hand-written list,
// so it panics rather than asking main to handle an error that can only
// come from a typo.
func RegisterAll(r *tool.Registry) {
	descriptors := []tool.Descriptor{
		{Name: "Resize", Version: 1, Group: tool.GroupConvert, Factory: NewResize},
		{Name: "Convert", Version: 1, Group: tool.GroupConvert, Factory: NewConvert},
		{Name: "Rotate", Version: 1, Group: tool.GroupConvert, Factory: NewRotate},
		{Name: "WatermarkText", Version: 1, Group: tool.GroupDecorate, Factory: NewWatermarkText},
		{Name: "StripMetadata", Version: 1, Group: tool.GroupMetadata, Factory: NewStripMetadata},
		{Name: "TimeAdjust", Version: 1, Group: tool.GroupMetadata, Factory: NewTimeAdjust},
		{Name: "UserScript", Version: 1, Group: tool.GroupCustom, Factory: NewUserScript},
	}
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}
