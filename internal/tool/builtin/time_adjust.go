package builtin

import (
	"context"
	"fmt"
	"time"

	"bqm/internal/tool"
)

const exifDateTimeOriginal = "Exif.Photo.DateTimeOriginal"
const exifDateTimeLayout = "2006:01:02 15:04:05"

// NewTimeAdjust returns the Metadata-group tool that shifts an item's
// capture timestamp by a fixed offset, matching digiKam's Time Adjust
// batch tool. It honors queue settings that forbid writing metadata back
// to the source file (NoMetadataWrite): the in-memory tag is still
// updated so a later tool in the chain observes the shifted time, but
// the tool itself never persists through the host's sidecar writer.
func NewTimeAdjust() tool.Instance {
	return &timeAdjustTool{base: base{
		name:    "TimeAdjust",
		version: 1,
		group:   tool.GroupMetadata,
		settings: tool.Settings{
			"offsetSeconds": tool.IntValue(0),
		},
	}}
}

type timeAdjustTool struct{ base }

func (t *timeAdjustTool) WithSettings(s tool.Settings) (tool.Instance, error) {
	clone := *t
	clone.settings = s.Clone()
	return &clone, nil
}

func (t *timeAdjustTool) Clone() tool.Instance {
	clone := *t
	clone.base = t.cloneBase()
	return &clone
}

func (t *timeAdjustTool) Apply(ctx context.Context, ac *tool.Context) (*tool.Context, error) {
	if err := ctx.Err(); err != nil {
		return ac, err
	}
	offset := time.Duration(t.settings.Int("offsetSeconds", 0)) * time.Second
	if offset == 0 {
		return ac, nil
	}

	raw, ok := ac.Meta[exifDateTimeOriginal]
	if !ok || raw == "" {
		return ac, nil
	}
	ts, err := time.Parse(exifDateTimeLayout, raw)
	if err != nil {
		return ac, fmt.Errorf("timeadjust: parse %s: %w", exifDateTimeOriginal, err)
	}
	ac.Meta[exifDateTimeOriginal] = ts.Add(offset).Format(exifDateTimeLayout)
	// ac.NoMetadataWrite only prevents the Task from asking the host to
	// persist the sidecar/EXIF block after the chain finishes; the
	// in-memory map is always kept current for downstream tools.
	return ac, nil
}
