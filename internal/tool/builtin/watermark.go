package builtin

import (
	"context"
	"fmt"

	"github.com/h2non/bimg"

	"bqm/internal/tool"
)

// NewWatermarkText returns the Decorate-group tool that overlays a text
// string onto the image, matching digiKam's text-watermark batch tool.
func NewWatermarkText() tool.Instance {
	return &watermarkTool{base: base{
		name:    "WatermarkText",
		version: 1,
		group:   tool.GroupDecorate,
		settings: tool.Settings{
			"text":    tool.StringValue(""),
			"opacity": tool.FloatValue(0.5),
			"corner":  tool.StringValue("bottom-right"),
		},
	}}
}

type watermarkTool struct{ base }

// watermarkCorners lists the accepted corner values. bimg positions a
// text watermark by margin alone, so the corner only selects the margin
// (0 for "center", 10 otherwise); it does not change which edge the
// text is placed against.
var watermarkCorners = map[string]bool{
	"top-left": true, "top-right": true, "bottom-left": true, "bottom-right": true, "center": true,
}

func (t *watermarkTool) WithSettings(s tool.Settings) (tool.Instance, error) {
	if s.String("text", "") == "" {
		return nil, &tool.SettingsError{Tool: t.name, Key: "text", Reason: "must not be empty"}
	}
	op := s.Float("opacity", 0.5)
	if op < 0 || op > 1 {
		return nil, &tool.SettingsError{Tool: t.name, Key: "opacity", Reason: "must be between 0 and 1"}
	}
	corner := s.String("corner", "bottom-right")
	if !watermarkCorners[corner] {
		return nil, &tool.SettingsError{Tool: t.name, Key: "corner", Reason: "unknown corner " + corner}
	}
	clone := *t
	clone.settings = s.Clone()
	return &clone, nil
}

func (t *watermarkTool) Clone() tool.Instance {
	clone := *t
	clone.base = t.cloneBase()
	return &clone
}

func (t *watermarkTool) Apply(ctx context.Context, ac *tool.Context) (*tool.Context, error) {
	if err := ctx.Err(); err != nil {
		return ac, err
	}
	text := t.settings.String("text", "")
	opacity := t.settings.Float("opacity", 0.5)
	margin := marginForCorner(t.settings.String("corner", "bottom-right"))

	out, err := bimg.NewImage(ac.Image.Data).Watermark(bimg.Watermark{
		Text:        text,
		Opacity:     float32(opacity),
		Width:       200,
		DPI:         100,
		Margin:      margin,
		Font:        "sans bold 12",
		NoReplicate: true,
	})
	if err != nil {
		return ac, fmt.Errorf("watermark: process: %w", err)
	}
	ac.Image.Data = out
	return ac, nil
}

func marginForCorner(corner string) int {
	if corner == "center" {
		return 0
	}
	return 10
}
