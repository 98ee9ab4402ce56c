package builtin

import (
	"context"
	"fmt"

	"github.com/h2non/bimg"

	"bqm/internal/tool"
)

// NewResize returns the Convert-group tool that rescales an image to fit
// within a bounding box, preserving aspect ratio unless "stretch" is set.
func NewResize() tool.Instance {
	return &resizeTool{base: base{
		name:    "Resize",
		version: 1,
		group:   tool.GroupConvert,
		settings: tool.Settings{
			"maxWidth":  tool.IntValue(1920),
			"maxHeight": tool.IntValue(1080),
			"stretch":   tool.BoolValue(false),
		},
	}}
}

type resizeTool struct{ base }

func (t *resizeTool) WithSettings(s tool.Settings) (tool.Instance, error) {
	w := s.Int("maxWidth", 0)
	h := s.Int("maxHeight", 0)
	if w <= 0 || h <= 0 {
		return nil, &tool.SettingsError{Tool: t.name, Key: "maxWidth/maxHeight", Reason: "must be positive"}
	}
	clone := *t
	clone.settings = s.Clone()
	return &clone, nil
}

func (t *resizeTool) Clone() tool.Instance {
	clone := *t
	clone.base = t.cloneBase()
	return &clone
}

func (t *resizeTool) Apply(ctx context.Context, ac *tool.Context) (*tool.Context, error) {
	if err := ctx.Err(); err != nil {
		return ac, err
	}
	w := int(t.settings.Int("maxWidth", 1920))
	h := int(t.settings.Int("maxHeight", 1080))
	stretch := t.settings.Bool("stretch", false)

	img := bimg.NewImage(ac.Image.Data)
	size, err := img.Size()
	if err != nil {
		return ac, fmt.Errorf("resize: read size: %w", err)
	}

	targetW, targetH := w, h
	if !stretch {
		ratio := float64(size.Width) / float64(size.Height)
		if float64(w)/float64(h) > ratio {
			targetW = int(float64(h) * ratio)
		} else {
			targetH = int(float64(w) / ratio)
		}
	}

	out, err := img.Process(bimg.Options{Width: targetW, Height: targetH, Force: stretch})
	if err != nil {
		return ac, fmt.Errorf("resize: process: %w", err)
	}

	ac.Image.Data = out
	ac.Image.Width = targetW
	ac.Image.Height = targetH
	return ac, nil
}
