package builtin

import (
	"context"
	"fmt"

	"github.com/h2non/bimg"

	"bqm/internal/tool"
)

var rotateAngles = map[int64]bimg.Angle{
	0:   bimg.D0,
	90:  bimg.D90,
	180: bimg.D180,
	270: bimg.D270,
}

// NewRotate returns the Convert-group tool that rotates an image by a
// fixed angle, or auto-rotates from the Exif orientation tag when
// "useExifOrientation" is set.
func NewRotate() tool.Instance {
	return &rotateTool{base: base{
		name:    "Rotate",
		version: 1,
		group:   tool.GroupConvert,
		settings: tool.Settings{
			"angle":              tool.IntValue(90),
			"useExifOrientation": tool.BoolValue(true),
		},
	}}
}

type rotateTool struct{ base }

func (t *rotateTool) WithSettings(s tool.Settings) (tool.Instance, error) {
	angle := s.Int("angle", 90)
	if _, ok := rotateAngles[angle]; !ok {
		return nil, &tool.SettingsError{Tool: t.name, Key: "angle", Reason: "must be one of 0, 90, 180, 270"}
	}
	clone := *t
	clone.settings = s.Clone()
	return &clone, nil
}

func (t *rotateTool) Clone() tool.Instance {
	clone := *t
	clone.base = t.cloneBase()
	return &clone
}

func (t *rotateTool) Apply(ctx context.Context, ac *tool.Context) (*tool.Context, error) {
	if err := ctx.Err(); err != nil {
		return ac, err
	}
	angle := t.settings.Int("angle", 90)
	if t.settings.Bool("useExifOrientation", true) {
		angle = angleFromOrientation(ac.Meta["Exif.Image.Orientation"])
	}
	if angle == 0 {
		return ac, nil
	}

	out, err := bimg.NewImage(ac.Image.Data).Rotate(rotateAngles[angle])
	if err != nil {
		return ac, fmt.Errorf("rotate: process: %w", err)
	}
	ac.Image.Data = out
	if angle == 90 || angle == 270 {
		ac.Image.Width, ac.Image.Height = ac.Image.Height, ac.Image.Width
	}
	ac.Meta["Exif.Image.Orientation"] = "1"
	return ac, nil
}

// angleFromOrientation maps the Exif orientation tag (1-8) to the
// rotation angle needed to display the image upright, ignoring the
// mirrored variants (2, 4, 5, 7) since the built-in tool rotates only.
func angleFromOrientation(orientation string) int64 {
	switch orientation {
	case "3":
		return 180
	case "6":
		return 90
	case "8":
		return 270
	default:
		return 0
	}
}
