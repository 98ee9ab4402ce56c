package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/h2non/bimg"

	"bqm/internal/tool"
)

var convertFormats = map[string]bimg.ImageType{
	"jpeg": bimg.JPEG,
	"jpg":  bimg.JPEG,
	"png":  bimg.PNG,
	"webp": bimg.WEBP,
	"tiff": bimg.TIFF,
	"tif":  bimg.TIFF,
	"gif":  bimg.GIF,
	"heif": bimg.HEIF,
}

// NewConvert returns the Convert-group tool that re-encodes an image into
// a target output format at a given quality.
func NewConvert() tool.Instance {
	return &convertTool{base: base{
		name:    "Convert",
		version: 1,
		group:   tool.GroupConvert,
		settings: tool.Settings{
			"format":  tool.StringValue("jpeg"),
			"quality": tool.IntValue(90),
		},
	}}
}

type convertTool struct{ base }

func (t *convertTool) WithSettings(s tool.Settings) (tool.Instance, error) {
	format := strings.ToLower(s.String("format", "jpeg"))
	if _, ok := convertFormats[format]; !ok {
		return nil, &tool.SettingsError{Tool: t.name, Key: "format", Reason: "unsupported output format " + format}
	}
	q := s.Int("quality", 90)
	if q < 1 || q > 100 {
		return nil, &tool.SettingsError{Tool: t.name, Key: "quality", Reason: "must be between 1 and 100"}
	}
	clone := *t
	clone.settings = s.Clone()
	return &clone, nil
}

// OutputSuffix reports the configured target format's extension, since
// Convert always changes the effective destination extension regardless
// of the source's own.
func (t *convertTool) OutputSuffix() string {
	return strings.ToLower(t.settings.String("format", "jpeg"))
}

func (t *convertTool) Clone() tool.Instance {
	clone := *t
	clone.base = t.cloneBase()
	return &clone
}

func (t *convertTool) Apply(ctx context.Context, ac *tool.Context) (*tool.Context, error) {
	if err := ctx.Err(); err != nil {
		return ac, err
	}
	format := strings.ToLower(t.settings.String("format", "jpeg"))
	quality := int(t.settings.Int("quality", 90))

	out, err := bimg.NewImage(ac.Image.Data).Process(bimg.Options{
		Type:    convertFormats[format],
		Quality: quality,
	})
	if err != nil {
		return ac, fmt.Errorf("convert: process: %w", err)
	}

	ac.Image.Data = out
	ac.Image.Format = format
	return ac, nil
}
