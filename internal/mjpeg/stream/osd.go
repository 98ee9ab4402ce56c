package stream

import "fmt"

// OSDSettings controls the on-screen caption overlaid on each frame,
// trimmed from digiKam's full print-flag set (title/tags/rating/GPS/...)
// to the single free-text line this generator composes from whichever
// fields are enabled.
type OSDSettings struct {
	PrintTitle   bool
	PrintDate    bool
	MinOSDWidth  int
	MinOSDHeight int
}

// DefaultOSDSettings enables the caption only above the resolution
// digiKam's MjpegFrameTask requires (>= 1024x576) before it bothers
// rendering text atop the frame.
func DefaultOSDSettings() OSDSettings {
	return OSDSettings{PrintTitle: true, PrintDate: false, MinOSDWidth: 1024, MinOSDHeight: 576}
}

// Caption builds the overlay text for one image, or "" if nothing is
// enabled or the frame is too small to bother.
func (o OSDSettings) Caption(frameW, frameH int, title string, date string) string {
	if frameW < o.MinOSDWidth || frameH < o.MinOSDHeight {
		return ""
	}
	caption := ""
	if o.PrintTitle && title != "" {
		caption = title
	}
	if o.PrintDate && date != "" {
		if caption != "" {
			caption = fmt.Sprintf("%s - %s", caption, date)
		} else {
			caption = date
		}
	}
	return caption
}

// EndOfStreamCaption is the fixed message digiKam overlays on the final
// synthesized frame once a non-looping stream exhausts its input list.
const EndOfStreamCaption = "End of stream"

// UnavailableCaption is shown on the broken-image placeholder frame
// substituted for a source image isn't able to be decoded.
const UnavailableCaption = "image unavailable"
