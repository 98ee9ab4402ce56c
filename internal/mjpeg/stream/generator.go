package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/h2non/bimg"
)

// Loader resolves one input path to its raw source bytes; the generator
// neither knows nor cares whether that's local disk, object storage, or
// an already-decoded preview cache entry.
type Loader func(path string) ([]byte, error)

// Frame is one encoded JPEG ready to hand to the server for broadcast.
type Frame struct {
	JPEG []byte
}

// Generator produces the continuous frame sequence for one streaming
// run: transition-then-effect per input image, looping the whole list
// if configured, matching MjpegFrameTask::run's two-stage loop.
type Generator struct {
	settings Settings
	load     Loader
}

func New(settings Settings, load Loader) *Generator {
	return &Generator{settings: settings, load: load}
}

// transitionFrameCount is fixed at half a second's worth of frames,
// digiKam's default "fast" transition duration.
func (g *Generator) transitionFrameCount() int {
	n := g.settings.Rate / 2
	if n < 1 {
		n = 1
	}
	return n
}

// Run streams frames to out until ctx is canceled or (when Loop is
// false) the input list is exhausted, at which point it emits the
// end-of-stream frame and closes out. It never blocks past ctx
// cancellation for longer than one frame interval.
func (g *Generator) Run(ctx context.Context, out chan<- Frame) error {
	defer close(out)

	if len(g.settings.InputImages) == 0 {
		return fmt.Errorf("mjpeg stream: no input images configured")
	}

	interval := time.Second / time.Duration(maxInt(g.settings.Rate, 1))
	var previous []byte

	emit := func(data []byte) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- Frame{JPEG: data}:
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		return nil
	}

	for {
		for i, path := range g.settings.InputImages {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			current, err := g.loadOrPlaceholder(path)
			if err != nil {
				return err
			}

			if i > 0 || previous != nil {
				frames, err := g.renderTransition(previous, current)
				if err != nil {
					return err
				}
				for _, f := range frames {
					if err := emit(f); err != nil {
						return err
					}
				}
			}

			effectFrames, err := g.renderEffect(current)
			if err != nil {
				return err
			}
			for _, f := range effectFrames {
				if err := emit(f); err != nil {
					return err
				}
			}

			previous = current
		}

		if !g.settings.Loop {
			break
		}
	}

	endFrame, err := g.renderCaption(previous, EndOfStreamCaption)
	if err != nil {
		return err
	}
	return emit(endFrame)
}

func (g *Generator) loadOrPlaceholder(path string) ([]byte, error) {
	data, err := g.load(path)
	if err != nil {
		return g.renderCaption(brokenImagePlaceholder(g.settings.OutputSize), UnavailableCaption)
	}
	resized, err := bimg.NewImage(data).Process(bimg.Options{
		Width:  g.settings.OutputSize.Width,
		Height: g.settings.OutputSize.Height,
		Crop:   true,
		Embed:  true,
		Type:   bimg.JPEG,
	})
	if err != nil {
		return g.renderCaption(brokenImagePlaceholder(g.settings.OutputSize), UnavailableCaption)
	}
	return resized, nil
}

// renderTransition produces the short cross-fade/slide bridging the
// previous frame into the current one. TransitionNone emits nothing: the
// cut is instant.
func (g *Generator) renderTransition(from, to []byte) ([][]byte, error) {
	if g.settings.Transition == TransitionNone || from == nil {
		return nil, nil
	}
	count := g.transitionFrameCount()
	frames := make([][]byte, 0, count)
	for i := 1; i <= count; i++ {
		t := float32(i) / float32(count)
		frame, err := g.blend(from, to, t)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// blend composites "to" over "from" at opacity t. Both TransitionFade
// and TransitionSlideLeft render as this plain alpha cross-dissolve; no
// pixel-offset slide is performed.
func (g *Generator) blend(from, to []byte, t float32) ([]byte, error) {
	out, err := bimg.NewImage(to).Watermark(bimg.WatermarkImage{
		Left:    0,
		Top:     0,
		Buf:     from,
		Opacity: 1 - t,
	})
	if err != nil {
		return nil, fmt.Errorf("mjpeg stream: blend transition: %w", err)
	}
	return out, nil
}

// renderEffect produces FramesPerImage() frames holding img on screen,
// applying a slow zoom for EffectZoomIn/Out and a static hold for
// EffectNone.
func (g *Generator) renderEffect(img []byte) ([][]byte, error) {
	count := g.settings.FramesPerImage()
	if count < 1 {
		count = 1
	}
	frames := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if g.settings.Effect == EffectNone {
			frames = append(frames, img)
			continue
		}
		progress := float64(i) / float64(count)
		scale := 1.0
		switch g.settings.Effect {
		case EffectZoomIn:
			scale = 1.0 + 0.15*progress
		case EffectZoomOut:
			scale = 1.15 - 0.15*progress
		}
		frame, err := g.zoom(img, scale)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func (g *Generator) zoom(img []byte, scale float64) ([]byte, error) {
	w := int(float64(g.settings.OutputSize.Width) * scale)
	h := int(float64(g.settings.OutputSize.Height) * scale)
	zoomed, err := bimg.NewImage(img).Process(bimg.Options{Width: w, Height: h})
	if err != nil {
		return nil, fmt.Errorf("mjpeg stream: zoom effect: %w", err)
	}
	out, err := bimg.NewImage(zoomed).Process(bimg.Options{
		Width:   g.settings.OutputSize.Width,
		Height:  g.settings.OutputSize.Height,
		Crop:    true,
		Gravity: bimg.GravityCentre,
		Type:    bimg.JPEG,
	})
	if err != nil {
		return nil, fmt.Errorf("mjpeg stream: zoom crop: %w", err)
	}
	return out, nil
}

func (g *Generator) renderCaption(img []byte, caption string) ([]byte, error) {
	if g.settings.OutputSize.Width < g.settings.OSD.MinOSDWidth || g.settings.OutputSize.Height < g.settings.OSD.MinOSDHeight {
		return img, nil
	}
	out, err := bimg.NewImage(img).Watermark(bimg.Watermark{
		Text:    caption,
		Font:    "sans bold 16",
		Margin:  20,
		Opacity: 0.85,
		Width:   g.settings.OutputSize.Width / 2,
		DPI:     150,
	})
	if err != nil {
		return img, nil // caption is cosmetic: never fail the stream over it
	}
	return out, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
