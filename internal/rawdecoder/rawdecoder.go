// Package rawdecoder resolves a RAW source file into a displayable image
// per the queue's RawLoadingRule: either the camera's embedded preview
// JPEG or a full demosaic render, mirroring digiKam's RawEngine choice
// between "use embedded preview" and "use raw import settings".
package rawdecoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/bimg"

	"bqm/internal/bqmqueue"
	"bqm/internal/tool"
)

var rawExtensions = map[string]bool{
	".cr2": true, ".cr3": true, ".nef": true, ".arw": true, ".dng": true,
	".orf": true, ".rw2": true, ".pef": true, ".raf": true, ".mrw": true,
	".srw": true, ".rwl": true, ".x3f": true,
}

var jpegSOI = []byte{0xFF, 0xD8}
var jpegEOI = []byte{0xFF, 0xD9}

// Options configures the Decoder's quality/timeout tradeoffs.
type Options struct {
	MinPreviewWidth  int
	MinPreviewHeight int
	DemosaicTimeout  time.Duration
	Quality          int
	DcrawPath        string
}

// DefaultOptions matches digiKam's conservative defaults: prefer the
// embedded preview when it is large enough to be useful, otherwise fall
// back to demosaicing through an external tool.
func DefaultOptions() Options {
	return Options{
		MinPreviewWidth:  1024,
		MinPreviewHeight: 768,
		DemosaicTimeout:  30 * time.Second,
		Quality:          92,
		DcrawPath:        "dcraw",
	}
}

// Decoder implements hostiface.ImageDecoder for RAW and conventional
// source files alike; IsRaw gates which path Decode takes.
type Decoder struct {
	opts Options
}

func New(opts Options) *Decoder { return &Decoder{opts: opts} }

func (d *Decoder) IsRaw(path string) bool {
	return rawExtensions[strings.ToLower(filepath.Ext(path))]
}

// Decode produces a tool.Image from raw source bytes. For non-RAW files
// it trusts bimg to sniff the format directly; for RAW files it honors
// rule: RawUseEmbeddedJPEG extracts the camera preview, falling back to
// demosaicing only if no acceptable preview is embedded, while
// RawDemosaic always renders the full sensor data.
func (d *Decoder) Decode(path string, data []byte, rule bqmqueue.RawLoadingRule) (tool.Image, error) {
	if !d.IsRaw(path) {
		return d.decodeConventional(data)
	}

	if rule == bqmqueue.RawUseEmbeddedJPEG {
		if preview, ok := d.extractEmbeddedPreview(data); ok {
			if img, err := d.decodeConventional(preview); err == nil {
				return img, nil
			}
		}
	}
	return d.demosaic(path, data)
}

func (d *Decoder) decodeConventional(data []byte) (tool.Image, error) {
	img := bimg.NewImage(data)
	size, err := img.Size()
	if err != nil {
		return tool.Image{}, fmt.Errorf("rawdecoder: read size: %w", err)
	}
	meta, err := img.Metadata()
	format := "jpeg"
	if err == nil && meta.Type != "" {
		format = meta.Type
	}
	return tool.Image{Data: data, Format: format, Width: size.Width, Height: size.Height}, nil
}

// extractEmbeddedPreview scans the first 1MiB of a RAW file for a
// complete JPEG SOI..EOI span, the way digiKam reads the camera's
// embedded preview without a full demosaic pass.
func (d *Decoder) extractEmbeddedPreview(data []byte) ([]byte, bool) {
	window := data
	if len(window) > 1<<20 {
		window = window[:1<<20]
	}
	soi := bytes.Index(window, jpegSOI)
	if soi == -1 {
		return nil, false
	}
	eoi := bytes.LastIndex(window[soi:], jpegEOI)
	if eoi == -1 {
		return nil, false
	}
	preview := window[soi : soi+eoi+2]

	img := bimg.NewImage(preview)
	size, err := img.Size()
	if err != nil || size.Width < d.opts.MinPreviewWidth || size.Height < d.opts.MinPreviewHeight {
		return nil, false
	}
	return preview, true
}

// demosaic renders full sensor data to JPEG by shelling out to dcraw,
// the portable fallback digiKam itself uses when LibRaw's in-process
// path isn't linked in.
func (d *Decoder) demosaic(path string, data []byte) (tool.Image, error) {
	dcrawPath := d.opts.DcrawPath
	if dcrawPath == "" {
		dcrawPath = "dcraw"
	}
	if _, err := exec.LookPath(dcrawPath); err != nil {
		return tool.Image{}, fmt.Errorf("rawdecoder: dcraw not available for full render of %s: %w", path, err)
	}

	tmp, err := os.CreateTemp("", "rawdecoder-*"+filepath.Ext(path))
	if err != nil {
		return tool.Image{}, fmt.Errorf("rawdecoder: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return tool.Image{}, fmt.Errorf("rawdecoder: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return tool.Image{}, fmt.Errorf("rawdecoder: close temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.opts.DemosaicTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, dcrawPath, "-c", "-q", "3", "-w", tmp.Name())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return tool.Image{}, fmt.Errorf("rawdecoder: dcraw failed: %w: %s", err, stderr.String())
	}

	jpegData, err := bimg.NewImage(stdout.Bytes()).Process(bimg.Options{Quality: d.opts.Quality, Type: bimg.JPEG})
	if err != nil {
		return tool.Image{}, fmt.Errorf("rawdecoder: convert demosaiced PPM to JPEG: %w", err)
	}
	return d.decodeConventional(jpegData)
}
