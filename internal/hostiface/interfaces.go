// Package hostiface defines the narrow interfaces a Task needs from its
// surrounding environment: reading/writing files, decoding RAW sources,
// and reading/writing image metadata. Keeping these as interfaces lets
// internal/task stay free of any concrete storage or codec dependency,
// the same seam digiKam draws between Task and DImg/DMetadata/IO jobs.
package hostiface

import (
	"bqm/internal/bqmqueue"
	"bqm/internal/tool"
)

// FileOps is the filesystem surface a Task needs: reading the source,
// writing the destination, and checking for conflicts before it does.
type FileOps interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Exists(path string) bool
	MkdirAll(dir string) error
	Remove(path string) error

	// Rename moves oldPath to newPath, atomically when both share a
	// filesystem and via copy-then-unlink otherwise, so a Task never
	// leaves a half-written file at newPath for a reader to observe.
	Rename(oldPath, newPath string) error
}

// ImageDecoder turns raw source bytes into a tool.Image, choosing the
// embedded-JPEG or full-demosaic path for RAW sources per the queue's
// RawLoadingRule.
type ImageDecoder interface {
	IsRaw(path string) bool
	Decode(path string, data []byte, rule bqmqueue.RawLoadingRule) (tool.Image, error)
}

// ImageEncoder serializes a tool.Image back to bytes suitable for
// WriteFile, in the format the image currently carries.
type ImageEncoder interface {
	Encode(img tool.Image) ([]byte, error)
}

// MetadataStore reads and writes the tag set accompanying a source file,
// including any XMP sidecar digiKam would otherwise maintain alongside
// the image (DMetadata::sidecarPath).
type MetadataStore interface {
	ReadTags(path string, data []byte) (tool.Metadata, error)
	WriteTags(path string, tags tool.Metadata) error
	SidecarPath(imagePath string) string
}

// Host bundles every capability a Task needs from its environment.
type Host struct {
	Files    FileOps
	Decoder  ImageDecoder
	Encoder  ImageEncoder
	Metadata MetadataStore
}
