// Package bqmqueue implements the Queue (C4): an ordered list of items,
// its resolved Assignment, and the per-queue settings that govern how
// the Worker Pool processes it -- digiKam's QueueSettings made explicit.
package bqmqueue

// ConflictRule decides what happens when a processed item's destination
// path already exists on disk.
type ConflictRule int

const (
	ConflictOverwrite ConflictRule = iota
	ConflictDifferentName
	ConflictSkip
)

// RawLoadingRule decides how RAW source files are decoded before the
// chain runs.
type RawLoadingRule int

const (
	RawUseEmbeddedJPEG RawLoadingRule = iota
	RawDemosaic
)

// RenamingRule decides the destination file name scheme.
type RenamingRule int

const (
	RenamingUseOriginal RenamingRule = iota
	RenamingCustomPattern
)

// Settings mirrors QueueSettings: the knobs that apply to every item in
// a queue, independent of which tools its Assignment runs.
type Settings struct {
	UseMultiCoreCPU    bool
	SaveAsNewVersion   bool
	ExifSetOrientation bool
	UseOriginalAlbum   bool
	WorkingDir         string
	ConflictRule       ConflictRule
	RenamingRule       RenamingRule
	RenamingPattern    string
	RawLoadingRule     RawLoadingRule
	NoMetadataWrite    bool
}

// DefaultSettings matches digiKam's QueueSettings default constructor:
// overwrite disabled (fail-safe differently-named output), multi-core
// enabled, EXIF orientation normalized on save.
func DefaultSettings() Settings {
	return Settings{
		UseMultiCoreCPU:    true,
		SaveAsNewVersion:   false,
		ExifSetOrientation: true,
		UseOriginalAlbum:   false,
		ConflictRule:       ConflictDifferentName,
		RenamingRule:       RenamingUseOriginal,
		RawLoadingRule:     RawUseEmbeddedJPEG,
		NoMetadataWrite:    false,
	}
}
