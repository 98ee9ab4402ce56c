// Package exifmeta reads and writes the tag set a Task's metadata tools
// operate on. Reading walks the embedded EXIF block with goexif, the way
// the teacher's asset pipeline already does; writing persists changes to
// an XMP-style sidecar file next to the source, since no in-pack library
// can rewrite EXIF inside a JPEG/TIFF container in place (see
// DESIGN.md).
package exifmeta

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"bqm/internal/tool"
)

func init() {
	exif.RegisterParsers()
}

// tagsOfInterest is the subset of EXIF fields the built-in tools read or
// write; digiKam's DMetadata exposes hundreds, but the queue manager's
// own tools only ever touch these.
var tagsOfInterest = []exif.FieldName{
	exif.DateTime,
	exif.DateTimeOriginal,
	exif.Make,
	exif.Model,
	exif.Orientation,
	exif.LensModel,
}

var fieldToTagName = map[exif.FieldName]string{
	exif.DateTime:         "Exif.Image.DateTime",
	exif.DateTimeOriginal: "Exif.Photo.DateTimeOriginal",
	exif.Make:             "Exif.Image.Make",
	exif.Model:            "Exif.Image.Model",
	exif.Orientation:      "Exif.Image.Orientation",
	exif.LensModel:        "Exif.Photo.LensModel",
}

// Store implements hostiface.MetadataStore over goexif reads and an XML
// sidecar for writes.
type Store struct{}

func New() *Store { return &Store{} }

// ReadTags decodes the EXIF block embedded in data, falling back to an
// empty tag set for files with no EXIF (matching digiKam's tolerant
// behavior: a missing block is not an error).
func (s *Store) ReadTags(path string, data []byte) (tool.Metadata, error) {
	meta := tool.Metadata{}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		if sidecarMeta, sidecarErr := s.readSidecar(path); sidecarErr == nil {
			for k, v := range sidecarMeta {
				meta[k] = v
			}
		}
		return meta, nil
	}

	for _, field := range tagsOfInterest {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		if str, err := tag.StringVal(); err == nil {
			meta[fieldToTagName[field]] = strings.Trim(str, "\"")
		}
	}

	if sidecarMeta, err := s.readSidecar(path); err == nil {
		for k, v := range sidecarMeta {
			meta[k] = v // sidecar overrides embedded, same precedence as DMetadata
		}
	}
	return meta, nil
}

// WriteTags persists tags to the sidecar file for path, creating it if
// absent. The embedded EXIF block in the source file itself is left
// untouched; a consumer that needs tags baked into the file reads the
// sidecar alongside it, the same contract digiKam's "write to sidecar
// only" metadata setting provides.
func (s *Store) WriteTags(path string, tags tool.Metadata) error {
	doc := sidecarDocument{Tags: make([]sidecarTag, 0, len(tags))}
	for k, v := range tags {
		doc.Tags = append(doc.Tags, sidecarTag{Name: k, Value: v})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("exifmeta: marshal sidecar: %w", err)
	}
	return os.WriteFile(s.SidecarPath(path), out, 0o644)
}

// SidecarPath returns the path of the XMP-style sidecar for imagePath,
// digiKam's convention of appending ".xmp" to the full original name
// (DMetadata::sidecarPath) rather than replacing the extension.
func (s *Store) SidecarPath(imagePath string) string {
	return imagePath + ".xmp"
}

func (s *Store) readSidecar(imagePath string) (tool.Metadata, error) {
	data, err := os.ReadFile(s.SidecarPath(imagePath))
	if err != nil {
		return nil, err
	}
	var doc sidecarDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("exifmeta: parse sidecar: %w", err)
	}
	meta := make(tool.Metadata, len(doc.Tags))
	for _, t := range doc.Tags {
		meta[t.Name] = t.Value
	}
	return meta, nil
}

type sidecarDocument struct {
	XMLName xml.Name     `xml:"bqm-sidecar"`
	Tags    []sidecarTag `xml:"tag"`
}

type sidecarTag struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}
