package workflow

import (
	"encoding/xml"

	"bqm/internal/bqmqueue"
	"bqm/internal/tool"
)

// storeVersion is the only supported <workflowlist> root version; Open
// rejects anything else outright rather than guessing at a migration.
const storeVersion = "1"

// workflowDocument is the on-disk XML shape of one workflow, stored as a
// <workflow> child of the store's <workflowlist> root. It stays decoupled
// from Workflow itself so persistence concerns never leak into the live,
// registry-resolved type.
type workflowDocument struct {
	Title       string          `xml:"title,attr"`
	Description string          `xml:"description,attr,omitempty"`
	Author      string          `xml:"author,attr,omitempty"`
	QSettings   queueSettingsXML `xml:"queueSettings"`
	Tools       toolListXML     `xml:"tools"`
}

// toolListXML wraps a workflow's ordered tool steps in their own
// <tools> element, matching the literal nesting spec.md's persisted-state
// layout describes instead of a flat list of <tool> siblings.
type toolListXML struct {
	Steps []toolStep `xml:"tool"`
}

type toolStep struct {
	Index    int           `xml:"index,attr"`
	Group    int           `xml:"group,attr"`
	Tool     string        `xml:"name,attr"`
	Version  int           `xml:"version,attr"`
	Settings tool.Settings `xml:"settings"`
}

// queueSettingsXML is bqmqueue.Settings' persisted form: plain fields
// mirror the live struct one for one, so Save/Resolve round-trip it
// without any lossy projection.
type queueSettingsXML struct {
	UseMultiCoreCPU    bool   `xml:"useMultiCoreCPU,attr"`
	SaveAsNewVersion   bool   `xml:"saveAsNewVersion,attr"`
	ExifSetOrientation bool   `xml:"exifSetOrientation,attr"`
	UseOriginalAlbum   bool   `xml:"useOriginalAlbum,attr"`
	WorkingDir         string `xml:"workingDir,attr,omitempty"`
	ConflictRule       int    `xml:"conflictRule,attr"`
	RenamingRule       int    `xml:"renamingRule,attr"`
	RenamingPattern    string `xml:"renamingPattern,attr,omitempty"`
	RawLoadingRule     int    `xml:"rawLoadingRule,attr"`
	NoMetadataWrite    bool   `xml:"noMetadataWrite,attr"`
}

func toQueueSettingsXML(s bqmqueue.Settings) queueSettingsXML {
	return queueSettingsXML{
		UseMultiCoreCPU:    s.UseMultiCoreCPU,
		SaveAsNewVersion:   s.SaveAsNewVersion,
		ExifSetOrientation: s.ExifSetOrientation,
		UseOriginalAlbum:   s.UseOriginalAlbum,
		WorkingDir:         s.WorkingDir,
		ConflictRule:       int(s.ConflictRule),
		RenamingRule:       int(s.RenamingRule),
		RenamingPattern:    s.RenamingPattern,
		RawLoadingRule:     int(s.RawLoadingRule),
		NoMetadataWrite:    s.NoMetadataWrite,
	}
}

func (q queueSettingsXML) toSettings() bqmqueue.Settings {
	return bqmqueue.Settings{
		UseMultiCoreCPU:    q.UseMultiCoreCPU,
		SaveAsNewVersion:   q.SaveAsNewVersion,
		ExifSetOrientation: q.ExifSetOrientation,
		UseOriginalAlbum:   q.UseOriginalAlbum,
		WorkingDir:         q.WorkingDir,
		ConflictRule:       bqmqueue.ConflictRule(q.ConflictRule),
		RenamingRule:       bqmqueue.RenamingRule(q.RenamingRule),
		RenamingPattern:    q.RenamingPattern,
		RawLoadingRule:     bqmqueue.RawLoadingRule(q.RawLoadingRule),
		NoMetadataWrite:    q.NoMetadataWrite,
	}
}

// storeDocument is the whole store file: <workflowlist version="1">.
type storeDocument struct {
	XMLName   xml.Name           `xml:"workflowlist"`
	Version   string             `xml:"version,attr"`
	Workflows []workflowDocument `xml:"workflow"`
}
