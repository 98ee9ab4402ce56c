// Package workflow implements the Workflow Store (C5): named,
// XML-persisted Assignment templates a Queue can be seeded from,
// matching digiKam's WorkflowManager/Workflow pair.
package workflow

import (
	"fmt"

	"bqm/internal/assignment"
	"bqm/internal/bqmqueue"
	"bqm/internal/tool"
)

// Workflow is a named, reusable tool chain template: an Assignment plus
// the queue settings and bookkeeping (description, author) the UI's
// workflow list shows.
type Workflow struct {
	Title       string
	Description string
	Author      string
	QSettings   bqmqueue.Settings
	Chain       *assignment.Assignment
}

// UnresolvedStepError reports why a single workflow failed to resolve,
// identifying the step that broke it.
type UnresolvedStepError struct {
	Title string
	Index int
	Group tool.Group
	Tool  string
	Err   error
}

func (e *UnresolvedStepError) Error() string {
	return fmt.Sprintf("workflow %q: step %d (%s/%s): %v", e.Title, e.Index, e.Group, e.Tool, e.Err)
}

func (e *UnresolvedStepError) Unwrap() error { return e.Err }

// Resolve rebuilds a Workflow's chain from its persisted tool-name/
// settings pairs against a live Registry, the step WorkflowManager::load
// performs before handing a workflow to a queue (resolving each
// BatchToolSet entry back into a constructed tool). A step whose
// (group, name) isn't registered, or whose stored version is newer than
// the registered descriptor's, fails the whole workflow -- it is never
// partially loaded.
func Resolve(doc workflowDocument, registry *tool.Registry) (*Workflow, error) {
	chain := assignment.New()
	for _, step := range doc.Tools.Steps {
		group := tool.Group(step.Group)
		descriptor, ok := registry.Find(group, step.Tool)
		if !ok {
			return nil, &UnresolvedStepError{Title: doc.Title, Index: step.Index, Group: group, Tool: step.Tool,
				Err: &tool.UnknownToolError{Name: step.Tool}}
		}
		if step.Version > descriptor.Version {
			return nil, &UnresolvedStepError{Title: doc.Title, Index: step.Index, Group: group, Tool: step.Tool,
				Err: fmt.Errorf("stored version %d is newer than registered version %d", step.Version, descriptor.Version)}
		}
		inst := descriptor.Factory()
		configured, err := inst.WithSettings(step.Settings)
		if err != nil {
			return nil, &UnresolvedStepError{Title: doc.Title, Index: step.Index, Group: group, Tool: step.Tool, Err: err}
		}
		chain.Append(configured)
	}
	return &Workflow{
		Title:       doc.Title,
		Description: doc.Description,
		Author:      doc.Author,
		QSettings:   doc.QSettings.toSettings(),
		Chain:       chain,
	}, nil
}

// Document converts a live Workflow back into its persistable form, the
// inverse of Resolve.
func (w *Workflow) Document() workflowDocument {
	doc := workflowDocument{
		Title:       w.Title,
		Description: w.Description,
		Author:      w.Author,
		QSettings:   toQueueSettingsXML(w.QSettings),
	}
	for _, step := range w.Chain.Steps() {
		doc.Tools.Steps = append(doc.Tools.Steps, toolStep{
			Index:    step.Index,
			Group:    int(step.Instance.Group()),
			Tool:     step.Instance.Name(),
			Version:  step.Instance.Version(),
			Settings: step.Instance.Settings(),
		})
	}
	return doc
}
