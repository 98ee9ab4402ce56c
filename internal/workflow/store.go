package workflow

import (
	"encoding/xml"
	"fmt"
	"os"
	"sync"

	"bqm/internal/tool"
)

// FailedWorkflow records one workflow entry that failed to resolve on
// load: the rest of the store still loads normally around it.
type FailedWorkflow struct {
	Title string
	Err   error
}

// EventKind distinguishes the two events Store emits.
type EventKind int

const (
	WorkflowAdded EventKind = iota
	WorkflowRemoved
)

// Event is published on Store.Events whenever Save or Delete changes the
// store's contents.
type Event struct {
	Kind  EventKind
	Title string
}

// Store persists a set of Workflows to a single XML file, matching
// digiKam's bqmworkflows.xml -- one document holding every saved
// template, loaded wholesale at startup and rewritten wholesale on
// every mutation.
type Store struct {
	path     string
	registry *tool.Registry
	events   chan Event

	mu        sync.Mutex
	workflows map[string]*Workflow
	failed    []FailedWorkflow
}

// Open loads path if it exists, or starts an empty store if it doesn't
// (a fresh install has no saved workflows, not an error). A workflow
// entry that fails to resolve -- unknown tool, version newer than the
// registered descriptor, invalid settings -- is set aside in Failed()
// instead of aborting the whole load; every other entry still loads.
func Open(path string, registry *tool.Registry) (*Store, error) {
	s := &Store{path: path, registry: registry, workflows: map[string]*Workflow{}, events: make(chan Event, 1)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workflow: read store %s: %w", path, err)
	}

	var doc storeDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("workflow: parse store %s: %w", path, err)
	}
	if doc.Version != "" && doc.Version != storeVersion {
		return nil, fmt.Errorf("workflow: store %s: unsupported workflowlist version %q", path, doc.Version)
	}
	for _, wd := range doc.Workflows {
		wf, err := Resolve(wd, registry)
		if err != nil {
			s.failed = append(s.failed, FailedWorkflow{Title: wd.Title, Err: err})
			continue
		}
		s.workflows[wf.Title] = wf
	}
	return s, nil
}

// List returns every stored workflow's title, in no particular order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.workflows))
	for name := range s.workflows {
		names = append(names, name)
	}
	return names
}

// Failed returns the workflows that could not be resolved at load time.
func (s *Store) Failed() []FailedWorkflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FailedWorkflow, len(s.failed))
	copy(out, s.failed)
	return out
}

// Events returns the channel Save/Delete publish changes on. The
// channel is buffered by one and sends are best-effort: a reader that
// falls behind misses intermediate events rather than blocking a save.
func (s *Store) Events() <-chan Event { return s.events }

func (s *Store) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// Get returns the workflow stored under title.
func (s *Store) Get(title string) (*Workflow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[title]
	return wf, ok
}

// Save inserts or replaces a workflow under its own title and persists
// the whole store, the same all-or-nothing write WorkflowManager::save
// performs.
func (s *Store) Save(wf *Workflow) error {
	s.mu.Lock()
	s.workflows[wf.Title] = wf
	err := s.flushLocked()
	s.mu.Unlock()
	if err == nil {
		s.publish(Event{Kind: WorkflowAdded, Title: wf.Title})
	}
	return err
}

// Delete removes a workflow by title and persists the store.
func (s *Store) Delete(title string) error {
	s.mu.Lock()
	delete(s.workflows, title)
	err := s.flushLocked()
	s.mu.Unlock()
	if err == nil {
		s.publish(Event{Kind: WorkflowRemoved, Title: title})
	}
	return err
}

func (s *Store) flushLocked() error {
	doc := storeDocument{Version: storeVersion}
	for _, wf := range s.workflows {
		doc.Workflows = append(doc.Workflows, wf.Document())
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("workflow: marshal store: %w", err)
	}
	if err := os.WriteFile(s.path, out, 0o644); err != nil {
		return fmt.Errorf("workflow: write store %s: %w", s.path, err)
	}
	return nil
}
