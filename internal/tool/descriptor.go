package tool

import "sort"

// Group classifies a tool the way the queue manager's assignment editor
// groups its palette: Convert tools change pixel data or geometry,
// Metadata tools change tags/sidecars without necessarily touching
// pixels, Decorate overlays visual elements, and Custom wraps an
// external command.
type Group int

const (
	GroupConvert Group = iota
	GroupMetadata
	GroupDecorate
	GroupCustom
)

func (g Group) String() string {
	switch g {
	case GroupConvert:
		return "Convert"
	case GroupMetadata:
		return "Metadata"
	case GroupDecorate:
		return "Decorate"
	case GroupCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Descriptor is the Tool Registry's entry for one tool implementation:
// its identity, version, group, and the factory that produces a fresh
// Instance. Descriptors are registered once at startup and never mutate.
type Descriptor struct {
	Name    string
	Version int
	Group   Group
	// Factory builds a new Instance carrying the tool's default settings.
	Factory func() Instance
}

// regKey is the Registry invariant's real identity: (group, name). Two
// tools in different groups may share a name, and the registry must
// keep them distinct entries.
type regKey struct {
	Group Group
	Name  string
}

// Registry maps (group, name) to a Descriptor. It is the Tool Registry
// (C1): the single place an Assignment or the Workflow Store consults to
// resolve a tool into something runnable.
type Registry struct {
	entries map[regKey]Descriptor
	visible map[regKey]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[regKey]Descriptor), visible: make(map[regKey]bool)}
}

// Register adds a tool descriptor. It panics on a nil Factory since a
// registry entry with no way to build an instance is always a
// programming error, never a runtime condition to recover from. It
// returns a *DuplicateToolError if (group, name) is already registered;
// registration is single-threaded at startup, so callers that know
// their descriptors are collision-free (built-in registration) can
// safely ignore a nil-impossible error, but a plug-in loader should
// check it.
func (r *Registry) Register(d Descriptor) error {
	if d.Factory == nil {
		panic("tool: Register called with nil Factory for " + d.Name)
	}
	key := regKey{Group: d.Group, Name: d.Name}
	if _, exists := r.entries[key]; exists {
		return &DuplicateToolError{Group: d.Group, Name: d.Name}
	}
	r.entries[key] = d
	r.visible[key] = true
	return nil
}

// Find returns the descriptor registered under (group, name).
func (r *Registry) Find(group Group, name string) (Descriptor, bool) {
	d, ok := r.entries[regKey{Group: group, Name: name}]
	return d, ok
}

// Lookup returns the descriptor registered under name, regardless of
// group, for call sites that only carry a bare tool name (workflow
// steps, HTTP requests). If the same name is registered in more than
// one group, the lowest-numbered group wins, matching List's ordering.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	var found Descriptor
	ok := false
	for key, d := range r.entries {
		if key.Name != name {
			continue
		}
		if !ok || key.Group < found.Group {
			found = d
			ok = true
		}
	}
	return found, ok
}

// New builds a fresh Instance for name via its registered Factory,
// resolving name the same way Lookup does.
func (r *Registry) New(name string) (Instance, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return d.Factory(), nil
}

// List returns every registered descriptor in stable order: by group,
// then by name within a group, matching the palette ordering the
// assignment editor presents.
func (r *Registry) List() []Descriptor {
	keys := make([]regKey, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Group != keys[j].Group {
			return keys[i].Group < keys[j].Group
		}
		return keys[i].Name < keys[j].Name
	})
	out := make([]Descriptor, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.entries[k])
	}
	return out
}

// SetVisible toggles (group, name)'s inclusion in UI listings without
// affecting Find/Lookup/New, the way hiding a tool from the palette
// doesn't stop an already-saved workflow from resolving it.
func (r *Registry) SetVisible(group Group, name string, visible bool) error {
	key := regKey{Group: group, Name: name}
	if _, ok := r.entries[key]; !ok {
		return &UnknownToolError{Name: name}
	}
	r.visible[key] = visible
	return nil
}

// Visible reports whether (group, name) is currently visible; an
// unregistered pair reports false.
func (r *Registry) Visible(group Group, name string) bool {
	return r.visible[regKey{Group: group, Name: name}]
}
