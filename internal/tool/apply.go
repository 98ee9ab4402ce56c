package tool

import "context"

// Image is the in-flight pixel payload passed between chained tools.
// Tools that only touch metadata pass it through unchanged.
type Image struct {
	Data   []byte
	Format string // "jpeg", "png", "tiff", ...
	Width  int
	Height int
}

// Metadata is the flat EXIF/IPTC/XMP tag set accompanying an Image
// through a chain. Tags are string-keyed ("Exif.Image.Orientation")
// the way digiKam's DMetadata exposes them, regardless of the
// underlying binary encoding.
type Metadata map[string]string

// Clone returns an independent copy of m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Context carries everything a single tool invocation needs beyond its
// own settings: the item's current pixel buffer and tags, a scratch
// directory for tools that must shell out to a temp file, and the
// source/destination paths of the batch item being processed.
type Context struct {
	Image    Image
	Meta     Metadata
	WorkDir  string
	SrcPath  string
	DestPath string

	// NoMetadataWrite is set when the enclosing queue's settings
	// forbid writing metadata back into the file (spec.md queue
	// settings); the Task skips its final metadata write when it is set.
	// No built-in tool persists tags itself: StripMetadata and
	// TimeAdjust only change Meta.
	NoMetadataWrite bool

	// IsLastInChain mirrors task.cpp's isLastChainInSequence: true when
	// the next step belongs to the Custom group, or for the last
	// non-Custom step of the chain. A tool can use it to decide whether
	// its result has to be persisted rather than kept only in memory.
	IsLastInChain bool
}

// Instance is a configured, runnable tool: one node in an Assignment's
// chain. Implementations must be safe to Clone and re-Apply
// concurrently across independent Contexts, since the Worker Pool runs
// one cloned chain per in-flight item.
type Instance interface {
	Name() string
	Version() int
	Group() Group
	Settings() Settings

	// OutputSuffix reports the file extension (no leading dot) this
	// instance's current settings force on the chain's output, or ""
	// if it leaves whatever suffix came before it unchanged. Computable
	// without running Apply: Assignment.OutputSuffix folds it over the
	// whole chain to resolve a Task's destination extension up front.
	OutputSuffix() string

	// WithSettings returns a clone of the instance with its settings
	// replaced by s, validating s against the tool's schema.
	WithSettings(s Settings) (Instance, error)

	// Clone returns an independent copy carrying the same settings,
	// as required before handing the instance to a new Task so two
	// concurrent executions never share mutable state.
	Clone() Instance

	// Apply runs the tool against ac, returning the updated Context.
	// Implementations must check ctx.Err() at entry and between any
	// internally chunked work so cooperative cancellation (spec.md
	// worker pool poll requirement) takes effect promptly.
	Apply(ctx context.Context, ac *Context) (*Context, error)
}
