package tool

import "fmt"

// UnknownToolError is returned by Registry.New when no descriptor is
// registered under the requested name.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool: no tool registered as %q", e.Name)
}

// DuplicateToolError is returned by Registry.Register when a descriptor
// is already registered under the same (group, name) pair.
type DuplicateToolError struct {
	Group Group
	Name  string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool: %s/%s already registered", e.Group, e.Name)
}

// SettingsError reports a tool rejecting a settings map at WithSettings
// time: an unknown key, a value of the wrong Kind, or a value outside
// the tool's accepted range.
type SettingsError struct {
	Tool   string
	Key    string
	Reason string
}

func (e *SettingsError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("tool %s: invalid settings: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("tool %s: setting %q: %s", e.Tool, e.Key, e.Reason)
}

// ExecutionError wraps the error a tool's Apply returned with the tool's
// identity, letting a Task report exactly which chain step failed
// without every tool implementation needing to annotate its own errors.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
