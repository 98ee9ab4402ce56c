// Package assignment implements the ordered tool chain (C3) a Queue runs
// over each of its items: digiKam's AssignedBatchTools made explicit as
// a Go value type built from the Tool Registry.
package assignment

import (
	"context"
	"fmt"

	"bqm/internal/tool"
)

// Step is one position in the chain: a resolved, configured tool
// instance plus its index, which always equals the step's current
// position in the chain: every mutator renumbers it (BatchToolSet::index).
type Step struct {
	Index    int
	Instance tool.Instance
}

// Assignment is the ordered list of tool Steps a Queue applies to every
// item it processes. It is itself a value type: Clone produces
// independent Instances so two Tasks running the same Assignment never
// share tool state.
type Assignment struct {
	steps []Step
}

// New builds an Assignment from already-resolved steps, in chain order.
func New(steps ...Step) *Assignment {
	a := &Assignment{steps: make([]Step, len(steps))}
	copy(a.steps, steps)
	return a
}

// Steps returns the chain in execution order.
func (a *Assignment) Steps() []Step {
	out := make([]Step, len(a.steps))
	copy(out, a.steps)
	return out
}

// Len returns the number of steps in the chain.
func (a *Assignment) Len() int { return len(a.steps) }

// Append adds a tool instance to the end of the chain, stamping it with
// the next index.
func (a *Assignment) Append(inst tool.Instance) {
	a.steps = append(a.steps, Step{Index: len(a.steps), Instance: inst})
}

// InsertAt inserts inst at position pos, shifting every later step down
// and renumbering the whole chain so indices stay contiguous. pos ==
// Len() appends, matching Append.
func (a *Assignment) InsertAt(pos int, inst tool.Instance) error {
	if pos < 0 || pos > len(a.steps) {
		return fmt.Errorf("assignment: insertAt(%d) out of range [0,%d]", pos, len(a.steps))
	}
	a.steps = append(a.steps, Step{})
	copy(a.steps[pos+1:], a.steps[pos:])
	a.steps[pos] = Step{Instance: inst}
	for idx := range a.steps {
		a.steps[idx].Index = idx
	}
	return nil
}

// Clear empties the chain entirely, the model's equivalent of digiKam's
// "Clear Tools" action.
func (a *Assignment) Clear() {
	a.steps = nil
}

// Remove deletes the step at position i and renumbers the remaining
// steps so Index always matches slice position, the way digiKam's
// AssignedBatchTools::removeTool repacks the map.
func (a *Assignment) Remove(i int) error {
	if i < 0 || i >= len(a.steps) {
		return fmt.Errorf("assignment: index %d out of range [0,%d)", i, len(a.steps))
	}
	a.steps = append(a.steps[:i], a.steps[i+1:]...)
	for idx := range a.steps {
		a.steps[idx].Index = idx
	}
	return nil
}

// Move relocates the step at from to before position to, renumbering
// indices, supporting the editor's drag-and-drop reorder.
func (a *Assignment) Move(from, to int) error {
	if from < 0 || from >= len(a.steps) || to < 0 || to > len(a.steps) {
		return fmt.Errorf("assignment: move(%d,%d) out of range for length %d", from, to, len(a.steps))
	}
	step := a.steps[from]
	rest := append(a.steps[:from:from], a.steps[from+1:]...)
	if to > from {
		to--
	}
	rest = append(rest[:to], append([]Step{step}, rest[to:]...)...)
	for idx := range rest {
		rest[idx].Index = idx
	}
	a.steps = rest
	return nil
}

// Clone returns a deep copy whose tool instances are independent, ready
// to be handed to a new Task.
func (a *Assignment) Clone() *Assignment {
	out := &Assignment{steps: make([]Step, len(a.steps))}
	for i, s := range a.steps {
		out.steps[i] = Step{Index: s.Index, Instance: s.Instance.Clone()}
	}
	return out
}

// IsLastInChainGroup reports whether the step at i must persist its
// output: true when the next step belongs to the Custom group (an
// external command that reads its input from disk), or when i is the
// last non-Custom step of the chain -- the condition digiKam's Task::run
// uses for task.cpp's isLastChainInSequence. A Custom step is never
// last-in-chain unless another Custom step follows it.
func (a *Assignment) IsLastInChainGroup(i int) bool {
	if i+1 < len(a.steps) && a.steps[i+1].Instance.Group() == tool.GroupCustom {
		return true
	}
	if a.steps[i].Instance.Group() == tool.GroupCustom {
		return false
	}
	for _, s := range a.steps[i+1:] {
		if s.Instance.Group() != tool.GroupCustom {
			return false
		}
	}
	return true
}

// OutputSuffix computes the chain's destination extension: it starts
// from sourceExt (no leading dot) and replaces it with every step's
// non-empty OutputSuffix() in order, so the last tool in the chain that
// declares one wins. overridden reports whether any step replaced it at
// all, letting a caller tell "chain left the source extension alone"
// apart from "chain happens to target the same extension the source
// already had".
func (a *Assignment) OutputSuffix(sourceExt string) (suffix string, overridden bool) {
	suffix = sourceExt
	for _, step := range a.steps {
		if s := step.Instance.OutputSuffix(); s != "" {
			suffix = s
			overridden = true
		}
	}
	return suffix, overridden
}

// Run executes every step of the chain in order against ac, stopping and
// returning the first error encountered (with the failing step's index),
// and checking ctx for cancellation between steps so the Worker Pool's
// cooperative-cancel poll takes effect at a tool boundary even if an
// individual tool ignores ctx internally.
func (a *Assignment) Run(ctx context.Context, ac *tool.Context) (*tool.Context, int, error) {
	for idx, step := range a.steps {
		if err := ctx.Err(); err != nil {
			return ac, step.Index, err
		}
		ac.IsLastInChain = a.IsLastInChainGroup(idx)
		next, err := step.Instance.Apply(ctx, ac)
		if err != nil {
			return ac, step.Index, &tool.ExecutionError{Tool: step.Instance.Name(), Err: err}
		}
		ac = next
	}
	return ac, -1, nil
}
