// Package builtin registers the queue manager's built-in tools: the
// Convert-group pixel operations, the Metadata-group tag operations, and
// the Custom-group external-command wrapper. Each tool follows the same
// shape as digiKam's BatchTool subclasses: a small settings schema, a
// stateless Apply, and a Clone that hands a fresh copy to every task.
package builtin

import (
	"github.com/jinzhu/copier"

	"bqm/internal/tool"
)

// base supplies the identity bookkeeping (name, version, group, settings
// storage) shared by every built-in tool so each tool file only needs to
// implement WithSettings validation and Apply.
type base struct {
	name     string
	version  int
	group    tool.Group
	settings tool.Settings
}

func (b *base) Name() string            { return b.name }
func (b *base) Version() int            { return b.version }
func (b *base) Group() tool.Group       { return b.group }
func (b *base) Settings() tool.Settings { return b.settings }

// OutputSuffix reports "" by default: most tools leave the destination
// extension alone. Convert overrides this since it re-encodes into a
// chosen format.
func (b *base) OutputSuffix() string { return "" }

// cloneBase hands every tool's Clone() an independent copy: the identity
// fields via copier (the teacher's DTO<->model copy helper, here doing a
// plain struct copy) and the settings map via its own Clone, since
// copier's shallow copy would otherwise leave two instances sharing one
// underlying map.
func (b base) cloneBase() base {
	var out base
	_ = copier.Copy(&out, &b)
	out.settings = b.settings.Clone()
	return out
}
