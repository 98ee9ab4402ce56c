package assignment

import (
	"fmt"

	"bqm/internal/tool"
)

// DropPaletteSelection is a drop payload originating from the tool
// palette: the editor resolved name into a fresh Instance and is
// inserting it into the chain for the first time, the Go equivalent of
// dragging a BatchTool entry out of digiKam's tool list.
type DropPaletteSelection struct {
	Group tool.Group
	Name  string
}

// DropMoveExisting is a drop payload reordering a step already in the
// chain, identified by its current position.
type DropMoveExisting struct {
	From int
}

// Drop performs the single editor gesture "something was dropped at
// position pos": either instantiating a tool fresh from the palette via
// registry and inserting it, or moving an existing step to pos,
// depending on which payload is non-nil. Exactly one of palette/move
// must be non-nil.
func (a *Assignment) Drop(pos int, registry *tool.Registry, palette *DropPaletteSelection, move *DropMoveExisting) error {
	switch {
	case palette != nil && move != nil:
		return fmt.Errorf("assignment: drop(%d) given both a palette selection and a move", pos)
	case palette == nil && move == nil:
		return fmt.Errorf("assignment: drop(%d) given neither a palette selection nor a move", pos)
	case palette != nil:
		inst, err := registry.New(palette.Name)
		if err != nil {
			return err
		}
		return a.InsertAt(pos, inst)
	default:
		return a.Move(move.From, pos)
	}
}
