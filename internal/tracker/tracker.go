// Package tracker holds the client-side view of the inventory: the machine
// tree fetched from the server, what is selected in it, and the edits a user
// can make from there. Every edit is sent to the server first and applied to
// the local tree only when the server accepts it.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"inventory-tracker/internal/model"
	"inventory-tracker/internal/parse"
)

// None marks an empty selection slot.
const None = -1

var (
	// ErrNoSelection is returned when a command needs a selected machine or part.
	ErrNoSelection = errors.New("nothing selected")
	// ErrMoveMode is returned by edits attempted while move mode is on.
	ErrMoveMode = errors.New("not available while move mode is on")
	// ErrNotMoveMode is returned by moves attempted while move mode is off.
	ErrNotMoveMode = errors.New("turn on move mode first")
	// ErrSelectChild is returned when adding a part to a machine that has sub-machines.
	ErrSelectChild = errors.New("select a child machine to add details")
	// ErrNotAllowed is returned when the command is disabled for the selection.
	ErrNotAllowed = errors.New("not available for the current selection")
	// ErrOutOfRange is returned for an index outside the list it addresses.
	ErrOutOfRange = errors.New("index out of range")
	// ErrAcrossOwners is returned when a part move would change its machine.
	ErrAcrossOwners = errors.New("parts can only be moved within the same machine")
)

// Remote is the server the tracker mirrors.
type Remote interface {
	Load(ctx context.Context) ([]model.Machine, error)
	AddMachine(ctx context.Context, name string, parentID *int64) (int64, error)
	EditMachine(ctx context.Context, id int64, name string) error
	DeleteMachine(ctx context.Context, id int64) error
	MoveMachine(ctx context.Context, id int64, position int) error
	AddPart(ctx context.Context, machineID int64, in parse.PartInput) (int64, error)
	EditPart(ctx context.Context, id int64, in parse.PartInput) error
	DeletePart(ctx context.Context, id int64) error
	MovePart(ctx context.Context, id int64, position int) error
}

// Selection is a position in the tree. Part indexes the visible part list.
type Selection struct {
	Parent int
	Child  int
	Part   int
}

var emptySelection = Selection{Parent: None, Child: None, Part: None}

// Actions lists which commands are currently enabled.
type Actions struct {
	AddMachine bool
	AddLayer   bool
	AddDetail  bool
	Delete     bool
	Edit       bool
	Move       bool
}

// VisiblePart is an entry of the part pane.
type VisiblePart struct {
	model.Part
	// Owner is the child index owning the part, or None when it belongs to
	// the selected parent itself.
	Owner int
	// Index is the position of the part within its owner.
	Index int
}

// Tracker is the selection and editing state machine. It is not safe for
// concurrent use.
type Tracker struct {
	remote   Remote
	machines []model.Machine
	selected Selection
	last     Selection
	moveMode bool
}

// New creates an empty tracker; call Load to fetch the tree.
func New(remote Remote) *Tracker {
	return &Tracker{
		remote:   remote,
		selected: emptySelection,
		last:     emptySelection,
	}
}

// Machines returns the top-level machines. The slice must not be modified.
func (t *Tracker) Machines() []model.Machine { return t.machines }

// Selected returns the current selection.
func (t *Tracker) Selected() Selection { return t.selected }

// LastSelected returns the selection that preceded the current one.
func (t *Tracker) LastSelected() Selection { return t.last }

// MoveMode reports whether move mode is on.
func (t *Tracker) MoveMode() bool { return t.moveMode }

// Load replaces the tree with the server's copy and clears the selection.
func (t *Tracker) Load(ctx context.Context) error {
	machines, err := t.remote.Load(ctx)
	if err != nil {
		return fmt.Errorf("load machines: %w", err)
	}
	normalize(machines)
	t.machines = machines
	t.selected = emptySelection
	return nil
}

func normalize(machines []model.Machine) {
	for i := range machines {
		if machines[i].Parts == nil {
			machines[i].Parts = []model.Part{}
		}
		if machines[i].Children == nil {
			machines[i].Children = []model.Machine{}
		}
		normalize(machines[i].Children)
	}
}

// SelectParent selects a top-level machine.
func (t *Tracker) SelectParent(p int) error {
	if p < 0 || p >= len(t.machines) {
		return fmt.Errorf("machine %d: %w", p, ErrOutOfRange)
	}
	t.last = t.selected
	t.selected = Selection{Parent: p, Child: None, Part: None}
	return nil
}

// SelectChild selects child c of top-level machine p.
func (t *Tracker) SelectChild(p, c int) error {
	if p < 0 || p >= len(t.machines) {
		return fmt.Errorf("machine %d: %w", p, ErrOutOfRange)
	}
	if c < 0 || c >= len(t.machines[p].Children) {
		return fmt.Errorf("sub-machine %d: %w", c, ErrOutOfRange)
	}
	t.last = t.selected
	t.selected = Selection{Parent: p, Child: c, Part: None}
	return nil
}

// SelectPart selects entry i of VisibleParts.
func (t *Tracker) SelectPart(i int) error {
	if i < 0 || i >= len(t.VisibleParts()) {
		return fmt.Errorf("part %d: %w", i, ErrOutOfRange)
	}
	t.last.Part = t.selected.Part
	t.selected.Part = i
	return nil
}

// ClearSelection deselects everything.
func (t *Tracker) ClearSelection() {
	t.last = t.selected
	t.selected = emptySelection
}

func (t *Tracker) parent() *model.Machine {
	if t.selected.Parent < 0 || t.selected.Parent >= len(t.machines) {
		return nil
	}
	return &t.machines[t.selected.Parent]
}

func (t *Tracker) child() *model.Machine {
	p := t.parent()
	if p == nil || t.selected.Child < 0 || t.selected.Child >= len(p.Children) {
		return nil
	}
	return &p.Children[t.selected.Child]
}

// SelectedMachine returns the selected child, else the selected parent, else nil.
func (t *Tracker) SelectedMachine() *model.Machine {
	if c := t.child(); c != nil {
		return c
	}
	return t.parent()
}

// VisibleParts returns the parts shown for the current selection: those of
// the selected child, all children's parts of a selected parent that has
// children, or the selected parent's own parts.
func (t *Tracker) VisibleParts() []VisiblePart {
	p := t.parent()
	if p == nil {
		return nil
	}
	if c := t.child(); c != nil {
		return visible(c.Parts, t.selected.Child)
	}
	if !p.HasChildren() {
		return visible(p.Parts, None)
	}
	var out []VisiblePart
	for ci := range p.Children {
		out = append(out, visible(p.Children[ci].Parts, ci)...)
	}
	return out
}

func visible(parts []model.Part, owner int) []VisiblePart {
	out := make([]VisiblePart, 0, len(parts))
	for i, part := range parts {
		out = append(out, VisiblePart{Part: part, Owner: owner, Index: i})
	}
	return out
}

// SelectedPart returns the selected part entry.
func (t *Tracker) SelectedPart() (VisiblePart, bool) {
	parts := t.VisibleParts()
	if t.selected.Part < 0 || t.selected.Part >= len(parts) {
		return VisiblePart{}, false
	}
	return parts[t.selected.Part], true
}

// owner returns the machine holding a visible part.
func (t *Tracker) owner(vp VisiblePart) *model.Machine {
	p := t.parent()
	if vp.Owner == None {
		return p
	}
	return &p.Children[vp.Owner]
}

// Actions reports which commands are enabled for the current state.
func (t *Tracker) Actions() Actions {
	if t.moveMode {
		return Actions{Move: true}
	}
	p := t.parent()
	switch {
	case p == nil:
		return Actions{AddMachine: true, Move: true}
	case t.child() == nil:
		return Actions{
			AddMachine: true,
			AddLayer:   true,
			AddDetail:  !p.HasChildren(),
			Delete:     true,
			Edit:       true,
			Move:       true,
		}
	default:
		return Actions{
			AddMachine: true,
			AddDetail:  true,
			Delete:     true,
			Edit:       true,
			Move:       true,
		}
	}
}

// ToggleMove flips move mode and returns the new state.
func (t *Tracker) ToggleMove() bool {
	t.moveMode = !t.moveMode
	return t.moveMode
}

func (t *Tracker) editable() error {
	if t.moveMode {
		return ErrMoveMode
	}
	return nil
}
