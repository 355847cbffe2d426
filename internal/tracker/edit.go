package tracker

import (
	"context"
	"fmt"

	"inventory-tracker/internal/model"
	"inventory-tracker/internal/parse"
)

// AddMachine creates a top-level machine.
func (t *Tracker) AddMachine(ctx context.Context, name string) error {
	if err := t.editable(); err != nil {
		return err
	}
	name, err := parse.Name(name)
	if err != nil {
		return err
	}

	id, err := t.remote.AddMachine(ctx, name, nil)
	if err != nil {
		return fmt.Errorf("add machine: %w", err)
	}
	t.machines = append(t.machines, newMachine(id, name, nil))
	return nil
}

// AddLayer creates a child under the selected parent. The parent's own parts
// are dropped, as the server does.
func (t *Tracker) AddLayer(ctx context.Context, name string) error {
	if err := t.editable(); err != nil {
		return err
	}
	p := t.parent()
	if p == nil {
		return ErrNoSelection
	}
	if t.child() != nil {
		return ErrNotAllowed
	}
	name, err := parse.Name(name)
	if err != nil {
		return err
	}

	id, err := t.remote.AddMachine(ctx, name, &p.ID)
	if err != nil {
		return fmt.Errorf("add sub-machine: %w", err)
	}
	parentID := p.ID
	p.Children = append(p.Children, newMachine(id, name, &parentID))
	p.Parts = []model.Part{}
	t.selected.Part = None
	return nil
}

// AddPart adds a part to the selected child, or to the selected parent when
// it has no children.
func (t *Tracker) AddPart(ctx context.Context, in parse.PartInput) error {
	if err := t.editable(); err != nil {
		return err
	}
	p := t.parent()
	if p == nil {
		return ErrNoSelection
	}
	target := t.child()
	if target == nil {
		if p.HasChildren() {
			return ErrSelectChild
		}
		target = p
	}
	in, err := parse.Part(in.PartNumber, in.Quantity, in.Location)
	if err != nil {
		return err
	}

	id, err := t.remote.AddPart(ctx, target.ID, in)
	if err != nil {
		return fmt.Errorf("add part: %w", err)
	}
	target.Parts = append(target.Parts, model.Part{
		ID:         id,
		MachineID:  target.ID,
		PartNumber: in.PartNumber,
		Quantity:   in.Quantity,
		Location:   in.Location,
	})
	return nil
}

// Delete removes the selected part, or else the selected child, or else the
// selected parent along with its children.
func (t *Tracker) Delete(ctx context.Context) error {
	if err := t.editable(); err != nil {
		return err
	}
	if vp, ok := t.SelectedPart(); ok {
		if err := t.remote.DeletePart(ctx, vp.ID); err != nil {
			return fmt.Errorf("delete part: %w", err)
		}
		owner := t.owner(vp)
		owner.Parts = remove(owner.Parts, vp.Index)
		t.selected.Part = None
		t.last.Part = None
		return nil
	}

	if c := t.child(); c != nil {
		if err := t.remote.DeleteMachine(ctx, c.ID); err != nil {
			return fmt.Errorf("delete sub-machine: %w", err)
		}
		p := t.parent()
		p.Children = remove(p.Children, t.selected.Child)
		t.selected.Child = None
		t.selected.Part = None
		t.last = emptySelection
		return nil
	}

	p := t.parent()
	if p == nil {
		return ErrNoSelection
	}
	if err := t.remote.DeleteMachine(ctx, p.ID); err != nil {
		return fmt.Errorf("delete machine: %w", err)
	}
	t.machines = remove(t.machines, t.selected.Parent)
	t.selected = emptySelection
	t.last = emptySelection
	return nil
}

// Rename renames the selected child, or else the selected parent.
func (t *Tracker) Rename(ctx context.Context, name string) error {
	if err := t.editable(); err != nil {
		return err
	}
	m := t.SelectedMachine()
	if m == nil {
		return ErrNoSelection
	}
	name, err := parse.Name(name)
	if err != nil {
		return err
	}

	if err := t.remote.EditMachine(ctx, m.ID, name); err != nil {
		return fmt.Errorf("rename machine: %w", err)
	}
	m.Name = name
	return nil
}

// EditPart overwrites the fields of the selected part.
func (t *Tracker) EditPart(ctx context.Context, in parse.PartInput) error {
	if err := t.editable(); err != nil {
		return err
	}
	vp, ok := t.SelectedPart()
	if !ok {
		return ErrNoSelection
	}
	in, err := parse.Part(in.PartNumber, in.Quantity, in.Location)
	if err != nil {
		return err
	}

	if err := t.remote.EditPart(ctx, vp.ID, in); err != nil {
		return fmt.Errorf("edit part: %w", err)
	}
	part := &t.owner(vp).Parts[vp.Index]
	part.PartNumber = in.PartNumber
	part.Quantity = in.Quantity
	part.Location = in.Location
	return nil
}

func newMachine(id int64, name string, parentID *int64) model.Machine {
	return model.Machine{
		ID:       id,
		Name:     name,
		ParentID: parentID,
		Children: []model.Machine{},
		Parts:    []model.Part{},
	}
}

func remove[T any](s []T, i int) []T {
	return append(s[:i:i], s[i+1:]...)
}
