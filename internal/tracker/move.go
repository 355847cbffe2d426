package tracker

import (
	"context"
	"fmt"
)

// MoveParent moves top-level machine from to index to.
func (t *Tracker) MoveParent(ctx context.Context, from, to int) error {
	if !t.moveMode {
		return ErrNotMoveMode
	}
	if err := checkRange(len(t.machines), from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	if err := t.remote.MoveMachine(ctx, t.machines[from].ID, to); err != nil {
		return fmt.Errorf("move machine: %w", err)
	}
	t.machines = shift(t.machines, from, to)
	t.last = t.selected
	t.selected = Selection{Parent: to, Child: None, Part: None}
	return nil
}

// MoveChild reorders the children of top-level machine parent.
func (t *Tracker) MoveChild(ctx context.Context, parent, from, to int) error {
	if !t.moveMode {
		return ErrNotMoveMode
	}
	if parent < 0 || parent >= len(t.machines) {
		return fmt.Errorf("machine %d: %w", parent, ErrOutOfRange)
	}
	p := &t.machines[parent]
	if err := checkRange(len(p.Children), from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	if err := t.remote.MoveMachine(ctx, p.Children[from].ID, to); err != nil {
		return fmt.Errorf("move sub-machine: %w", err)
	}
	p.Children = shift(p.Children, from, to)
	t.last = t.selected
	t.selected = Selection{Parent: parent, Child: to, Part: None}
	return nil
}

// MovePart moves visible part from to visible index to. Both must belong to
// the same machine.
func (t *Tracker) MovePart(ctx context.Context, from, to int) error {
	if !t.moveMode {
		return ErrNotMoveMode
	}
	if t.parent() == nil {
		return ErrNoSelection
	}
	parts := t.VisibleParts()
	if err := checkRange(len(parts), from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	src, dst := parts[from], parts[to]
	if src.Owner != dst.Owner {
		return ErrAcrossOwners
	}

	if err := t.remote.MovePart(ctx, src.ID, dst.Index); err != nil {
		return fmt.Errorf("move part: %w", err)
	}
	owner := t.owner(src)
	owner.Parts = shift(owner.Parts, src.Index, dst.Index)
	t.last.Part = t.selected.Part
	t.selected.Part = to
	return nil
}

func checkRange(n, from, to int) error {
	if from < 0 || from >= n {
		return fmt.Errorf("from %d: %w", from, ErrOutOfRange)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("to %d: %w", to, ErrOutOfRange)
	}
	return nil
}

// shift moves element from to index to, keeping the others in order.
func shift[T any](s []T, from, to int) []T {
	v := s[from]
	s = append(s[:from:from], s[from+1:]...)
	s = append(s[:to:to], append([]T{v}, s[to:]...)...)
	return s
}
