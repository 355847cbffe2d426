package tracker

import (
	"context"
	"errors"
	"fmt"

	"inventory-tracker/internal/model"
	"inventory-tracker/internal/parse"
)

var errRemote = errors.New("remote unavailable")

// fakeRemote records calls and hands out increasing ids.
type fakeRemote struct {
	tree   []model.Machine
	nextID int64
	calls  []string
	fail   bool
}

func (f *fakeRemote) record(format string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	if f.fail {
		return errRemote
	}
	return nil
}

func (f *fakeRemote) id() int64 {
	f.nextID++
	return 100 + f.nextID
}

func (f *fakeRemote) Load(context.Context) ([]model.Machine, error) {
	if err := f.record("load"); err != nil {
		return nil, err
	}
	return f.tree, nil
}

func (f *fakeRemote) AddMachine(_ context.Context, name string, parentID *int64) (int64, error) {
	parent := int64(0)
	if parentID != nil {
		parent = *parentID
	}
	if err := f.record("add_machine %s %d", name, parent); err != nil {
		return 0, err
	}
	return f.id(), nil
}

func (f *fakeRemote) EditMachine(_ context.Context, id int64, name string) error {
	return f.record("edit_machine %d %s", id, name)
}

func (f *fakeRemote) DeleteMachine(_ context.Context, id int64) error {
	return f.record("delete_machine %d", id)
}

func (f *fakeRemote) MoveMachine(_ context.Context, id int64, position int) error {
	return f.record("move_machine %d %d", id, position)
}

func (f *fakeRemote) AddPart(_ context.Context, machineID int64, in parse.PartInput) (int64, error) {
	if err := f.record("add_part %d %s %d %s", machineID, in.PartNumber, in.Quantity, in.Location); err != nil {
		return 0, err
	}
	return f.id(), nil
}

func (f *fakeRemote) EditPart(_ context.Context, id int64, in parse.PartInput) error {
	return f.record("edit_part %d %s %d %s", id, in.PartNumber, in.Quantity, in.Location)
}

func (f *fakeRemote) DeletePart(_ context.Context, id int64) error {
	return f.record("delete_part %d", id)
}

func (f *fakeRemote) MovePart(_ context.Context, id int64, position int) error {
	return f.record("move_part %d %d", id, position)
}

func pid(v int64) *int64 { return &v }

// sampleTree is:
//
//	0 Press (1)           parts: P-a, P-b
//	1 Line (2)
//	    0 Head (3)        parts: H-a
//	    1 Tail (4)        parts: T-a, T-b
//	2 Empty (5)
func sampleTree() []model.Machine {
	return []model.Machine{
		{ID: 1, Name: "Press", Parts: []model.Part{
			{ID: 11, MachineID: 1, PartNumber: "P-a", Quantity: 1, Location: "A"},
			{ID: 12, MachineID: 1, PartNumber: "P-b", Quantity: 2, Location: "A"},
		}},
		{ID: 2, Name: "Line", Children: []model.Machine{
			{ID: 3, Name: "Head", ParentID: pid(2), Parts: []model.Part{
				{ID: 31, MachineID: 3, PartNumber: "H-a", Quantity: 3, Location: "B"},
			}},
			{ID: 4, Name: "Tail", ParentID: pid(2), Parts: []model.Part{
				{ID: 41, MachineID: 4, PartNumber: "T-a", Quantity: 4, Location: "C"},
				{ID: 42, MachineID: 4, PartNumber: "T-b", Quantity: 5, Location: "C"},
			}},
		}},
		{ID: 5, Name: "Empty"},
	}
}
