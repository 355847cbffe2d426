package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"inventory-tracker/internal/model"
	"inventory-tracker/internal/parse"
)

// Store defines the interface for all inventory database operations.
type Store interface {
	LoadTree(ctx context.Context) ([]model.Machine, error)

	CreateMachine(ctx context.Context, name string, parentID *int64) (*model.Machine, error)
	RenameMachine(ctx context.Context, id int64, name string) error
	DeleteMachine(ctx context.Context, id int64) error
	MoveMachine(ctx context.Context, id int64, position int) error

	CreatePart(ctx context.Context, machineID int64, in parse.PartInput) (*model.Part, error)
	UpdatePart(ctx context.Context, id int64, in parse.PartInput) error
	DeletePart(ctx context.Context, id int64) error
	MovePart(ctx context.Context, id int64, position int) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

var _ Store = (*gormStore)(nil)

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

const siblingOrder = "position, id"

// LoadTree returns every top-level machine with its children and parts nested
// below it. Machines whose parent is missing are left out.
func (s *gormStore) LoadTree(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	if err := s.db.WithContext(ctx).Order(siblingOrder).Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch machines: %w", err)
	}
	var parts []model.Part
	if err := s.db.WithContext(ctx).Order(siblingOrder).Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch parts: %w", err)
	}
	return buildTree(machines, parts), nil
}

func buildTree(machines []model.Machine, parts []model.Part) []model.Machine {
	partsOf := make(map[int64][]model.Part)
	for _, p := range parts {
		partsOf[p.MachineID] = append(partsOf[p.MachineID], p)
	}

	var roots []model.Machine
	childrenOf := make(map[int64][]model.Machine)
	for _, m := range machines {
		if m.IsRoot() {
			roots = append(roots, m)
		} else {
			childrenOf[*m.ParentID] = append(childrenOf[*m.ParentID], m)
		}
	}

	var attach func(list []model.Machine) []model.Machine
	attach = func(list []model.Machine) []model.Machine {
		out := make([]model.Machine, 0, len(list))
		for _, m := range list {
			m.Parts = partsOf[m.ID]
			if m.Parts == nil {
				m.Parts = []model.Part{}
			}
			m.Children = attach(childrenOf[m.ID])
			out = append(out, m)
		}
		return out
	}
	return attach(roots)
}

// CreateMachine inserts a machine at the end of its sibling list. A machine
// added under a parent takes the parent's place as holder of parts, so the
// parent's parts are removed in the same transaction.
func (s *gormStore) CreateMachine(ctx context.Context, name string, parentID *int64) (*model.Machine, error) {
	name, err := parse.Name(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if parentID != nil && *parentID == 0 {
		parentID = nil
	}

	machine := &model.Machine{Name: name, ParentID: parentID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			var parent model.Machine
			if err := tx.First(&parent, *parentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: parent machine %d does not exist", ErrInvalidInput, *parentID)
				}
				return fmt.Errorf("failed to fetch parent machine %d: %w", *parentID, err)
			}
			if !parent.IsRoot() {
				return fmt.Errorf("%w: machine %d is already a sub-machine", ErrInvalidInput, *parentID)
			}
			if err := tx.Where("machine_id = ?", parent.ID).Delete(&model.Part{}).Error; err != nil {
				return fmt.Errorf("failed to clear parts of machine %d: %w", parent.ID, err)
			}
		}

		pos, err := nextPosition(siblingsOf(tx, parentID))
		if err != nil {
			return fmt.Errorf("failed to find next machine position: %w", err)
		}
		machine.Position = pos

		if err := tx.Create(machine).Error; err != nil {
			return fmt.Errorf("failed to create machine: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return machine, nil
}

// RenameMachine changes the name of an existing machine.
func (s *gormStore) RenameMachine(ctx context.Context, id int64, name string) error {
	name, err := parse.Name(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		machine, err := findMachine(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(machine).Update("name", name).Error; err != nil {
			return fmt.Errorf("failed to rename machine %d: %w", id, err)
		}
		return nil
	})
}

// DeleteMachine removes a machine together with all of its descendants and
// their parts. Rows are deleted from the deepest level up so self-referencing
// foreign keys hold at every step.
func (s *gormStore) DeleteMachine(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findMachine(tx, id); err != nil {
			return err
		}

		// Rows written outside the API may form parent cycles, so each id is
		// visited once.
		seen := map[int64]bool{id: true}
		levels := [][]int64{{id}}
		for {
			var found []int64
			if err := tx.Model(&model.Machine{}).
				Where("parent_id IN ?", levels[len(levels)-1]).
				Pluck("id", &found).Error; err != nil {
				return fmt.Errorf("failed to fetch sub-machines of %d: %w", id, err)
			}
			var next []int64
			for _, child := range found {
				if !seen[child] {
					seen[child] = true
					next = append(next, child)
				}
			}
			if len(next) == 0 {
				break
			}
			levels = append(levels, next)
		}

		for i := len(levels) - 1; i >= 0; i-- {
			if err := tx.Where("machine_id IN ?", levels[i]).Delete(&model.Part{}).Error; err != nil {
				return fmt.Errorf("failed to delete parts: %w", err)
			}
			if err := tx.Where("id IN ?", levels[i]).Delete(&model.Machine{}).Error; err != nil {
				return fmt.Errorf("failed to delete machines: %w", err)
			}
		}
		return nil
	})
}

// MoveMachine places a machine at the given index among its siblings.
// Out-of-range positions are clamped.
func (s *gormStore) MoveMachine(ctx context.Context, id int64, position int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		machine, err := findMachine(tx, id)
		if err != nil {
			return err
		}
		parentID := machine.ParentID
		if machine.IsRoot() {
			parentID = nil
		}

		var ids []int64
		if err := siblingsOf(tx, parentID).Order(siblingOrder).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to fetch sibling machines: %w", err)
		}
		return renumber(tx, &model.Machine{}, reorder(ids, id, position))
	})
}

// CreatePart appends a part to a machine. Machines that have sub-machines
// cannot hold parts.
func (s *gormStore) CreatePart(ctx context.Context, machineID int64, in parse.PartInput) (*model.Part, error) {
	in, err := validatePart(in)
	if err != nil {
		return nil, err
	}

	part := &model.Part{
		MachineID:  machineID,
		PartNumber: in.PartNumber,
		Quantity:   in.Quantity,
		Location:   in.Location,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findMachine(tx, machineID); err != nil {
			return err
		}

		var children int64
		if err := tx.Model(&model.Machine{}).Where("parent_id = ?", machineID).Count(&children).Error; err != nil {
			return fmt.Errorf("failed to count sub-machines of %d: %w", machineID, err)
		}
		if children > 0 {
			return fmt.Errorf("%w: machine %d has sub-machines and cannot hold parts", ErrConflict, machineID)
		}

		pos, err := nextPosition(tx.Model(&model.Part{}).Where("machine_id = ?", machineID))
		if err != nil {
			return fmt.Errorf("failed to find next part position of machine %d: %w", machineID, err)
		}
		part.Position = pos

		if err := tx.Create(part).Error; err != nil {
			return fmt.Errorf("failed to create part: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

// UpdatePart overwrites the editable fields of a part.
func (s *gormStore) UpdatePart(ctx context.Context, id int64, in parse.PartInput) error {
	in, err := validatePart(in)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		part, err := findPart(tx, id)
		if err != nil {
			return err
		}
		// A map is used so a zero quantity is written.
		if err := tx.Model(part).Updates(map[string]any{
			"part_number": in.PartNumber,
			"quantity":    in.Quantity,
			"location":    in.Location,
		}).Error; err != nil {
			return fmt.Errorf("failed to update part %d: %w", id, err)
		}
		return nil
	})
}

// DeletePart removes a single part.
func (s *gormStore) DeletePart(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Part{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete part %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("part %d: %w", id, ErrNotFound)
	}
	return nil
}

// MovePart places a part at the given index within its machine.
func (s *gormStore) MovePart(ctx context.Context, id int64, position int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		part, err := findPart(tx, id)
		if err != nil {
			return err
		}

		var ids []int64
		if err := tx.Model(&model.Part{}).
			Where("machine_id = ?", part.MachineID).
			Order(siblingOrder).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to fetch sibling parts: %w", err)
		}
		return renumber(tx, &model.Part{}, reorder(ids, id, position))
	})
}

func findMachine(tx *gorm.DB, id int64) (*model.Machine, error) {
	var machine model.Machine
	if err := tx.First(&machine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("machine %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch machine %d: %w", id, err)
	}
	return &machine, nil
}

func findPart(tx *gorm.DB, id int64) (*model.Part, error) {
	var part model.Part
	if err := tx.First(&part, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("part %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch part %d: %w", id, err)
	}
	return &part, nil
}

func siblingsOf(tx *gorm.DB, parentID *int64) *gorm.DB {
	q := tx.Model(&model.Machine{})
	if parentID == nil {
		return q.Where("parent_id IS NULL OR parent_id = 0")
	}
	return q.Where("parent_id = ?", *parentID)
}

func validatePart(in parse.PartInput) (parse.PartInput, error) {
	out, err := parse.Part(in.PartNumber, in.Quantity, in.Location)
	if err != nil {
		return parse.PartInput{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return out, nil
}
