package model

import "time"

// Machine is a top-level or nested equipment unit in the inventory tree.
// A machine with children carries no parts.
type Machine struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	ParentID  *int64    `gorm:"index" json:"parent_id"`
	Position  int       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations, populated by the tree loader rather than GORM preloads.
	Children []Machine `gorm:"foreignKey:ParentID" json:"children"`
	Parts    []Part    `gorm:"foreignKey:MachineID" json:"parts"`
}

// IsRoot reports whether the machine sits at the top of the tree. A zero
// parent id counts as no parent.
func (m *Machine) IsRoot() bool {
	return m.ParentID == nil || *m.ParentID == 0
}

// HasChildren reports whether the machine has at least one child layer.
func (m *Machine) HasChildren() bool {
	return len(m.Children) > 0
}
