package model

import "time"

// Part is an inventory line item (detail) attached to a leaf machine.
type Part struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	MachineID  int64     `gorm:"index;not null" json:"machine_id"`
	PartNumber string    `gorm:"column:part_number;size:128;not null" json:"partNumber"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Location   string    `gorm:"size:255;not null" json:"location"`
	Position   int       `gorm:"not null;default:0" json:"-"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}
