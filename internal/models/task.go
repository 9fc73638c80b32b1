package models

import "gorm.io/gorm"

type Task struct {
	gorm.Model

	ProjectID   uint   `gorm:"not null;index"`
	Name        string `gorm:"size:100"`
	Description string `gorm:"size:200"`
	// AssignedToID is cleared, not cascaded, when the user is deleted.
	AssignedToID *uint `gorm:"index"`

	// Relationships
	Project    Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	AssignedTo *User   `gorm:"foreignKey:AssignedToID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
