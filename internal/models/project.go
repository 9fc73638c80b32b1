package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model

	Name        string `gorm:"size:40;not null"`
	Description string `gorm:"size:200"`
	OwnerID     uint   `gorm:"not null;index"`

	// Relationships
	Owner      RoleAssignment `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks      []Task         `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Milestones []Milestone    `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
