package models

import (
	"time"

	"gorm.io/gorm"
)

type Milestone struct {
	gorm.Model

	ProjectID uint      `gorm:"not null;index"`
	Name      string    `gorm:"size:100"`
	DueDate   time.Time `gorm:"not null"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
