package models

import "gorm.io/gorm"

// NotificationRecord is an append-only log entry of a composed notification.
// Rows are never updated or deleted by the system.
type NotificationRecord struct {
	gorm.Model

	UserID  uint   `gorm:"not null;index"`
	Subject string `gorm:"size:200"`
	Message string `gorm:"size:200"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
