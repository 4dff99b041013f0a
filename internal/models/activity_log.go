package models

import "gorm.io/gorm"

// ActivityLog is the append-only audit trail for issues. Rows are only
// ever inserted; there is no update or delete path.
type ActivityLog struct {
	gorm.Model

	IssueID       uint   `gorm:"not null;index"`
	UserID        uint   `gorm:"not null;index"`
	Action        string `gorm:"not null"` // "created", "updated", "status_changed"
	FieldChanged  string
	PreviousValue string
	NewValue      string

	// Relationships
	Issue Issue `gorm:"foreignKey:IssueID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User  User  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
