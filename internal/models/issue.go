package models

import (
	"time"

	"gorm.io/gorm"
)

type Issue struct {
	gorm.Model

	ProjectID      uint   `gorm:"not null;index"`
	Title          string `gorm:"not null"`
	Description    string `gorm:"not null"`
	IssueType      string `gorm:"not null"` // "bug", "feature", "task", "improvement"
	Priority       string `gorm:"not null"` // "low", "medium", "high", "critical"
	Status         string `gorm:"not null;default:todo"`
	ReporterID     uint   `gorm:"not null;index"`
	AssigneeID     *uint  `gorm:"index"`
	DueDate        *time.Time
	EstimatedHours *float64

	// Relationships
	Project      Project       `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Reporter     User          `gorm:"foreignKey:ReporterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee     *User         `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Comments     []Comment     `gorm:"foreignKey:IssueID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Attachments  []Attachment  `gorm:"foreignKey:IssueID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ActivityLogs []ActivityLog `gorm:"foreignKey:IssueID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
