package models

import "gorm.io/gorm"

type ProjectMember struct {
	gorm.Model

	ProjectID uint   `gorm:"not null;uniqueIndex:idx_project_user"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_project_user"`
	Role      string `gorm:"not null"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
