package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	Email        string `gorm:"uniqueIndex;not null"`
	FullName     string `gorm:"not null"`
	Role         string `gorm:"not null;default:user"`
	AvatarURL    string
	PasswordHash string `gorm:"not null"`

	// Relationships
	OwnedProjects      []Project       `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ProjectMemberships []ProjectMember `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ReportedIssues     []Issue         `gorm:"foreignKey:ReporterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments           []Comment       `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
