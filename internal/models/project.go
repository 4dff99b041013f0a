package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model

	Name           string `gorm:"not null"`
	Description    string
	Key            string `gorm:"uniqueIndex;not null"`
	OwnerID        uint   `gorm:"not null;index"`
	Status         string `gorm:"not null;default:active"`
	DiscordWebhook string
	SlackWebhook   string

	// Relationships
	Owner   User            `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Issues  []Issue         `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
