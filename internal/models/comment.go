package models

import "gorm.io/gorm"

type Comment struct {
	gorm.Model

	IssueID         uint   `gorm:"not null;index"`
	AuthorID        uint   `gorm:"not null;index"`
	Content         string `gorm:"not null"`
	ParentCommentID *uint  `gorm:"index"`

	// Relationships
	Issue   Issue     `gorm:"foreignKey:IssueID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Author  User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Replies []Comment `gorm:"foreignKey:ParentCommentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
