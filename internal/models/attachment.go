package models

import "gorm.io/gorm"

type Attachment struct {
	gorm.Model

	IssueID     uint   `gorm:"not null;index"`
	UploadedBy  uint   `gorm:"not null;index"`
	FileName    string `gorm:"not null"`
	FileSize    int64  `gorm:"not null"`
	FileType    string `gorm:"not null"`
	FileURL     string `gorm:"not null"`
	StoragePath string `gorm:"not null"`

	// Relationships
	Issue    Issue `gorm:"foreignKey:IssueID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Uploader User  `gorm:"foreignKey:UploadedBy;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
