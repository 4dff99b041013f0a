package utils

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("forbidden")
)

// CheckOwnership loads a record's owner column and compares it to the caller.
// The same check backs comments (author_id), attachments (uploaded_by) and
// projects (owner_id).
func CheckOwnership(db *gorm.DB, table string, recordID uint, ownerColumn string, userID uint) error {
	var ownerID uint

	tx := db.Table(table).
		Select(ownerColumn).
		Where("id = ? AND deleted_at IS NULL", recordID).
		Scan(&ownerID)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrNotFound
	}

	if ownerID != userID {
		return ErrForbidden
	}

	return nil
}
