package activity

import (
	"fmt"
	"time"

	"github.com/bugline-dev/bugline/internal/models"
	"github.com/bugline-dev/bugline/internal/types"
	"gorm.io/gorm"
)

// Recorder writes the append-only audit trail for issues. Entries are purely
// observational and never read back for rollback.
type Recorder struct {
	DB *gorm.DB
}

func NewRecorder(database *gorm.DB) *Recorder {
	return &Recorder{DB: database}
}

// FieldChange is one observed difference between the stored issue and an
// update request, with both sides already stringified.
type FieldChange struct {
	Field    string
	Previous string
	New      string
}

func (r *Recorder) Created(issueID uint, userID uint, title string) error {
	entry := models.ActivityLog{
		IssueID:  issueID,
		UserID:   userID,
		Action:   types.ActionCreated,
		NewValue: title,
	}

	return r.DB.Create(&entry).Error
}

// RecordChanges writes one entry per change. Status changes get their own
// action so the board history can be told apart from ordinary edits.
func (r *Recorder) RecordChanges(issueID uint, userID uint, changes []FieldChange) error {
	for _, change := range changes {
		action := types.ActionUpdated

		if change.Field == "status" {
			action = types.ActionStatusChanged
		}

		entry := models.ActivityLog{
			IssueID:       issueID,
			UserID:        userID,
			Action:        action,
			FieldChanged:  change.Field,
			PreviousValue: change.Previous,
			NewValue:      change.New,
		}

		if err := r.DB.Create(&entry).Error; err != nil {
			return err
		}
	}

	return nil
}

// StatusChanged writes a single board-transition entry. Unlike RecordChanges
// it does not compare values first: dropping a card onto its current column
// is still a user action the board history shows.
func (r *Recorder) StatusChanged(issueID uint, userID uint, previous string, current string) error {
	return r.RecordChanges(issueID, userID, []FieldChange{
		{Field: "status", Previous: previous, New: current},
	})
}

// Stringify coerces a field value to the string form stored in the audit
// trail. Comparing stringified values keeps date-vs-string and number-vs-
// string pairs from producing spurious diffs.
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case *uint:
		if v == nil {
			return ""
		}
		return fmt.Sprint(*v)
	case *float64:
		if v == nil {
			return ""
		}
		return fmt.Sprint(*v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
