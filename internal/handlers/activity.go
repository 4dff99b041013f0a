package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/bugline-dev/bugline/internal/models"
	"github.com/bugline-dev/bugline/internal/types"
	"github.com/bugline-dev/bugline/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ActivityHandler struct {
	DB *gorm.DB
}

func NewActivityHandler(database *gorm.DB) *ActivityHandler {
	return &ActivityHandler{DB: database}
}

const projectFeedLimit = 100

type ActivityResponse struct {
	ID            uint                `json:"id"`
	IssueID       uint                `json:"issue_id"`
	UserID        uint                `json:"user_id"`
	Action        string              `json:"action"`
	FieldChanged  string              `json:"field_changed,omitempty"`
	PreviousValue string              `json:"previous_value,omitempty"`
	NewValue      string              `json:"new_value,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	User          *types.UserResponse `json:"user,omitempty"`
	IssueTitle    string              `json:"issue_title,omitempty"`
}

func activityResponse(entry models.ActivityLog) ActivityResponse {
	response := ActivityResponse{
		ID:            entry.ID,
		IssueID:       entry.IssueID,
		UserID:        entry.UserID,
		Action:        entry.Action,
		FieldChanged:  entry.FieldChanged,
		PreviousValue: entry.PreviousValue,
		NewValue:      entry.NewValue,
		CreatedAt:     entry.CreatedAt,
		IssueTitle:    entry.Issue.Title,
	}

	if entry.User.ID != 0 {
		user := userResponse(entry.User)
		response.User = &user
	}

	return response
}

// ListByIssue returns an issue's audit trail newest-first.
func (h *ActivityHandler) ListByIssue(ctx *gin.Context) {
	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var entries []models.ActivityLog

	err = h.DB.Preload("User").
		Where("issue_id = ?", issueID).
		Order("created_at DESC").
		Find(&entries).Error

	if err != nil {
		log.Printf("Failed to list activity: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity"})
		return
	}

	response := make([]ActivityResponse, 0, len(entries))

	for _, entry := range entries {
		response = append(response, activityResponse(entry))
	}

	ctx.JSON(http.StatusOK, response)
}

// ListByProject returns recent activity across all of a project's issues.
func (h *ActivityHandler) ListByProject(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var entries []models.ActivityLog

	err = h.DB.Preload("User").
		Preload("Issue").
		Where("issue_id IN (?)",
			h.DB.Model(&models.Issue{}).Select("id").Where("project_id = ?", projectID),
		).
		Order("created_at DESC").
		Limit(projectFeedLimit).
		Find(&entries).Error

	if err != nil {
		log.Printf("Failed to list project activity: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity"})
		return
	}

	response := make([]ActivityResponse, 0, len(entries))

	for _, entry := range entries {
		response = append(response, activityResponse(entry))
	}

	ctx.JSON(http.StatusOK, response)
}
