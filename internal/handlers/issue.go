package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bugline-dev/bugline/internal/activity"
	"github.com/bugline-dev/bugline/internal/models"
	"github.com/bugline-dev/bugline/internal/services"
	"github.com/bugline-dev/bugline/internal/types"
	"github.com/bugline-dev/bugline/internal/utils"
	"github.com/bugline-dev/bugline/internal/ws"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type IssueHandler struct {
	DB       *gorm.DB
	Recorder *activity.Recorder
	Hub      *ws.Hub
}

func NewIssueHandler(database *gorm.DB, recorder *activity.Recorder, hub *ws.Hub) *IssueHandler {
	return &IssueHandler{DB: database, Recorder: recorder, Hub: hub}
}

type CreateIssueRequest struct {
	ProjectID   uint       `json:"project_id" binding:"required"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IssueType   string     `json:"issue_type"`
	Priority    string     `json:"priority"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateIssueRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Status         *string    `json:"status"`
	Priority       *string    `json:"priority"`
	AssigneeID     *uint      `json:"assignee_id"`
	DueDate        *time.Time `json:"due_date"`
	EstimatedHours *float64   `json:"estimated_hours"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type IssueResponse struct {
	ID             uint                 `json:"id"`
	ProjectID      uint                 `json:"project_id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	IssueType      string               `json:"issue_type"`
	Priority       string               `json:"priority"`
	Status         string               `json:"status"`
	ReporterID     uint                 `json:"reporter_id"`
	AssigneeID     *uint                `json:"assignee_id"`
	DueDate        *time.Time           `json:"due_date"`
	EstimatedHours *float64             `json:"estimated_hours"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Reporter       *types.UserResponse  `json:"reporter,omitempty"`
	Assignee       *types.UserResponse  `json:"assignee,omitempty"`
	Comments       []CommentResponse    `json:"comments,omitempty"`
	Attachments    []AttachmentResponse `json:"attachments,omitempty"`
}

func issueResponse(issue models.Issue) IssueResponse {
	response := IssueResponse{
		ID:             issue.ID,
		ProjectID:      issue.ProjectID,
		Title:          issue.Title,
		Description:    issue.Description,
		IssueType:      issue.IssueType,
		Priority:       issue.Priority,
		Status:         issue.Status,
		ReporterID:     issue.ReporterID,
		AssigneeID:     issue.AssigneeID,
		DueDate:        issue.DueDate,
		EstimatedHours: issue.EstimatedHours,
		CreatedAt:      issue.CreatedAt,
		UpdatedAt:      issue.UpdatedAt,
	}

	if issue.Reporter.ID != 0 {
		reporter := userResponse(issue.Reporter)
		response.Reporter = &reporter
	}

	if issue.Assignee != nil && issue.Assignee.ID != 0 {
		assignee := userResponse(*issue.Assignee)
		response.Assignee = &assignee
	}

	for _, comment := range issue.Comments {
		response.Comments = append(response.Comments, commentResponse(comment))
	}

	for _, attachment := range issue.Attachments {
		response.Attachments = append(response.Attachments, attachmentResponse(attachment))
	}

	return response
}

func validateIssueInput(req CreateIssueRequest) map[string]string {
	fieldErrors := make(map[string]string)

	if len(strings.TrimSpace(req.Title)) < 3 {
		fieldErrors["title"] = "Title must be at least 3 characters"
	}

	if len(strings.TrimSpace(req.Description)) < 10 {
		fieldErrors["description"] = "Description must be at least 10 characters"
	}

	if !types.ValidIssueType(req.IssueType) {
		fieldErrors["issue_type"] = "Invalid issue type"
	}

	if !types.ValidIssuePriority(req.Priority) {
		fieldErrors["priority"] = "Invalid priority"
	}

	return fieldErrors
}

// List returns a project's issues newest-first, optionally narrowed by
// status, priority, assignee and a case-insensitive title substring. Filters
// combine with AND.
func (h *IssueHandler) List(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := h.DB.Preload("Reporter").Preload("Assignee").
		Where("project_id = ?", projectID)

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if priority := ctx.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}

	if assigneeID := ctx.Query("assignee_id"); assigneeID != "" {
		query = query.Where("assignee_id = ?", assigneeID)
	}

	if search := ctx.Query("search"); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var issues []models.Issue

	if err := query.Order("created_at DESC").Find(&issues).Error; err != nil {
		log.Printf("Failed to list issues: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	response := make([]IssueResponse, 0, len(issues))

	for _, issue := range issues {
		response = append(response, issueResponse(issue))
	}

	ctx.JSON(http.StatusOK, response)
}

// Get returns the issue with its comments (authors expanded) and attachments.
func (h *IssueHandler) Get(ctx *gin.Context) {
	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var issue models.Issue

	err = h.DB.Preload("Reporter").
		Preload("Assignee").
		Preload("Comments.Author").
		Preload("Attachments").
		First(&issue, issueID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			log.Printf("Failed to fetch issue: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	ctx.JSON(http.StatusOK, issueResponse(issue))
}

func (h *IssueHandler) Create(ctx *gin.Context) {
	var req CreateIssueRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if fieldErrors := validateIssueInput(req); len(fieldErrors) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var project models.Project

	if err := h.DB.First(&project, req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			log.Printf("Failed to fetch project: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	issue := models.Issue{
		ProjectID:   req.ProjectID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		IssueType:   req.IssueType,
		Priority:    req.Priority,
		Status:      types.StatusTodo,
		ReporterID:  userID,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}

	if err := h.DB.Create(&issue).Error; err != nil {
		log.Printf("Failed to create issue: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	// The audit write is observational: a failure is logged, not surfaced
	if err := h.Recorder.Created(issue.ID, userID, issue.Title); err != nil {
		log.Printf("Failed to record issue creation: %v", err)
	}

	h.Hub.BroadcastRefresh(issue.ProjectID)

	go func(project models.Project, issue models.Issue) {
		if err := services.SendIssueCreatedNotification(project, issue); err != nil {
			log.Printf("Failed to send issue webhook: %v", err)
		}
	}(project, issue)

	ctx.JSON(http.StatusCreated, issueResponse(issue))
}

// Update applies a partial field set. Every supplied field whose stringified
// value differs from the freshly read stored value yields one audit entry.
func (h *IssueHandler) Update(ctx *gin.Context) {
	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateIssueRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Status != nil && !types.ValidIssueStatus(*req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	if req.Priority != nil && !types.ValidIssuePriority(*req.Priority) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	// Fresh read so diffs are computed against current data, not a cached copy
	var issue models.Issue

	if err := h.DB.First(&issue, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			log.Printf("Failed to fetch issue: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	updates := make(map[string]interface{})
	var changes []activity.FieldChange

	consider := func(field string, previous string, current string, value interface{}) {
		updates[field] = value
		if previous != current {
			changes = append(changes, activity.FieldChange{
				Field:    field,
				Previous: previous,
				New:      current,
			})
		}
	}

	if req.Title != nil {
		consider("title", issue.Title, *req.Title, *req.Title)
	}
	if req.Description != nil {
		consider("description", issue.Description, *req.Description, *req.Description)
	}
	if req.Status != nil {
		consider("status", issue.Status, *req.Status, *req.Status)
	}
	if req.Priority != nil {
		consider("priority", issue.Priority, *req.Priority, *req.Priority)
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID == 0 {
			// Zero clears the assignee
			consider("assignee_id", activity.Stringify(issue.AssigneeID), "", nil)
		} else {
			consider("assignee_id", activity.Stringify(issue.AssigneeID), activity.Stringify(req.AssigneeID), *req.AssigneeID)
		}
	}
	if req.DueDate != nil {
		consider("due_date", activity.Stringify(issue.DueDate), activity.Stringify(req.DueDate), *req.DueDate)
	}
	if req.EstimatedHours != nil {
		consider("estimated_hours", activity.Stringify(issue.EstimatedHours), activity.Stringify(req.EstimatedHours), *req.EstimatedHours)
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	previousStatus := issue.Status

	if err := h.DB.Model(&issue).Updates(updates).Error; err != nil {
		log.Printf("Failed to update issue: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}

	if err := h.Recorder.RecordChanges(issue.ID, userID, changes); err != nil {
		log.Printf("Failed to record issue changes: %v", err)
	}

	if err := h.DB.First(&issue, issueID).Error; err != nil {
		log.Printf("Failed to refresh issue: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.Hub.BroadcastRefresh(issue.ProjectID)

	if req.Status != nil && *req.Status != previousStatus {
		h.notifyStatusChange(issue, previousStatus)
	}

	ctx.JSON(http.StatusOK, issueResponse(issue))
}

// UpdateStatus is the board-transition endpoint. It always writes exactly one
// status_changed entry, even when the card lands on its current column.
func (h *IssueHandler) UpdateStatus(ctx *gin.Context) {
	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateStatusRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	if !types.ValidIssueStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var issue models.Issue

	if err := h.DB.First(&issue, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			log.Printf("Failed to fetch issue: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	previousStatus := issue.Status

	if err := h.DB.Model(&issue).Update("status", req.Status).Error; err != nil {
		log.Printf("Failed to update issue status: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	if err := h.Recorder.StatusChanged(issue.ID, userID, previousStatus, req.Status); err != nil {
		log.Printf("Failed to record status change: %v", err)
	}

	issue.Status = req.Status

	h.Hub.BroadcastRefresh(issue.ProjectID)

	if req.Status != previousStatus {
		h.notifyStatusChange(issue, previousStatus)
	}

	ctx.JSON(http.StatusOK, issueResponse(issue))
}

func (h *IssueHandler) Delete(ctx *gin.Context) {
	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var issue models.Issue

	if err := h.DB.First(&issue, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			log.Printf("Failed to fetch issue: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	if err := h.DB.Delete(&issue).Error; err != nil {
		log.Printf("Failed to delete issue: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue"})
		return
	}

	h.Hub.BroadcastRefresh(issue.ProjectID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Issue deleted"})
}

func (h *IssueHandler) notifyStatusChange(issue models.Issue, previousStatus string) {
	var project models.Project

	if err := h.DB.First(&project, issue.ProjectID).Error; err != nil {
		log.Printf("Failed to fetch project for webhook: %v", err)
		return
	}

	go func() {
		if err := services.SendIssueStatusNotification(project, issue, previousStatus); err != nil {
			log.Printf("Failed to send status webhook: %v", err)
		}
	}()
}
