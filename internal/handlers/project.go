package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/bugline-dev/bugline/internal/models"
	"github.com/bugline-dev/bugline/internal/types"
	"github.com/bugline-dev/bugline/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	DB *gorm.DB
}

func NewProjectHandler(database *gorm.DB) *ProjectHandler {
	return &ProjectHandler{DB: database}
}

type CreateProjectRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	Key            string `json:"key" binding:"required,min=2,max=10"`
	DiscordWebhook string `json:"discord_webhook"`
	SlackWebhook   string `json:"slack_webhook"`
}

type UpdateProjectRequest struct {
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	Status         string  `json:"status"`
	DiscordWebhook *string `json:"discord_webhook"`
	SlackWebhook   *string `json:"slack_webhook"`
}

type AddMemberRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

type ProjectResponse struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Key         string              `json:"key"`
	OwnerID     uint                `json:"owner_id"`
	Status      string              `json:"status"`
	Owner       *types.UserResponse `json:"owner,omitempty"`
	Members     []MemberResponse    `json:"members,omitempty"`
}

type MemberResponse struct {
	ID     uint                `json:"id"`
	UserID uint                `json:"user_id"`
	Role   string              `json:"role"`
	User   *types.UserResponse `json:"user,omitempty"`
}

func projectResponse(project models.Project) ProjectResponse {
	response := ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Key:         project.Key,
		OwnerID:     project.OwnerID,
		Status:      project.Status,
	}

	if project.Owner.ID != 0 {
		owner := userResponse(project.Owner)
		response.Owner = &owner
	}

	for _, member := range project.Members {
		m := MemberResponse{
			ID:     member.ID,
			UserID: member.UserID,
			Role:   member.Role,
		}
		if member.User.ID != 0 {
			u := userResponse(member.User)
			m.User = &u
		}
		response.Members = append(response.Members, m)
	}

	return response
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// Create inserts the project and its owner-admin membership in one
// transaction so a project never exists without a member.
func (h *ProjectHandler) Create(ctx *gin.Context) {
	var req CreateProjectRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Name and key are required"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project := models.Project{
		Name:           req.Name,
		Description:    req.Description,
		Key:            strings.ToUpper(strings.TrimSpace(req.Key)),
		OwnerID:        userID,
		Status:         "active",
		DiscordWebhook: req.DiscordWebhook,
		SlackWebhook:   req.SlackWebhook,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    userID,
			Role:      types.RoleAdmin,
		}

		return tx.Create(&member).Error
	})

	if err != nil {
		if isUniqueViolation(err) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Project key already exists"})
			return
		}
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusCreated, projectResponse(project))
}

// List returns every project the caller owns or belongs to.
func (h *ProjectHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var projects []models.Project

	err = h.DB.Preload("Members").
		Where("owner_id = ? OR id IN (?)",
			userID,
			h.DB.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID),
		).
		Find(&projects).Error

	if err != nil {
		log.Printf("Failed to list projects: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, 0, len(projects))

	for _, project := range projects {
		response = append(response, projectResponse(project))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *ProjectHandler) Get(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var project models.Project

	if err := h.DB.Preload("Owner").Preload("Members.User").First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			log.Printf("Failed to fetch project: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(project))
}

func (h *ProjectHandler) Update(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := utils.CheckOwnership(h.DB, "projects", projectID, "owner_id", userID); err != nil {
		respondOwnershipError(ctx, err, "Project")
		return
	}

	var req UpdateProjectRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.DiscordWebhook != nil {
		updates["discord_webhook"] = *req.DiscordWebhook
	}
	if req.SlackWebhook != nil {
		updates["slack_webhook"] = *req.SlackWebhook
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	var project models.Project

	if err := h.DB.First(&project, projectID).Error; err != nil {
		log.Printf("Failed to fetch project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	if err := h.DB.Model(&project).Updates(updates).Error; err != nil {
		log.Printf("Failed to update project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	if err := h.DB.First(&project, projectID).Error; err != nil {
		log.Printf("Failed to refresh project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(project))
}

func (h *ProjectHandler) Delete(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := utils.CheckOwnership(h.DB, "projects", projectID, "owner_id", userID); err != nil {
		respondOwnershipError(ctx, err, "Project")
		return
	}

	if err := h.DB.Delete(&models.Project{}, projectID).Error; err != nil {
		log.Printf("Failed to delete project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// AddMember requires the caller to hold the admin role on the project.
func (h *ProjectHandler) AddMember(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req AddMemberRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	if req.Role == "" {
		req.Role = types.RoleDeveloper
	}

	if !types.ValidMemberRole(req.Role) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	var caller models.ProjectMember

	err = h.DB.Where("project_id = ? AND user_id = ?", projectID, userID).First(&caller).Error

	if err != nil || caller.Role != types.RoleAdmin {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admins can add members"})
		return
	}

	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    req.UserID,
		Role:      req.Role,
	}

	if err := h.DB.Create(&member).Error; err != nil {
		if isUniqueViolation(err) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is already a member"})
			return
		}
		log.Printf("Failed to add member: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	ctx.JSON(http.StatusCreated, MemberResponse{
		ID:     member.ID,
		UserID: member.UserID,
		Role:   member.Role,
	})
}

func respondOwnershipError(ctx *gin.Context, err error, resource string) {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
	case errors.Is(err, utils.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	default:
		log.Printf("Ownership check failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
