package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bugline-dev/bugline/internal/models"
	"github.com/bugline-dev/bugline/internal/types"
	"github.com/bugline-dev/bugline/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommentHandler struct {
	DB *gorm.DB
}

func NewCommentHandler(database *gorm.DB) *CommentHandler {
	return &CommentHandler{DB: database}
}

type CreateCommentRequest struct {
	IssueID         uint   `json:"issue_id" binding:"required"`
	Content         string `json:"content"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}

type UpdateCommentRequest struct {
	Content string `json:"content"`
}

type CommentResponse struct {
	ID              uint                `json:"id"`
	IssueID         uint                `json:"issue_id"`
	AuthorID        uint                `json:"author_id"`
	Content         string              `json:"content"`
	ParentCommentID *uint               `json:"parent_comment_id"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Author          *types.UserResponse `json:"author,omitempty"`
	Replies         []CommentResponse   `json:"replies,omitempty"`
}

func commentResponse(comment models.Comment) CommentResponse {
	response := CommentResponse{
		ID:              comment.ID,
		IssueID:         comment.IssueID,
		AuthorID:        comment.AuthorID,
		Content:         comment.Content,
		ParentCommentID: comment.ParentCommentID,
		CreatedAt:       comment.CreatedAt,
		UpdatedAt:       comment.UpdatedAt,
	}

	if comment.Author.ID != 0 {
		author := userResponse(comment.Author)
		response.Author = &author
	}

	for _, reply := range comment.Replies {
		response.Replies = append(response.Replies, commentResponse(reply))
	}

	return response
}

// List returns an issue's top-level comments oldest-first, each carrying its
// author and one level of replies. Replies of replies are not expanded.
func (h *CommentHandler) List(ctx *gin.Context) {
	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var comments []models.Comment

	err = h.DB.Preload("Author").
		Preload("Replies.Author").
		Where("issue_id = ? AND parent_comment_id IS NULL", issueID).
		Order("created_at ASC").
		Find(&comments).Error

	if err != nil {
		log.Printf("Failed to list comments: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	response := make([]CommentResponse, 0, len(comments))

	for _, comment := range comments {
		response = append(response, commentResponse(comment))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *CommentHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateCommentRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req.Content = strings.TrimSpace(req.Content)

	if req.Content == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Comment cannot be empty"})
		return
	}

	var issue models.Issue

	if err := h.DB.First(&issue, req.IssueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			log.Printf("Failed to fetch issue: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	comment := models.Comment{
		IssueID:         req.IssueID,
		AuthorID:        userID,
		Content:         req.Content,
		ParentCommentID: req.ParentCommentID,
	}

	if err := h.DB.Create(&comment).Error; err != nil {
		log.Printf("Failed to create comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	ctx.JSON(http.StatusCreated, commentResponse(comment))
}

func (h *CommentHandler) Update(ctx *gin.Context) {
	commentID, err := utils.GetUintParam(ctx, "comment_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := utils.CheckOwnership(h.DB, "comments", commentID, "author_id", userID); err != nil {
		respondOwnershipError(ctx, err, "Comment")
		return
	}

	var req UpdateCommentRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req.Content = strings.TrimSpace(req.Content)

	if req.Content == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Comment cannot be empty"})
		return
	}

	var comment models.Comment

	if err := h.DB.First(&comment, commentID).Error; err != nil {
		log.Printf("Failed to fetch comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comment"})
		return
	}

	if err := h.DB.Model(&comment).Update("content", req.Content).Error; err != nil {
		log.Printf("Failed to update comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	if err := h.DB.First(&comment, commentID).Error; err != nil {
		log.Printf("Failed to refresh comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, commentResponse(comment))
}

func (h *CommentHandler) Delete(ctx *gin.Context) {
	commentID, err := utils.GetUintParam(ctx, "comment_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := utils.CheckOwnership(h.DB, "comments", commentID, "author_id", userID); err != nil {
		respondOwnershipError(ctx, err, "Comment")
		return
	}

	if err := h.DB.Delete(&models.Comment{}, commentID).Error; err != nil {
		log.Printf("Failed to delete comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
