package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bugline-dev/bugline/internal/models"
	"github.com/bugline-dev/bugline/internal/types"
	"github.com/bugline-dev/bugline/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentHandler struct {
	DB *gorm.DB
}

func NewAttachmentHandler(database *gorm.DB) *AttachmentHandler {
	return &AttachmentHandler{DB: database}
}

type AttachmentResponse struct {
	ID          uint                `json:"id"`
	IssueID     uint                `json:"issue_id"`
	UploadedBy  uint                `json:"uploaded_by"`
	FileName    string              `json:"file_name"`
	FileSize    int64               `json:"file_size"`
	FileType    string              `json:"file_type"`
	FileURL     string              `json:"file_url"`
	CreatedAt   time.Time           `json:"created_at"`
	Uploader    *types.UserResponse `json:"uploader,omitempty"`
}

func attachmentResponse(attachment models.Attachment) AttachmentResponse {
	response := AttachmentResponse{
		ID:         attachment.ID,
		IssueID:    attachment.IssueID,
		UploadedBy: attachment.UploadedBy,
		FileName:   attachment.FileName,
		FileSize:   attachment.FileSize,
		FileType:   attachment.FileType,
		FileURL:    attachment.FileURL,
		CreatedAt:  attachment.CreatedAt,
	}

	if attachment.Uploader.ID != 0 {
		uploader := userResponse(attachment.Uploader)
		response.Uploader = &uploader
	}

	return response
}

func allowedExtension(name string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	for _, allowed := range types.AllowedFileTypes() {
		if ext == allowed {
			return ext, true
		}
	}

	return ext, false
}

func (h *AttachmentHandler) List(ctx *gin.Context) {
	issueID, err := utils.GetIssueID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var attachments []models.Attachment

	err = h.DB.Preload("Uploader").
		Where("issue_id = ?", issueID).
		Order("created_at DESC").
		Find(&attachments).Error

	if err != nil {
		log.Printf("Failed to list attachments: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachments"})
		return
	}

	response := make([]AttachmentResponse, 0, len(attachments))

	for _, attachment := range attachments {
		response = append(response, attachmentResponse(attachment))
	}

	ctx.JSON(http.StatusOK, response)
}

// Upload stores the multipart file on disk under a collision-free name and
// records its metadata. The request blocks for the duration of the write.
func (h *AttachmentHandler) Upload(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	issueIDRaw := ctx.PostForm("issue_id")
	issueID, err := strconv.ParseUint(issueIDRaw, 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue_id"})
		return
	}

	var issue models.Issue

	if err := h.DB.First(&issue, uint(issueID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			log.Printf("Failed to fetch issue: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	file, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	if file.Size > types.MaxFileSize() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	ext, ok := allowedExtension(file.Filename)

	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File type %s not allowed", ext)})
		return
	}

	uploadsDir := types.UploadsDir()

	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		log.Printf("Failed to create uploads directory: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	storedName := fmt.Sprintf("file-%s.%s", uuid.NewString(), ext)
	storagePath := filepath.Join(uploadsDir, storedName)

	if err := ctx.SaveUploadedFile(file, storagePath); err != nil {
		log.Printf("Failed to save uploaded file: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	attachment := models.Attachment{
		IssueID:     uint(issueID),
		UploadedBy:  userID,
		FileName:    file.Filename,
		FileSize:    file.Size,
		FileType:    file.Header.Get("Content-Type"),
		FileURL:     "/uploads/" + storedName,
		StoragePath: storagePath,
	}

	if err := h.DB.Create(&attachment).Error; err != nil {
		log.Printf("Failed to create attachment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create attachment"})
		return
	}

	ctx.JSON(http.StatusCreated, attachmentResponse(attachment))
}

func (h *AttachmentHandler) Delete(ctx *gin.Context) {
	attachmentID, err := utils.GetUintParam(ctx, "attachment_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := utils.CheckOwnership(h.DB, "attachments", attachmentID, "uploaded_by", userID); err != nil {
		respondOwnershipError(ctx, err, "Attachment")
		return
	}

	var attachment models.Attachment

	if err := h.DB.First(&attachment, attachmentID).Error; err != nil {
		log.Printf("Failed to fetch attachment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachment"})
		return
	}

	if err := h.DB.Delete(&attachment).Error; err != nil {
		log.Printf("Failed to delete attachment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete attachment"})
		return
	}

	// Disk cleanup is best-effort; the row is already gone
	if err := os.Remove(attachment.StoragePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove stored file %s: %v", attachment.StoragePath, err)
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Attachment deleted"})
}
