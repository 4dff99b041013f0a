package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bugline-dev/bugline/internal/activity"
	"github.com/bugline-dev/bugline/internal/auth"
	"github.com/bugline-dev/bugline/internal/middleware"
	"github.com/bugline-dev/bugline/internal/models"
	"github.com/bugline-dev/bugline/internal/ws"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBCounter int64

func init() {
	gin.SetMode(gin.TestMode)
}

func createTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique database name per test to avoid cross-test bleed
	counter := atomic.AddInt64(&testDBCounter, 1)
	dbName := fmt.Sprintf("file:handlers_test_%d.db?mode=memory&cache=shared", counter)

	database, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = database.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Issue{},
		&models.Comment{},
		&models.Attachment{},
		&models.ActivityLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return database
}

// newTestRouter mounts the same route table as the production router on a
// test engine.
func newTestRouter(t *testing.T, database *gorm.DB) *gin.Engine {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret")
	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("failed to init JWT secret: %v", err)
	}

	hub := ws.NewHub()
	recorder := activity.NewRecorder(database)

	authHandler := NewAuthHandler(database)
	userHandler := NewUserHandler(database)
	projectHandler := NewProjectHandler(database)
	issueHandler := NewIssueHandler(database, recorder, hub)
	commentHandler := NewCommentHandler(database)
	attachmentHandler := NewAttachmentHandler(database)
	activityHandler := NewActivityHandler(database)

	r := gin.New()
	api := r.Group("/api")

	api.GET("/health", HealthCheck)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/signup", authHandler.Signup)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.GET("/me", middleware.AuthMiddleware(), authHandler.Me)

	users := api.Group("/users", middleware.AuthMiddleware())
	users.GET("", userHandler.List)
	users.GET("/:user_id", userHandler.Get)
	users.PUT("/profile", userHandler.UpdateProfile)

	projects := api.Group("/projects", middleware.AuthMiddleware())
	projects.GET("", projectHandler.List)
	projects.POST("", projectHandler.Create)
	projects.GET("/:project_id", projectHandler.Get)
	projects.PUT("/:project_id", projectHandler.Update)
	projects.DELETE("/:project_id", projectHandler.Delete)
	projects.POST("/:project_id/members", projectHandler.AddMember)

	issues := api.Group("/issues", middleware.AuthMiddleware())
	issues.GET("/project/:project_id", issueHandler.List)
	issues.GET("/:issue_id", issueHandler.Get)
	issues.POST("", issueHandler.Create)
	issues.PUT("/:issue_id", issueHandler.Update)
	issues.PUT("/:issue_id/status", issueHandler.UpdateStatus)
	issues.DELETE("/:issue_id", issueHandler.Delete)

	comments := api.Group("/comments", middleware.AuthMiddleware())
	comments.GET("/issue/:issue_id", commentHandler.List)
	comments.POST("", commentHandler.Create)
	comments.PUT("/:comment_id", commentHandler.Update)
	comments.DELETE("/:comment_id", commentHandler.Delete)

	attachments := api.Group("/attachments", middleware.AuthMiddleware())
	attachments.GET("/issue/:issue_id", attachmentHandler.List)
	attachments.POST("", attachmentHandler.Upload)
	attachments.DELETE("/:attachment_id", attachmentHandler.Delete)

	activityRoutes := api.Group("/activity", middleware.AuthMiddleware())
	activityRoutes.GET("/issue/:issue_id", activityHandler.ListByIssue)
	activityRoutes.GET("/project/:project_id", activityHandler.ListByProject)

	return r
}

func createTestUser(t *testing.T, database *gorm.DB, email string) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := models.User{
		Email:        email,
		FullName:     "Test User",
		Role:         "user",
		PasswordHash: string(hash),
	}

	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return user, token
}

func createTestProject(t *testing.T, database *gorm.DB, ownerID uint, key string) models.Project {
	t.Helper()

	project := models.Project{
		Name:    "Test Project",
		Key:     key,
		OwnerID: ownerID,
		Status:  "active",
	}

	if err := database.Create(&project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}

	member := models.ProjectMember{
		ProjectID: project.ID,
		UserID:    ownerID,
		Role:      "admin",
	}

	if err := database.Create(&member).Error; err != nil {
		t.Fatalf("failed to create owner membership: %v", err)
	}

	return project
}

func createTestIssue(t *testing.T, database *gorm.DB, projectID uint, reporterID uint, title string) models.Issue {
	t.Helper()

	issue := models.Issue{
		ProjectID:   projectID,
		Title:       title,
		Description: "Something is broken and needs fixing",
		IssueType:   "bug",
		Priority:    "medium",
		Status:      "todo",
		ReporterID:  reporterID,
	}

	if err := database.Create(&issue).Error; err != nil {
		t.Fatalf("failed to create test issue: %v", err)
	}

	return issue
}

func performRequest(r http.Handler, method string, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader

	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body %q: %v", w.Body.String(), err)
	}

	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()

	var body []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body %q: %v", w.Body.String(), err)
	}

	return body
}
