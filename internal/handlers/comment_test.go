package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/bugline-dev/bugline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	t.Run("rejects empty content", func(t *testing.T) {
		database := createTestDB(t)
		r := newTestRouter(t, database)
		user, token := createTestUser(t, database, "author@example.com")
		project := createTestProject(t, database, user.ID, "CMT")
		issue := createTestIssue(t, database, project.ID, user.ID, "Needs discussion")

		w := performRequest(r, http.MethodPost, "/api/comments", map[string]interface{}{
			"issue_id": issue.ID,
			"content":  "   ",
		}, token)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("trims and stores content", func(t *testing.T) {
		database := createTestDB(t)
		r := newTestRouter(t, database)
		user, token := createTestUser(t, database, "author@example.com")
		project := createTestProject(t, database, user.ID, "CMT")
		issue := createTestIssue(t, database, project.ID, user.ID, "Needs discussion")

		w := performRequest(r, http.MethodPost, "/api/comments", map[string]interface{}{
			"issue_id": issue.ID,
			"content":  "  I can reproduce this  ",
		}, token)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		body := decodeBody(t, w)
		assert.Equal(t, "I can reproduce this", body["content"])
		assert.Equal(t, float64(user.ID), body["author_id"])
	})

	t.Run("rejects unknown issue", func(t *testing.T) {
		database := createTestDB(t)
		r := newTestRouter(t, database)
		_, token := createTestUser(t, database, "author@example.com")

		w := performRequest(r, http.MethodPost, "/api/comments", map[string]interface{}{
			"issue_id": uint(999),
			"content":  "Orphan comment",
		}, token)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListComments(t *testing.T) {
	t.Run("returns threads with one reply level", func(t *testing.T) {
		database := createTestDB(t)
		r := newTestRouter(t, database)
		user, token := createTestUser(t, database, "author@example.com")
		project := createTestProject(t, database, user.ID, "CMT")
		issue := createTestIssue(t, database, project.ID, user.ID, "Needs discussion")

		parent := models.Comment{IssueID: issue.ID, AuthorID: user.ID, Content: "Top level"}
		require.NoError(t, database.Create(&parent).Error)

		reply := models.Comment{IssueID: issue.ID, AuthorID: user.ID, Content: "A reply", ParentCommentID: &parent.ID}
		require.NoError(t, database.Create(&reply).Error)

		w := performRequest(r, http.MethodGet, fmt.Sprintf("/api/comments/issue/%d", issue.ID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		list := decodeList(t, w)
		require.Len(t, list, 1, "replies must not appear as top-level comments")
		assert.Equal(t, "Top level", list[0]["content"])

		replies, ok := list[0]["replies"].([]interface{})
		require.True(t, ok, "expected replies array")
		require.Len(t, replies, 1)
		assert.Equal(t, "A reply", replies[0].(map[string]interface{})["content"])
	})
}

func TestUpdateComment(t *testing.T) {
	t.Run("author can edit", func(t *testing.T) {
		database := createTestDB(t)
		r := newTestRouter(t, database)
		user, token := createTestUser(t, database, "author@example.com")
		project := createTestProject(t, database, user.ID, "CMT")
		issue := createTestIssue(t, database, project.ID, user.ID, "Needs discussion")

		comment := models.Comment{IssueID: issue.ID, AuthorID: user.ID, Content: "Typo here"}
		require.NoError(t, database.Create(&comment).Error)

		w := performRequest(r, http.MethodPut, fmt.Sprintf("/api/comments/%d", comment.ID), map[string]interface{}{
			"content": "Fixed wording",
		}, token)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Fixed wording", decodeBody(t, w)["content"])
	})

	t.Run("non-author is forbidden and the record is unchanged", func(t *testing.T) {
		database := createTestDB(t)
		r := newTestRouter(t, database)
		author, _ := createTestUser(t, database, "author@example.com")
		_, otherToken := createTestUser(t, database, "other@example.com")
		project := createTestProject(t, database, author.ID, "CMT")
		issue := createTestIssue(t, database, project.ID, author.ID, "Needs discussion")

		comment := models.Comment{IssueID: issue.ID, AuthorID: author.ID, Content: "Original"}
		require.NoError(t, database.Create(&comment).Error)

		w := performRequest(r, http.MethodPut, fmt.Sprintf("/api/comments/%d", comment.ID), map[string]interface{}{
			"content": "Vandalized",
		}, otherToken)

		assert.Equal(t, http.StatusForbidden, w.Code)

		var stored models.Comment
		require.NoError(t, database.First(&stored, comment.ID).Error)
		assert.Equal(t, "Original", stored.Content)
	})
}

func TestDeleteComment(t *testing.T) {
	t.Run("author can delete", func(t *testing.T) {
		database := createTestDB(t)
		r := newTestRouter(t, database)
		user, token := createTestUser(t, database, "author@example.com")
		project := createTestProject(t, database, user.ID, "CMT")
		issue := createTestIssue(t, database, project.ID, user.ID, "Needs discussion")

		comment := models.Comment{IssueID: issue.ID, AuthorID: user.ID, Content: "Delete me"}
		require.NoError(t, database.Create(&comment).Error)

		w := performRequest(r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var count int64
		database.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("non-author is forbidden", func(t *testing.T) {
		database := createTestDB(t)
		r := newTestRouter(t, database)
		author, _ := createTestUser(t, database, "author@example.com")
		_, otherToken := createTestUser(t, database, "other@example.com")
		project := createTestProject(t, database, author.ID, "CMT")
		issue := createTestIssue(t, database, project.ID, author.ID, "Needs discussion")

		comment := models.Comment{IssueID: issue.ID, AuthorID: author.ID, Content: "Protected"}
		require.NoError(t, database.Create(&comment).Error)

		w := performRequest(r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), nil, otherToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		var count int64
		database.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("missing comment yields not found", func(t *testing.T) {
		database := createTestDB(t)
		r := newTestRouter(t, database)
		_, token := createTestUser(t, database, "author@example.com")

		w := performRequest(r, http.MethodDelete, "/api/comments/424242", nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
