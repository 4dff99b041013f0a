package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bugline-dev/bugline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *[][]byte) {
	var bodies [][]byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, body)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return server, &bodies
}

func TestSendIssueCreatedNotification(t *testing.T) {
	t.Run("no webhooks configured is a no-op", func(t *testing.T) {
		err := SendIssueCreatedNotification(models.Project{Name: "Tracker"}, models.Issue{Title: "Broken"})
		assert.NoError(t, err)
	})

	t.Run("posts the embed to the Discord webhook", func(t *testing.T) {
		server, bodies := captureServer(t, http.StatusNoContent)

		project := models.Project{Name: "Tracker", DiscordWebhook: server.URL}
		issue := models.Issue{Title: "Login broken", IssueType: "bug", Priority: "high", Status: "todo"}

		require.NoError(t, SendIssueCreatedNotification(project, issue))
		require.Len(t, *bodies, 1)

		var payload DiscordWebhookRequest
		require.NoError(t, json.Unmarshal((*bodies)[0], &payload))
		assert.Equal(t, Username, payload.Username)
		require.Len(t, payload.Embeds, 1)
		assert.Equal(t, "Login broken", payload.Embeds[0].Description)
		assert.Equal(t, ColorBlue, payload.Embeds[0].Color)
	})

	t.Run("posts the attachment to the Slack webhook", func(t *testing.T) {
		server, bodies := captureServer(t, http.StatusOK)

		project := models.Project{Name: "Tracker", SlackWebhook: server.URL}
		issue := models.Issue{Title: "Login broken", IssueType: "bug", Priority: "high", Status: "todo"}

		require.NoError(t, SendIssueCreatedNotification(project, issue))
		require.Len(t, *bodies, 1)

		var payload SlackWebhookRequest
		require.NoError(t, json.Unmarshal((*bodies)[0], &payload))
		require.Len(t, payload.Attachments, 1)
		assert.Equal(t, "Login broken", payload.Attachments[0].Title)
	})

	t.Run("error status from the webhook surfaces", func(t *testing.T) {
		server, _ := captureServer(t, http.StatusBadRequest)

		project := models.Project{Name: "Tracker", DiscordWebhook: server.URL}
		err := SendIssueCreatedNotification(project, models.Issue{Title: "Broken"})
		assert.Error(t, err)
	})
}

func TestSendIssueStatusNotification(t *testing.T) {
	server, bodies := captureServer(t, http.StatusNoContent)

	project := models.Project{Name: "Tracker", DiscordWebhook: server.URL}
	issue := models.Issue{Title: "Login broken", Priority: "medium", Status: "in_progress"}

	require.NoError(t, SendIssueStatusNotification(project, issue, "todo"))
	require.Len(t, *bodies, 1)

	var payload DiscordWebhookRequest
	require.NoError(t, json.Unmarshal((*bodies)[0], &payload))
	require.Len(t, payload.Embeds, 1)

	fields := payload.Embeds[0].Fields
	require.Len(t, fields, 3)
	assert.Equal(t, "todo", fields[0].Value)
	assert.Equal(t, "in_progress", fields[1].Value)
}

func TestIssueColor(t *testing.T) {
	assert.Equal(t, ColorGreen, issueColor(models.Issue{Status: "done", Priority: "critical"}))
	assert.Equal(t, ColorRed, issueColor(models.Issue{Status: "todo", Priority: "critical"}))
	assert.Equal(t, ColorOrange, issueColor(models.Issue{Status: "todo", Priority: "low"}))
}
