package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bugline-dev/bugline/internal/models"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed    = 16711680 // #FF0000 - critical priority
	ColorBlue   = 3447003  // #3498DB - new issue
	ColorGreen  = 65280    // #00FF00 - issue done
	ColorOrange = 16753920 // #FFA500 - status moved

	Username = "Bugline"
)

// SendIssueCreatedNotification posts to whichever webhooks the project has
// configured. Callers fire it in a goroutine; a failed post only logs.
func SendIssueCreatedNotification(project models.Project, issue models.Issue) error {
	if project.DiscordWebhook != "" {
		if err := sendDiscordIssueCreated(project.DiscordWebhook, project, issue); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if project.SlackWebhook != "" {
		if err := sendSlackIssueCreated(project.SlackWebhook, project, issue); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func SendIssueStatusNotification(project models.Project, issue models.Issue, previousStatus string) error {
	if project.DiscordWebhook != "" {
		if err := sendDiscordIssueStatus(project.DiscordWebhook, project, issue, previousStatus); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if project.SlackWebhook != "" {
		if err := sendSlackIssueStatus(project.SlackWebhook, project, issue, previousStatus); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func issueColor(issue models.Issue) int {
	if issue.Status == "done" {
		return ColorGreen
	}
	if issue.Priority == "critical" {
		return ColorRed
	}
	return ColorOrange
}

func sendDiscordIssueCreated(webhookURL string, project models.Project, issue models.Issue) error {
	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "New issue filed",
				Description: issue.Title,
				Color:       ColorBlue,
				Fields: []DiscordWebhookField{
					{Name: "Type", Value: issue.IssueType, Inline: true},
					{Name: "Priority", Value: issue.Priority, Inline: true},
					{Name: "Status", Value: issue.Status, Inline: true},
				},
				Footer: &DiscordFooter{
					Text: fmt.Sprintf("Project: %s", project.Name),
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return sendDiscordWebhook(webhookURL, payload)
}

func sendDiscordIssueStatus(webhookURL string, project models.Project, issue models.Issue, previousStatus string) error {
	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "Issue moved",
				Description: issue.Title,
				Color:       issueColor(issue),
				Fields: []DiscordWebhookField{
					{Name: "From", Value: previousStatus, Inline: true},
					{Name: "To", Value: issue.Status, Inline: true},
					{Name: "Priority", Value: issue.Priority, Inline: true},
				},
				Footer: &DiscordFooter{
					Text: fmt.Sprintf("Project: %s", project.Name),
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return sendDiscordWebhook(webhookURL, payload)
}

func sendSlackIssueCreated(webhookURL string, project models.Project, issue models.Issue) error {
	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":beetle:",
		Text:      "*New issue filed*",
		Attachments: []SlackAttachment{
			{
				Color: "#3498DB",
				Title: issue.Title,
				Text:  issue.Description,
				Fields: []SlackField{
					{Title: "Type", Value: issue.IssueType, Short: true},
					{Title: "Priority", Value: issue.Priority, Short: true},
					{Title: "Status", Value: issue.Status, Short: true},
				},
				Footer:    fmt.Sprintf("Project: %s", project.Name),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return sendSlackWebhook(webhookURL, payload)
}

func sendSlackIssueStatus(webhookURL string, project models.Project, issue models.Issue, previousStatus string) error {
	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":arrows_counterclockwise:",
		Text:      "*Issue moved*",
		Attachments: []SlackAttachment{
			{
				Color: "warning",
				Title: issue.Title,
				Fields: []SlackField{
					{Title: "From", Value: previousStatus, Short: true},
					{Title: "To", Value: issue.Status, Short: true},
					{Title: "Priority", Value: issue.Priority, Short: true},
				},
				Footer:    fmt.Sprintf("Project: %s", project.Name),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return sendSlackWebhook(webhookURL, payload)
}

func sendDiscordWebhook(webhookURL string, payload DiscordWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func sendSlackWebhook(webhookURL string, payload SlackWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}
