package types

// Issue field enumerations. Status values double as the kanban board columns.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusInReview   = "in_review"
	StatusDone       = "done"
)

const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionStatusChanged = "status_changed"
)

const (
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
	RoleViewer    = "viewer"
)

var (
	IssueStatuses   = []string{StatusTodo, StatusInProgress, StatusInReview, StatusDone}
	IssueTypes      = []string{"bug", "feature", "task", "improvement"}
	IssuePriorities = []string{"low", "medium", "high", "critical"}
	MemberRoles     = []string{RoleAdmin, RoleDeveloper, RoleViewer}
)

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

func ValidIssueStatus(status string) bool {
	return contains(IssueStatuses, status)
}

func ValidIssueType(issueType string) bool {
	return contains(IssueTypes, issueType)
}

func ValidIssuePriority(priority string) bool {
	return contains(IssuePriorities, priority)
}

func ValidMemberRole(role string) bool {
	return contains(MemberRoles, role)
}
