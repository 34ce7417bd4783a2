package models

// IssueStatus represents the state of a tracker issue.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusClosed     IssueStatus = "closed"
)

// Issue is the normalized view of a tracker issue as returned by the
// issue-tracker CLI. Priority is a small integer where 0 is most urgent;
// nil means the tracker reported none.
type Issue struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Priority    *int     `json:"priority"`
	Assignee    string   `json:"assignee"`
	Status      string   `json:"status"`
}

// Closed reports whether the issue status counts as finished. Trackers use
// several synonyms for the terminal state.
func (i *Issue) Closed() bool {
	switch i.Status {
	case "done", "closed", "complete", "completed":
		return true
	}
	return false
}
