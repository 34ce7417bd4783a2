package models

import "time"

// SessionStatus represents the state of a spawned sub-agent session.
type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
	SessionStatusTimedOut  SessionStatus = "timed_out"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// SpawnSession is one sub-agent execution tied to a tracker issue.
type SpawnSession struct {
	ID         string
	IssueID    string
	AgentType  string
	ProjectDir string
	Model      string
	Status     SessionStatus
	Outcome    string
	StartedAt  time.Time
	EndedAt    *time.Time
}
