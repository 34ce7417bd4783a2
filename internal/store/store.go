package store

import (
	"context"

	"director/internal/models"
)

// SessionFilter specifies filters for listing spawn sessions.
type SessionFilter struct {
	IssueID string
	Status  models.SessionStatus
	Limit   int
}

// Store defines the persistence interface for director.
type Store interface {
	// Spawn sessions
	CreateSession(ctx context.Context, session *models.SpawnSession) error
	GetSession(ctx context.Context, id string) (*models.SpawnSession, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]*models.SpawnSession, error)
	UpdateSession(ctx context.Context, session *models.SpawnSession) error
	CompleteSession(ctx context.Context, id string, status models.SessionStatus, outcome string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
