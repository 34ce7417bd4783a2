package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"director/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent sessions.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Spawn sessions ---

func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.SpawnSession) error {
	if session.ID == "" {
		session.ID = newULID()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	if session.Status == "" {
		session.Status = models.SessionStatusRunning
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO spawn_sessions (id, issue_id, agent_type, project_dir, model, status, outcome, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.IssueID, session.AgentType, session.ProjectDir,
		session.Model, string(session.Status), session.Outcome,
		session.StartedAt, session.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("create spawn session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.SpawnSession, error) {
	session := &models.SpawnSession{}
	var status string
	var endedAt sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, issue_id, agent_type, project_dir, model, status, outcome, started_at, ended_at
		FROM spawn_sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.IssueID, &session.AgentType, &session.ProjectDir,
		&session.Model, &status, &session.Outcome, &session.StartedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("spawn session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get spawn session: %w", err)
	}

	session.Status = models.SessionStatus(status)
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}
	return session, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]*models.SpawnSession, error) {
	query := `SELECT id, issue_id, agent_type, project_dir, model, status, outcome, started_at, ended_at
		FROM spawn_sessions WHERE 1=1`
	var args []any

	if filter.IssueID != "" {
		query += " AND issue_id = ?"
		args = append(args, filter.IssueID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list spawn sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.SpawnSession
	for rows.Next() {
		session := &models.SpawnSession{}
		var status string
		var endedAt sql.NullTime
		if err := rows.Scan(&session.ID, &session.IssueID, &session.AgentType,
			&session.ProjectDir, &session.Model, &status, &session.Outcome,
			&session.StartedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan spawn session: %w", err)
		}
		session.Status = models.SessionStatus(status)
		if endedAt.Valid {
			session.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, session *models.SpawnSession) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE spawn_sessions SET issue_id = ?, agent_type = ?, project_dir = ?, model = ?, status = ?, outcome = ?, ended_at = ?
		WHERE id = ?`,
		session.IssueID, session.AgentType, session.ProjectDir, session.Model,
		string(session.Status), session.Outcome, session.EndedAt, session.ID,
	)
	if err != nil {
		return fmt.Errorf("update spawn session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update spawn session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("spawn session not found: %s", session.ID)
	}
	return nil
}

// CompleteSession marks a session finished with a terminal status and
// outcome, stamping the end time.
func (s *SQLiteStore) CompleteSession(ctx context.Context, id string, status models.SessionStatus, outcome string) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE spawn_sessions SET status = ?, outcome = ?, ended_at = ? WHERE id = ?`,
		string(status), outcome, now, id,
	)
	if err != nil {
		return fmt.Errorf("complete spawn session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete spawn session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("spawn session not found: %s", id)
	}
	return nil
}
