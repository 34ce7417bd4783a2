package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MarkerFile records tracker-initialization state inside a project
// directory.
const MarkerFile = ".beads_project.json"

// dataDir is the tracker's own state directory. Exactly one canonical
// instance is permitted, at the workspace root; copies under spec
// directories are rogue.
const dataDir = ".beads"

// State is the content of a project marker file.
type State struct {
	Initialized bool      `json:"initialized"`
	MetaIssueID string    `json:"meta_issue_id,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// LoadState reads the marker file in dir. A missing or unreadable marker
// yields nil: marker state is advisory bookkeeping, never a failure.
func LoadState(dir string) *State {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if err != nil {
		return nil
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil
	}
	return &state
}

// SaveState writes the marker file in dir.
func SaveState(dir string, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal marker state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MarkerFile), data, 0644); err != nil {
		return fmt.Errorf("write marker file: %w", err)
	}
	return nil
}

// IsInitialized reports whether the tracker is set up at root: the state
// directory exists and the marker confirms initialization.
func IsInitialized(root string) bool {
	info, err := os.Stat(filepath.Join(root, dataDir))
	if err != nil || !info.IsDir() {
		return false
	}
	state := LoadState(root)
	return state != nil && state.Initialized
}

// IsSpecInitialized reports whether a spec directory has had its issues
// created: its marker exists and carries a meta issue id.
func IsSpecInitialized(specDir string) bool {
	state := LoadState(specDir)
	return state != nil && state.MetaIssueID != ""
}

// DetectRogueDirs finds tracker state directories under specsDir. Only the
// root-level instance is canonical; any other is a rogue directory left by
// a misconfigured run and should be migrated into the root database.
func DetectRogueDirs(specsDir string) []string {
	entries, err := os.ReadDir(specsDir)
	if err != nil {
		return nil
	}

	var rogue []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(specsDir, entry.Name(), dataDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			rogue = append(rogue, candidate)
		}
	}
	return rogue
}
