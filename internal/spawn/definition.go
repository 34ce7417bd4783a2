// Package spawn loads agent definitions and builds restricted sub-agent
// clients over the claude CLI: tool allowlists from frontmatter, a
// project-scoped security profile, and the delegation context handed to the
// agent.
package spawn

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FallbackAgent is used when the requested agent has no definition file.
const FallbackAgent = "implementer"

// localAgentsDir is the per-project agent definition directory.
const localAgentsDir = ".claude/agents/agent-os"

// masterAgentsDir is the shared definition directory under the master root.
const masterAgentsDir = "profiles/default/agents"

// Definition is a loaded agent definition: where it came from, its parsed
// frontmatter, and the prompt body.
type Definition struct {
	Path        string
	Frontmatter Frontmatter
	Prompt      string
}

// NotFoundError reports that neither the requested agent nor the fallback
// could be found at any search location.
type NotFoundError struct {
	Agent    string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agent %q not found and fallback %q unavailable, searched: %s",
		e.Agent, FallbackAgent, strings.Join(e.Searched, ", "))
}

// DefaultMasterDir returns the master agent root, ~/agent-os.
func DefaultMasterDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "agent-os"
	}
	return filepath.Join(home, "agent-os")
}

// LoadDefinition finds and parses an agent definition with the priority
// cascade: project-local, then master, then the fallback agent at both
// locations. An empty masterDir means the default master root.
func LoadDefinition(agentName, projectDir, masterDir string) (*Definition, error) {
	if masterDir == "" {
		masterDir = DefaultMasterDir()
	}

	searchPaths := []string{
		filepath.Join(projectDir, localAgentsDir, agentName+".md"),
		filepath.Join(masterDir, masterAgentsDir, agentName+".md"),
		filepath.Join(projectDir, localAgentsDir, FallbackAgent+".md"),
		filepath.Join(masterDir, masterAgentsDir, FallbackAgent+".md"),
	}

	for _, path := range searchPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		fm, body := splitFrontmatter(string(data))
		return &Definition{
			Path:        path,
			Frontmatter: fm,
			Prompt:      strings.TrimSpace(body),
		}, nil
	}

	return nil, &NotFoundError{Agent: agentName, Searched: searchPaths}
}
