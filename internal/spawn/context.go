package spawn

import (
	"fmt"
	"strings"

	"director/internal/models"
)

// BuildDelegationContext formats the full context handed to a sub-agent:
// issue details, the agent's own prompt, and the task instructions with the
// required tracker bookkeeping steps.
func BuildDelegationContext(issue *models.Issue, agentPrompt, taskInstructions string) string {
	id := issue.ID
	if id == "" {
		id = "unknown"
	}
	title := issue.Title
	if title == "" {
		title = "Untitled"
	}
	description := issue.Description
	if description == "" {
		description = "No description"
	}
	priority := "P2"
	if issue.Priority != nil {
		priority = fmt.Sprintf("%d", *issue.Priority)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Issue Details\n")
	fmt.Fprintf(&b, "- ID: %s\n", id)
	fmt.Fprintf(&b, "- Title: %s\n", title)
	fmt.Fprintf(&b, "- Description: %s\n", description)
	fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(issue.Tags, ", "))
	fmt.Fprintf(&b, "- Priority: %s\n\n", priority)

	fmt.Fprintf(&b, "%s\n\n", agentPrompt)

	fmt.Fprintf(&b, "## Your Task\n%s\n\n", taskInstructions)
	fmt.Fprintf(&b, "**Required Steps:**\n")
	fmt.Fprintf(&b, "1. Claim this issue: `bd update %s --status in_progress`\n", id)
	fmt.Fprintf(&b, "2. Implement the solution\n")
	fmt.Fprintf(&b, "3. Write tests for your implementation\n")
	fmt.Fprintf(&b, "4. Close the issue: `bd close %s`\n", id)

	return b.String()
}
