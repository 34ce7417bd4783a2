package timeout

import "time"

// Timeout policy. Every call site that bounds an operation references these
// rather than inlining durations, so the policy can be tuned in one place.
const (
	// DefaultSubagentTimeout bounds a full sub-agent execution. Agents that
	// exceed it are cancelled and their work is marked for retry or
	// escalation.
	DefaultSubagentTimeout = 600 * time.Second

	// VerificationTimeout bounds quick verification operations such as
	// checking issue status after an agent finishes.
	VerificationTimeout = 30 * time.Second

	// CLIQueryTimeout bounds issue-tracker CLI queries, which should
	// return promptly.
	CLIQueryTimeout = 10 * time.Second

	// CleanupGrace is how long cleanup or cancellation acknowledgment may
	// run after the primary deadline has already expired.
	CleanupGrace = 5 * time.Second
)
