// Package metrics persists sub-agent execution records and derives
// parallelism recommendations from them.
//
// The execution log is a single shared append-only JSON file. Appends are
// read-modify-write with no file locking; truly simultaneous writers are
// last-writer-wins. Write concurrency is expected to be low and this is an
// accepted limitation rather than something the package tries to solve.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExecutionRecord is one sub-agent execution entry in the metrics log.
// Records are append-only: never updated or deleted individually.
type ExecutionRecord struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // seconds
	Status    string    `json:"status"`   // success, failure, timeout, ...
	AgentType string    `json:"agent_type"`
	IssueID   string    `json:"issue_id"`
}

// StatusSuccess is the status value counted by success-rate calculations.
const StatusSuccess = "success"

// SaveRecords writes the full record list to path, creating parent
// directories as needed.
func SaveRecords(records []ExecutionRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

// LoadRecords reads the record list at path. A missing or corrupted file
// yields nil rather than an error: the log self-heals on read, and callers
// can still append fresh records afterwards.
func LoadRecords(path string) []ExecutionRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var records []ExecutionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

// AppendRecord adds one record to the log at path, loading whatever is
// currently readable first.
func AppendRecord(record ExecutionRecord, path string) error {
	existing := LoadRecords(path)
	return SaveRecords(append(existing, record), path)
}

// RecordExecution builds an ExecutionRecord from execution parameters and
// appends it to the log at path.
func RecordExecution(issueID, agentType string, start, end time.Time, status, path string) error {
	record := ExecutionRecord{
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start).Seconds(),
		Status:    status,
		AgentType: agentType,
		IssueID:   issueID,
	}
	return AppendRecord(record, path)
}

// Filter narrows which records SuccessRate considers.
type Filter struct {
	AgentType  string        // only records for this agent type when non-empty
	TimeWindow time.Duration // only records started within this window when > 0
}

// SuccessRate computes the ratio of success-status records among those
// matching the filter. The second return is false when no records match,
// which is distinct from a genuine 0.0 rate.
func SuccessRate(path string, filter Filter) (float64, bool) {
	records := LoadRecords(path)
	if len(records) == 0 {
		return 0, false
	}

	cutoff := time.Time{}
	if filter.TimeWindow > 0 {
		cutoff = time.Now().Add(-filter.TimeWindow)
	}

	var matched, succeeded int
	for _, r := range records {
		if filter.AgentType != "" && r.AgentType != filter.AgentType {
			continue
		}
		if !cutoff.IsZero() && r.StartTime.Before(cutoff) {
			continue
		}
		matched++
		if r.Status == StatusSuccess {
			succeeded++
		}
	}

	if matched == 0 {
		return 0, false
	}
	return float64(succeeded) / float64(matched), true
}
