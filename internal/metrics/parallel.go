package metrics

import (
	"sort"
	"time"

	"director/internal/models"
)

// ParallelRecord is one parallel-round outcome used by the rolling
// success-rate signal.
type ParallelRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	ParallelCount int       `json:"parallel_count"`
	Conflicts     int       `json:"conflicts"`
	Success       bool      `json:"success"`
}

// NewParallelRecord builds a round record; a zero timestamp means now.
func NewParallelRecord(parallelCount, conflicts int, success bool, timestamp time.Time) ParallelRecord {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	return ParallelRecord{
		Timestamp:     timestamp,
		ParallelCount: parallelCount,
		Conflicts:     conflicts,
		Success:       success,
	}
}

// missingPriority sorts after every explicit priority (trackers use 0-4).
const missingPriority = 5

// SortByPriority returns a new slice sorted ascending by priority, 0 being
// most urgent. Issues without a priority sort after all prioritized ones.
// The input is not modified and the sort is stable.
func SortByPriority(issues []models.Issue) []models.Issue {
	sorted := make([]models.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priorityOf(sorted[i]) < priorityOf(sorted[j])
	})
	return sorted
}

func priorityOf(issue models.Issue) int {
	if issue.Priority == nil {
		return missingPriority
	}
	return *issue.Priority
}

// RoundsFromRecords views execution-log entries as round outcomes, so the
// rolling-window policies can run over the persisted log.
func RoundsFromRecords(records []ExecutionRecord) []ParallelRecord {
	rounds := make([]ParallelRecord, 0, len(records))
	for _, r := range records {
		rounds = append(rounds, NewParallelRecord(1, 0, r.Status == StatusSuccess, r.EndTime))
	}
	return rounds
}

// DefaultRateWindow is how many recent rounds CalculateSuccessRate
// considers by default.
const DefaultRateWindow = 10

// CalculateSuccessRate computes the fraction of successful rounds among the
// last window records. Empty input yields 0.0.
func CalculateSuccessRate(executions []ParallelRecord, window int) float64 {
	if len(executions) == 0 || window <= 0 {
		return 0
	}

	recent := executions
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	var successes int
	for _, e := range recent {
		if e.Success {
			successes++
		}
	}
	return float64(successes) / float64(len(recent))
}

// Parallelism bounds for the per-round scaling policy.
const (
	MinParallel = 1
	MaxParallel = 4
)

// RecommendParallelism scales the parallel agent count from the rolling
// success rate: >= 90% scales up by one, < 70% scales down by one,
// otherwise the current level holds. The result is clamped to
// [MinParallel, MaxParallel].
func RecommendParallelism(successRate float64, current int) int {
	next := current
	switch {
	case successRate >= 0.90:
		next = current + 1
	case successRate < 0.70:
		next = current - 1
	}
	return clamp(next, MinParallel, MaxParallel)
}

// Load bounds for the tracker-level policy.
const (
	MinLoad = 1
	MaxLoad = 5
)

// RecommendLoad is the tracker-level scaling policy, deliberately distinct
// from RecommendParallelism: it uses 0.80/0.50 thresholds, clamps to
// [MinLoad, MaxLoad], and only increases while the current load is below 3.
// Out-of-range success rates are clamped to [0, 1] before use.
func RecommendLoad(currentLoad int, successRate float64) int {
	if successRate < 0 {
		successRate = 0
	}
	if successRate > 1 {
		successRate = 1
	}

	next := currentLoad
	switch {
	case successRate > 0.8 && currentLoad < 3:
		next = currentLoad + 1
	case successRate < 0.5:
		next = currentLoad - 1
	}
	return clamp(next, MinLoad, MaxLoad)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
