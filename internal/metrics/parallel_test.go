package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"director/internal/models"
)

func intp(v int) *int { return &v }

func TestSortByPriority(t *testing.T) {
	issues := []models.Issue{
		{ID: "a", Priority: intp(2)},
		{ID: "b", Priority: intp(0)},
		{ID: "c", Priority: intp(4)},
		{ID: "d", Priority: intp(1)},
	}
	sorted := SortByPriority(issues)

	var ids []string
	for _, i := range sorted {
		ids = append(ids, i.ID)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)

	// Input order untouched
	assert.Equal(t, "a", issues[0].ID)
}

func TestSortByPriority_MissingSortsLast(t *testing.T) {
	issues := []models.Issue{
		{ID: "no-prio"},
		{ID: "low", Priority: intp(4)},
		{ID: "urgent", Priority: intp(0)},
	}
	sorted := SortByPriority(issues)
	assert.Equal(t, "urgent", sorted[0].ID)
	assert.Equal(t, "low", sorted[1].ID)
	assert.Equal(t, "no-prio", sorted[2].ID)
}

func TestSortByPriority_Stable(t *testing.T) {
	issues := []models.Issue{
		{ID: "first", Priority: intp(2)},
		{ID: "second", Priority: intp(2)},
		{ID: "third", Priority: intp(2)},
	}
	sorted := SortByPriority(issues)
	assert.Equal(t, "first", sorted[0].ID)
	assert.Equal(t, "second", sorted[1].ID)
	assert.Equal(t, "third", sorted[2].ID)
}

func TestSortByPriority_Empty(t *testing.T) {
	assert.Empty(t, SortByPriority(nil))
}

func parallelRecords(successes ...bool) []ParallelRecord {
	records := make([]ParallelRecord, len(successes))
	for i, s := range successes {
		records[i] = NewParallelRecord(2, 0, s, time.Now())
	}
	return records
}

func TestRoundsFromRecords(t *testing.T) {
	end := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	records := []ExecutionRecord{
		{Status: StatusSuccess, EndTime: end},
		{Status: "failed", EndTime: end.Add(time.Minute)},
		{Status: "timed_out", EndTime: end.Add(2 * time.Minute)},
	}

	rounds := RoundsFromRecords(records)
	require.Len(t, rounds, 3)
	assert.True(t, rounds[0].Success)
	assert.False(t, rounds[1].Success)
	assert.False(t, rounds[2].Success)
	assert.Equal(t, end, rounds[0].Timestamp)

	assert.InDelta(t, 1.0/3.0, CalculateSuccessRate(rounds, DefaultRateWindow), 1e-9)
}

func TestRoundsFromRecords_Empty(t *testing.T) {
	assert.Empty(t, RoundsFromRecords(nil))
}

func TestCalculateSuccessRate(t *testing.T) {
	rate := CalculateSuccessRate(parallelRecords(true, true, false), DefaultRateWindow)
	assert.InDelta(t, 2.0/3.0, rate, 1e-9)
}

func TestCalculateSuccessRate_Empty(t *testing.T) {
	assert.Equal(t, 0.0, CalculateSuccessRate(nil, DefaultRateWindow))
}

func TestCalculateSuccessRate_WindowConsidersOnlyRecent(t *testing.T) {
	// 5 old failures followed by 10 successes: window of 10 sees only wins.
	records := parallelRecords(false, false, false, false, false)
	records = append(records, parallelRecords(true, true, true, true, true, true, true, true, true, true)...)

	assert.Equal(t, 1.0, CalculateSuccessRate(records, 10))
	assert.InDelta(t, 10.0/15.0, CalculateSuccessRate(records, 100), 1e-9)
}

func TestCalculateSuccessRate_InUnitRange(t *testing.T) {
	for _, records := range [][]ParallelRecord{
		nil,
		parallelRecords(false),
		parallelRecords(true),
		parallelRecords(true, false, true, false),
	} {
		rate := CalculateSuccessRate(records, DefaultRateWindow)
		assert.GreaterOrEqual(t, rate, 0.0)
		assert.LessOrEqual(t, rate, 1.0)
	}
}

func TestRecommendParallelism(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		current int
		want    int
	}{
		{"high rate scales up", 0.95, 2, 3},
		{"boundary 0.90 scales up", 0.90, 2, 3},
		{"low rate scales down", 0.65, 3, 2},
		{"medium rate holds", 0.80, 2, 2},
		{"clamped at max", 0.99, 4, 4},
		{"clamped at min", 0.10, 1, 1},
		{"negative rate clamps to min bound", -5, 1, 1},
		{"absurd rate clamps to max bound", 7.0, 4, 4},
		{"current above max clamps", 0.80, 9, 4},
		{"current below min clamps", 0.80, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecommendParallelism(tt.rate, tt.current))
		})
	}
}

func TestRecommendLoad(t *testing.T) {
	tests := []struct {
		name string
		load int
		rate float64
		want int
	}{
		{"high rate low load increases", 2, 0.9, 3},
		{"high rate at load 3 holds", 3, 0.9, 3},
		{"high rate above load 3 holds", 4, 0.95, 4},
		{"low rate decreases", 3, 0.4, 2},
		{"medium rate holds", 2, 0.6, 2},
		{"never below one", 1, 0.1, 1},
		{"never above five", 9, 0.6, 5},
		{"rate above one clamped before use", 2, 3.5, 3},
		{"negative rate clamped before use", 2, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecommendLoad(tt.load, tt.rate))
		})
	}
}

func TestNewParallelRecord_ZeroTimestampMeansNow(t *testing.T) {
	record := NewParallelRecord(3, 1, true, time.Time{})
	assert.WithinDuration(t, time.Now(), record.Timestamp, time.Second)
	assert.Equal(t, 3, record.ParallelCount)
	assert.Equal(t, 1, record.Conflicts)
	assert.True(t, record.Success)
}
