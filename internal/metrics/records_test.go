package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(issueID, status string, start time.Time) ExecutionRecord {
	end := start.Add(90 * time.Second)
	return ExecutionRecord{
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start).Seconds(),
		Status:    status,
		AgentType: "implementer",
		IssueID:   issueID,
	}
}

func TestSaveLoadRecords_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	now := time.Now().UTC().Truncate(time.Second)
	records := []ExecutionRecord{
		sampleRecord("bd-1", StatusSuccess, now),
		sampleRecord("bd-2", "failure", now.Add(time.Minute)),
		sampleRecord("bd-3", "timeout", now.Add(2*time.Minute)),
	}

	require.NoError(t, SaveRecords(records, path))
	loaded := LoadRecords(path)
	require.Len(t, loaded, 3)
	for i := range records {
		assert.True(t, records[i].StartTime.Equal(loaded[i].StartTime))
		assert.True(t, records[i].EndTime.Equal(loaded[i].EndTime))
		assert.Equal(t, records[i].Duration, loaded[i].Duration)
		assert.Equal(t, records[i].Status, loaded[i].Status)
		assert.Equal(t, records[i].AgentType, loaded[i].AgentType)
		assert.Equal(t, records[i].IssueID, loaded[i].IssueID)
	}
}

func TestLoadRecords_MissingFile(t *testing.T) {
	assert.Nil(t, LoadRecords(filepath.Join(t.TempDir(), "absent.json")))
}

func TestLoadRecords_CorruptedFileSelfHeals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	assert.Nil(t, LoadRecords(path))

	// Appending after corruption starts a fresh log.
	require.NoError(t, AppendRecord(sampleRecord("bd-1", StatusSuccess, time.Now()), path))
	assert.Len(t, LoadRecords(path), 1)
}

func TestAppendRecord_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".director", "metrics.json")
	require.NoError(t, AppendRecord(sampleRecord("bd-1", StatusSuccess, time.Now()), path))
	require.NoError(t, AppendRecord(sampleRecord("bd-2", "failure", time.Now()), path))

	loaded := LoadRecords(path)
	require.Len(t, loaded, 2)
	assert.Equal(t, "bd-1", loaded[0].IssueID)
	assert.Equal(t, "bd-2", loaded[1].IssueID)
}

func TestRecordExecution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	start := time.Now().Add(-2 * time.Minute)
	end := time.Now()

	require.NoError(t, RecordExecution("bd-9", "reviewer", start, end, StatusSuccess, path))

	loaded := LoadRecords(path)
	require.Len(t, loaded, 1)
	assert.Equal(t, "bd-9", loaded[0].IssueID)
	assert.Equal(t, "reviewer", loaded[0].AgentType)
	assert.InDelta(t, 120, loaded[0].Duration, 1)
}

func TestSuccessRate_NoData(t *testing.T) {
	_, ok := SuccessRate(filepath.Join(t.TempDir(), "absent.json"), Filter{})
	assert.False(t, ok)
}

func TestSuccessRate_All(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	now := time.Now()
	require.NoError(t, SaveRecords([]ExecutionRecord{
		sampleRecord("bd-1", StatusSuccess, now),
		sampleRecord("bd-2", StatusSuccess, now),
		sampleRecord("bd-3", "failure", now),
		sampleRecord("bd-4", "timeout", now),
	}, path))

	rate, ok := SuccessRate(path, Filter{})
	require.True(t, ok)
	assert.InDelta(t, 0.5, rate, 1e-9)
}

func TestSuccessRate_FilterByAgentType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	now := time.Now()
	records := []ExecutionRecord{
		sampleRecord("bd-1", StatusSuccess, now),
		sampleRecord("bd-2", "failure", now),
	}
	records[1].AgentType = "reviewer"
	require.NoError(t, SaveRecords(records, path))

	rate, ok := SuccessRate(path, Filter{AgentType: "implementer"})
	require.True(t, ok)
	assert.Equal(t, 1.0, rate)

	_, ok = SuccessRate(path, Filter{AgentType: "unknown"})
	assert.False(t, ok)
}

func TestSuccessRate_TimeWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, SaveRecords([]ExecutionRecord{
		sampleRecord("bd-old", "failure", time.Now().Add(-48*time.Hour)),
		sampleRecord("bd-new", StatusSuccess, time.Now().Add(-time.Minute)),
	}, path))

	rate, ok := SuccessRate(path, Filter{TimeWindow: time.Hour})
	require.True(t, ok)
	assert.Equal(t, 1.0, rate)
}
