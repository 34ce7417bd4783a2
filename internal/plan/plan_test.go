package plan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePlanCLI(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bv")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestParseOutput(t *testing.T) {
	raw := `Robot execution plan

Phase 1: Database Layer
  - Create schema
  - Add migrations

Phase 2: API Layer
  - Wire handlers
`
	phases := ParseOutput(raw)
	require.Len(t, phases, 2)
	assert.Equal(t, "Phase 1: Database Layer", phases[0].Name)
	assert.Equal(t, []string{"Create schema", "Add migrations"}, phases[0].Tasks)
	assert.Equal(t, "Phase 2: API Layer", phases[1].Name)
	assert.Equal(t, []string{"Wire handlers"}, phases[1].Tasks)
}

func TestParseOutput_CaseInsensitiveHeader(t *testing.T) {
	phases := ParseOutput("phase 3: Cleanup\n- sweep\n")
	require.Len(t, phases, 1)
	assert.Equal(t, "phase 3: Cleanup", phases[0].Name)
}

func TestParseOutput_TasksBeforeAnyPhaseIgnored(t *testing.T) {
	phases := ParseOutput("- orphan task\nPhase 1: Real\n- kept\n")
	require.Len(t, phases, 1)
	assert.Equal(t, []string{"kept"}, phases[0].Tasks)
}

func TestParseOutput_EmptyAndUnparseable(t *testing.T) {
	assert.Empty(t, ParseOutput(""))
	assert.Empty(t, ParseOutput("   \n  \n"))
	assert.Empty(t, ParseOutput("no structure here\njust prose\n"))
}

func TestParseOutput_PhaseWithoutTasks(t *testing.T) {
	phases := ParseOutput("Phase 1: Empty\nPhase 2: Also empty\n")
	require.Len(t, phases, 2)
	assert.Empty(t, phases[0].Tasks)
	assert.Empty(t, phases[1].Tasks)
}

func TestQuery_Success(t *testing.T) {
	bv := fakePlanCLI(t, `cat <<'EOF'
Phase 1: Setup
- Install deps
EOF`)
	result := Query(context.Background(), bv)
	require.True(t, result.Success)
	assert.Empty(t, result.Message)
	require.Len(t, result.Phases, 1)
	assert.Equal(t, "Phase 1: Setup", result.Phases[0].Name)
	assert.Contains(t, result.RawOutput, "Install deps")
}

func TestQuery_ExecutableMissing(t *testing.T) {
	result := Query(context.Background(), "definitely-not-a-real-binary-name")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "unavailable")
}

func TestQuery_NonZeroExit(t *testing.T) {
	bv := fakePlanCLI(t, `echo "plan generation failed" >&2; exit 3`)
	result := Query(context.Background(), bv)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "exit 3")
	assert.Contains(t, result.Message, "plan generation failed")
}

func TestQuery_NonZeroExitWithoutStderrFallsBackToStdout(t *testing.T) {
	bv := fakePlanCLI(t, `echo "stdout detail"; exit 1`)
	result := Query(context.Background(), bv)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "stdout detail")
}

func TestQuery_SuccessWithUnparseableOutput(t *testing.T) {
	bv := fakePlanCLI(t, `echo "nothing resembling a plan"`)
	result := Query(context.Background(), bv)
	assert.True(t, result.Success)
	assert.Empty(t, result.Phases)
	assert.Contains(t, result.RawOutput, "nothing resembling a plan")
}
