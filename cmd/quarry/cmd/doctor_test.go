package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrysearch/quarry/internal/preflight"
)

func TestDoctorCmd_TextReport(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := runCommand(newDoctorCmd(), "--model", "static")

	require.NoError(t, err, "a healthy empty project has no critical failures")
	assert.Contains(t, out, "Quarry Doctor")
	assert.Contains(t, out, "Status:")
	assert.Contains(t, out, "disk_space")
}

func TestDoctorCmd_JSONReport(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := runCommand(newDoctorCmd(), "--json", "--model", "static")

	require.NoError(t, err)
	var report doctorReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Len(t, report.Checks, 6)
	assert.NotEqual(t, "failed", report.Status)
	assert.Empty(t, report.Errors)

	names := make(map[string]bool)
	for _, c := range report.Checks {
		names[c.Name] = true
		assert.Contains(t, []string{"pass", "warn", "fail"}, c.Status)
	}
	assert.True(t, names["index"], "the index check should run")
}

func TestCheckStatusString(t *testing.T) {
	assert.Equal(t, "pass", checkStatusString(preflight.StatusPass))
	assert.Equal(t, "warn", checkStatusString(preflight.StatusWarn))
	assert.Equal(t, "fail", checkStatusString(preflight.StatusFail))
	assert.Equal(t, "unknown", checkStatusString(preflight.CheckStatus(42)))
}
