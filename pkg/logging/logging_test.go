package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.level.String())
	}
}

func TestInitForCLI_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelWarn, &buf)

	Debug("Test", "should not appear")
	Info("Test", "should not appear either")
	Warn("Test", "this warning appears")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "this warning appears")
}

func TestInitForCLI_ErrorIncludesErrAttribute(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Error("CLC", errors.New("exec failed"), "instantiate command failed for %s", "comp1")

	out := buf.String()
	require.Contains(t, out, "instantiate command failed for comp1")
	assert.Contains(t, out, "exec failed")
	assert.Contains(t, out, "subsystem=CLC")
}

func TestInitForREPL_DeliversViaChannel(t *testing.T) {
	ch := InitForREPL(LevelDebug)
	require.NotNil(t, ch)

	Info("Director", "node %s reported DISABLED", "node-1")

	entry := <-ch
	assert.Equal(t, "Director", entry.Subsystem)
	assert.True(t, strings.Contains(entry.Message, "node-1"))
	assert.Equal(t, LevelInfo, entry.Level)

	CloseREPLChannel()
	// reset back to CLI mode for subsequent tests in the package.
	var discard bytes.Buffer
	InitForCLI(LevelError, &discard)
}

func TestAudit_FormatsKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Audit(AuditEvent{
		Action:  "admin_op_unlock",
		Outcome: "success",
		Actor:   "amfadm",
		Target:  "SU=su1,SG=sg1",
	})

	out := buf.String()
	assert.Contains(t, out, "[AUDIT]")
	assert.Contains(t, out, "action=admin_op_unlock")
	assert.Contains(t, out, "outcome=success")
	assert.Contains(t, out, "target=SU=su1,SG=sg1")
}
