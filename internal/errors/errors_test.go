package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticCollector_AddAndFor(t *testing.T) {
	c := NewDiagnosticCollector()
	assert.Empty(t, c.For("proj-a"))

	c.Add("proj-a", Diagnostic{Stage: StageSemantic, Severity: SeverityError, Message: "boom"})
	c.Add("proj-a", Diagnostic{Stage: StageEmit, Severity: SeverityWarning, Message: "slow"})

	got := c.For("proj-a")
	require.Len(t, got, 2)
	assert.Equal(t, StageSemantic, got[0].Stage)
	assert.Equal(t, StageEmit, got[1].Stage)
}

func TestDiagnosticCollector_HasErrors(t *testing.T) {
	c := NewDiagnosticCollector()
	c.Add("proj-a", Diagnostic{Severity: SeverityWarning, Message: "just a warning"})
	assert.False(t, c.HasErrors("proj-a"))

	c.Add("proj-a", Diagnostic{Severity: SeverityError, Message: "real error"})
	assert.True(t, c.HasErrors("proj-a"))
}

func TestDiagnosticCollector_Clear(t *testing.T) {
	c := NewDiagnosticCollector()
	c.Add("proj-a", Diagnostic{Severity: SeverityError, Message: "x"})
	require.True(t, c.HasErrors("proj-a"))

	c.Clear("proj-a")
	assert.False(t, c.HasErrors("proj-a"))
	assert.Empty(t, c.For("proj-a"))
}

func TestDiagnosticCollector_KeysPreservesFirstSeenOrder(t *testing.T) {
	c := NewDiagnosticCollector()
	c.Add("b", Diagnostic{Message: "1"})
	c.Add("a", Diagnostic{Message: "2"})
	c.Add("b", Diagnostic{Message: "3"})

	assert.Equal(t, []string{"b", "a"}, c.Keys())
}

func TestDiagnosticCollector_ErrorCountAndCombined(t *testing.T) {
	c := NewDiagnosticCollector()
	c.Add("a", Diagnostic{Severity: SeverityError, Message: "e1"})
	c.Add("a", Diagnostic{Severity: SeverityInfo, Message: "i1"})
	c.Add("b", Diagnostic{Severity: SeverityError, Message: "e2"})

	assert.Equal(t, 2, c.ErrorCount())
	require.Error(t, c.Combined())
}

func TestDiagnostic_ErrorFormatting(t *testing.T) {
	d := Diagnostic{File: "a.ts", Line: 3, Column: 5, Severity: SeverityError, Message: "bad"}
	assert.Equal(t, "a.ts:3:5: error: bad", d.Error())

	noPos := Diagnostic{Severity: SeverityWarning, Message: "generic"}
	assert.Equal(t, "warning: generic", noPos.Error())
}
