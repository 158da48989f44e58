package reporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	projerr "github.com/conneroisu/projtool/internal/errors"
	"github.com/conneroisu/projtool/internal/logging"
	"github.com/conneroisu/projtool/internal/types"
)

func TestReporter_DiagnosticsReportedOnce(t *testing.T) {
	r := New(logging.NewTestLogger(), true, ModeBuild)
	diags := []projerr.Diagnostic{{Stage: projerr.StageSyntactic, Severity: projerr.SeverityError, Message: "boom"}}

	r.Diagnostics(context.Background(), types.CanonicalKey("a"), diags)
	assert.True(t, r.reported["a"])

	// Second call must not panic and must remain a no-op marker-wise.
	r.Diagnostics(context.Background(), types.CanonicalKey("a"), diags)
	assert.True(t, r.reported["a"])
}

func TestReporter_SummaryReportsOnlyProjectsWithDiagnostics(t *testing.T) {
	r := New(logging.NewTestLogger(), false, ModeBuild)
	diags := projerr.NewDiagnosticCollector()
	diags.Add("a", projerr.Diagnostic{Severity: projerr.SeverityError, Message: "bad"})

	order := []types.CanonicalKey{"a", "b"}
	r.Summary(context.Background(), order, diags)

	assert.True(t, r.reported["a"])
	assert.False(t, r.reported["b"])
}

func TestReporter_ResetClearsReportedSet(t *testing.T) {
	r := New(logging.NewTestLogger(), true, ModeWatch)
	diags := []projerr.Diagnostic{{Severity: projerr.SeverityError, Message: "x"}}
	r.Diagnostics(context.Background(), types.CanonicalKey("a"), diags)
	assert.True(t, r.reported["a"])

	r.Reset()
	assert.False(t, r.reported["a"])
}
