package doctor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheck struct {
	name     string
	category string
	status   CheckStatus
}

func (s *stubCheck) Name() string     { return s.name }
func (s *stubCheck) Category() string { return s.category }
func (s *stubCheck) Run() CheckResult {
	return CheckResult{Name: s.name, Status: s.status, Message: s.name}
}

func TestCheckStatus_Text(t *testing.T) {
	for _, s := range []CheckStatus{StatusPass, StatusWarn, StatusFail} {
		b, err := s.MarshalText()
		require.NoError(t, err)

		var back CheckStatus
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, s, back)
	}

	assert.Equal(t, "unknown", CheckStatus(99).String())

	var s CheckStatus
	assert.Error(t, s.UnmarshalText([]byte("maybe")))
}

func TestCheckResult_JSONUsesStatusNames(t *testing.T) {
	b, err := json.Marshal(CheckResult{Name: "torrc_readable", Status: StatusWarn})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"torrc_readable","status":"warn","message":""}`, string(b))
}

func TestRun_KeepsCheckOrder(t *testing.T) {
	checks := []Check{
		&stubCheck{name: "a", category: "DISPLAY", status: StatusPass},
		&stubCheck{name: "b", category: "CONFIG", status: StatusFail},
		&stubCheck{name: "c", category: "CONTROL", status: StatusWarn},
	}

	report := Run(checks)

	require.Len(t, report.Results, 3)
	for i, res := range report.Results {
		assert.Equal(t, checks[i].Name(), res.Name)
	}
}

func TestReport_Sections(t *testing.T) {
	report := Run([]Check{
		&stubCheck{name: "font", category: "DISPLAY"},
		&stubCheck{name: "custom", category: "EXTRA"},
		&stubCheck{name: "file", category: "CONFIG"},
		&stubCheck{name: "valid", category: "CONFIG"},
		&stubCheck{name: "session", category: "CONTROL"},
	})

	sections := report.Sections()

	var names []string
	for _, s := range sections {
		names = append(names, s.Category)
	}
	assert.Equal(t, []string{"CONFIG", "CONTROL", "DISPLAY", "EXTRA"}, names)
	assert.Equal(t, "file", sections[0].Results[0].Name)
	assert.Equal(t, "valid", sections[0].Results[1].Name)
}

func TestReport_Summary(t *testing.T) {
	tests := []struct {
		name     string
		statuses []CheckStatus
		failures bool
		issues   bool
		summary  string
	}{
		{name: "all pass", statuses: []CheckStatus{StatusPass, StatusPass}, summary: "Everything looks good"},
		{name: "one warning", statuses: []CheckStatus{StatusPass, StatusWarn}, issues: true, summary: "1 issue found"},
		{name: "mixed", statuses: []CheckStatus{StatusFail, StatusWarn, StatusPass}, failures: true, issues: true, summary: "2 issues found"},
		{name: "empty", summary: "Everything looks good"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checks []Check
			for _, s := range tt.statuses {
				checks = append(checks, &stubCheck{name: s.String(), category: "CONFIG", status: s})
			}

			report := Run(checks)

			assert.Equal(t, tt.failures, report.HasFailures())
			assert.Equal(t, tt.issues, report.HasIssues())
			assert.Equal(t, tt.summary, report.Summary())
		})
	}
}

func TestReport_Counts(t *testing.T) {
	report := Run([]Check{
		&stubCheck{status: StatusPass},
		&stubCheck{status: StatusPass},
		&stubCheck{status: StatusWarn},
		&stubCheck{status: StatusFail},
	})

	counts := report.Counts()
	assert.Equal(t, 2, counts[StatusPass])
	assert.Equal(t, 1, counts[StatusWarn])
	assert.Equal(t, 1, counts[StatusFail])
}
