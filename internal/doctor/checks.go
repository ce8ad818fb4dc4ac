// Package doctor diagnoses why relaystat can't show a relay's status:
// an unreadable torrc, a closed or locked control port, or a display that
// won't initialize.
package doctor

import (
	"fmt"
	"sync"

	"github.com/rileyhilliard/relaystat/internal/util"
)

// CheckStatus represents the result status of a check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

// String returns a human-readable status string.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *CheckStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pass":
		*s = StatusPass
	case "warn":
		*s = StatusWarn
	case "fail":
		*s = StatusFail
	default:
		return fmt.Errorf("unknown check status %q", b)
	}
	return nil
}

// CheckResult contains the outcome of running a check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Check is one diagnostic. Run must not panic and must not block for
// longer than its own timeout.
type Check interface {
	Name() string
	// Category is one of Categories.
	Category() string
	Run() CheckResult
}

// Categories lists check categories in report order.
var Categories = []string{"CONFIG", "TORRC", "CONTROL", "DISPLAY"}

// Section is the results of one category.
type Section struct {
	Category string        `json:"name"`
	Results  []CheckResult `json:"results"`
}

// Report is the outcome of running a set of checks. Results[i] belongs to
// Checks[i].
type Report struct {
	Checks  []Check
	Results []CheckResult
}

// Run executes checks concurrently. They are independent, and the control
// port check can take up to its timeout.
func Run(checks []Check) *Report {
	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup

	for i, check := range checks {
		wg.Add(1)
		go func(idx int, c Check) {
			defer wg.Done()
			results[idx] = c.Run()
		}(i, check)
	}

	wg.Wait()
	return &Report{Checks: checks, Results: results}
}

// Sections groups results by category, in Categories order. Categories not
// in that list follow in the order first seen.
func (r *Report) Sections() []Section {
	grouped := make(map[string][]CheckResult)
	var extra []string
	for i, check := range r.Checks {
		cat := check.Category()
		if _, seen := grouped[cat]; !seen && !knownCategory(cat) {
			extra = append(extra, cat)
		}
		grouped[cat] = append(grouped[cat], r.Results[i])
	}

	var sections []Section
	for _, cat := range append(append([]string{}, Categories...), extra...) {
		if len(grouped[cat]) == 0 {
			continue
		}
		sections = append(sections, Section{Category: cat, Results: grouped[cat]})
	}
	return sections
}

func knownCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Counts counts results by status.
func (r *Report) Counts() map[CheckStatus]int {
	counts := make(map[CheckStatus]int)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// HasFailures reports whether any check failed.
func (r *Report) HasFailures() bool {
	return r.Counts()[StatusFail] > 0
}

// HasIssues reports whether any check failed or warned.
func (r *Report) HasIssues() bool {
	counts := r.Counts()
	return counts[StatusFail]+counts[StatusWarn] > 0
}

// Summary is a one-line verdict, e.g. "2 issues found".
func (r *Report) Summary() string {
	counts := r.Counts()
	total := counts[StatusWarn] + counts[StatusFail]
	if total == 0 {
		return "Everything looks good"
	}
	return fmt.Sprintf("%d %s found", total, util.Pluralize(total, "issue", "issues"))
}
