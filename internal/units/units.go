// Package units converts byte counts to display strings and parses
// torrc-style quota specifications.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// byteUnits is the display suffix table, one entry per power of 1024.
var byteUnits = []string{"bytes", "KB", "MB", "GB", "TB", "PB", "EB"}

// quotaMultipliers maps the units accepted in a quota line to their byte size.
var quotaMultipliers = map[string]int64{
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
	"PB": 1 << 50,
	"EB": 1 << 60,
}

// BytesToHuman formats n as a two-decimal value in the largest unit that
// keeps it under 1024. Zero is rendered as "0 bytes".
//
// int64 tops out below 8 EB, so the table never runs out; the loop still
// stops at EB rather than indexing past the end.
func BytesToHuman(n int64) string {
	if n == 0 {
		return "0 " + byteUnits[0]
	}

	v := float64(n)
	unit := 0
	for math.Abs(v) >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", v, byteUnits[unit])
}

// ParseError reports a quota line that could not be converted to bytes.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid quota %q: %s", e.Line, e.Reason)
}

// MultiplierFor returns the byte size of a quota unit (KB through EB).
func MultiplierFor(unit string) (int64, bool) {
	m, ok := quotaMultipliers[unit]
	return m, ok
}

// ParseQuota parses "<name> <value> <unit>" (e.g. "AccountingMax 10 GB")
// into a byte count. The value may be fractional. The result is the
// single-direction quota; callers apply any accounting policy on top.
//
// The result is rejected when doubling it would overflow int64, so
// combined-direction callers can always double it safely.
func ParseQuota(line string) (int64, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return 0, &ParseError{Line: line, Reason: fmt.Sprintf("expected 3 fields, got %d", len(fields))}
	}

	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &ParseError{Line: line, Reason: fmt.Sprintf("value %q is not a number", fields[1])}
	}
	if value < 0 {
		return 0, &ParseError{Line: line, Reason: "value is negative"}
	}

	mult, ok := MultiplierFor(fields[2])
	if !ok {
		return 0, &ParseError{Line: line, Reason: fmt.Sprintf("unknown unit %q", fields[2])}
	}

	bytes := value * float64(mult)
	if bytes >= math.MaxInt64/2 {
		return 0, &ParseError{Line: line, Reason: "value out of range"}
	}
	return int64(bytes), nil
}
