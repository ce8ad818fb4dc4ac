package status

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Unavailable is how a field that could not be collected is displayed.
const Unavailable = "N/A"

// Field is a collected value that may be missing. Callers must go through
// Get (or check OK) to read it, so a failed query can't be mistaken for a
// real zero.
type Field[T any] struct {
	Value T
	OK    bool
}

// Known wraps a successfully collected value.
func Known[T any](v T) Field[T] {
	return Field[T]{Value: v, OK: true}
}

// Missing returns a field marking a value that could not be collected.
func Missing[T any]() Field[T] {
	return Field[T]{}
}

// Get returns the value and whether it was collected.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.OK
}

// Snapshot is one point-in-time view of the relay. It is built once per
// poll cycle and never modified afterwards.
type Snapshot struct {
	Timestamp time.Time

	Version     Field[string]
	Nickname    string // "" when torrc has none
	Fingerprint Field[string]
	Uptime      Field[time.Duration]
	Flags       Field[[]string]

	BytesRead    Field[int64]
	BytesWritten Field[int64]

	// Quota is the combined read+write accounting limit in bytes.
	Quota Field[int64]

	// Problems lists the queries that failed while building the snapshot.
	Problems []*FieldError
}

// FieldError records a query that failed without aborting collection.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Traffic is read plus written bytes for the accounting period. ok is
// false unless both counters were collected. The sum saturates at
// math.MaxInt64 rather than wrapping.
func (s *Snapshot) Traffic() (total int64, ok bool) {
	read, okR := s.BytesRead.Get()
	written, okW := s.BytesWritten.Get()
	if !okR || !okW {
		return 0, false
	}
	if read < 0 {
		read = 0
	}
	if written < 0 {
		written = 0
	}
	if read > math.MaxInt64-written {
		return math.MaxInt64, true
	}
	return read + written, true
}

// CurrentBytes is Traffic, or 0 when the counters are unavailable.
func (s *Snapshot) CurrentBytes() int64 {
	total, _ := s.Traffic()
	return total
}

// QuotaBytes is the accounting limit, or 0 when unavailable.
func (s *Snapshot) QuotaBytes() int64 {
	if q, ok := s.Quota.Get(); ok && q > 0 {
		return q
	}
	return 0
}

// UptimeHours renders uptime in whole hours. Anything under an hour reads
// "<1" so a relay that has run for 59 minutes doesn't look freshly started.
func (s *Snapshot) UptimeHours() string {
	d, ok := s.Uptime.Get()
	if !ok {
		return Unavailable
	}
	hours := int64(d / time.Hour)
	if hours <= 0 {
		return "<1"
	}
	return strconv.FormatInt(hours, 10)
}
