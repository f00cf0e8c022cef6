// internal/status/tracker.go
package status

import (
	"errors"
	"time"
)

// Outcome is one unit's result for one poll cycle.
type Outcome struct {
	At       time.Time
	OK       int
	Failed   int
	LastErr  error
	Duration time.Duration
}

// Tracker owns the health state of one unit across cycles.
// Default state is HealthUnknown until the first Observe.
type Tracker struct {
	snap       Snapshot
	errorSince time.Time
	inError    bool
}

func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe folds one cycle outcome into the snapshot and reports whether
// anything changed.
func (t *Tracker) Observe(o Outcome) (Snapshot, bool) {
	prev := t.snap
	s := prev

	s.FieldsOK = saturate(int64(o.OK))
	s.FieldsFailed = saturate(int64(o.Failed))
	s.CycleMillis = saturate(o.Duration.Milliseconds())

	if o.Failed == 0 {
		// Recovery / OK
		s.Health = HealthOK
		s.LastErrorCode = 0
		s.SecondsInError = 0
		t.inError = false
	} else {
		s.Health = HealthError
		s.LastErrorCode = ErrorCode(o.LastErr)

		if !t.inError {
			t.inError = true
			t.errorSince = o.At
		}
		s.SecondsInError = saturate(int64(o.At.Sub(t.errorSince) / time.Second))
	}

	t.snap = s
	return s, s != prev
}

// ErrorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns 1 (generic error).
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return 1
}

func saturate(v int64) uint16 {
	if v < 0 {
		return 0
	}
	if v > MaxCounter {
		return MaxCounter
	}
	return uint16(v)
}
