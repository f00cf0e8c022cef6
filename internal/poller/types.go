// internal/poller/types.go
package poller

import (
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/meter-poller/internal/register"
)

// Field is one named register of a device profile.
type Field struct {
	Name     string
	Register register.Descriptor
}

// Unit is one polled device: a unit id bound to a resolved profile.
type Unit struct {
	ID      uint8
	Profile string
	Fields  []Field
}

// Reading is the outcome of one field read in one cycle.
// Exactly one of Value/Err is meaningful: Value is NaN when Err != nil.
type Reading struct {
	CycleID uuid.UUID
	At      time.Time

	UnitID  uint8
	Profile string
	Field   string
	Address uint16

	Words    []uint16
	Value    float64
	Err      error
	Duration time.Duration
}

// Cycle summarizes one loop iteration.
// Skipped cycles never polled because the bus could not be reconnected.
type Cycle struct {
	ID      uuid.UUID
	Start   time.Time
	End     time.Time
	Skipped bool

	Reads    int
	Failures int
}

func (c Cycle) Elapsed() time.Duration { return c.End.Sub(c.Start) }
