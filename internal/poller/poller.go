// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tamzrod/meter-poller/internal/register"
)

// Bus abstracts the connection operations the poller needs.
type Bus interface {
	EnsureConnected(ctx context.Context) bool
	ReadRegisters(unitID uint8, addr, count uint16) ([]uint16, error)
	Disconnect() error
}

// Sink receives every reading, once per field per cycle.
type Sink interface {
	Emit(r Reading)
}

// CycleObserver is implemented by sinks that also want cycle boundaries.
type CycleObserver interface {
	CycleDone(c Cycle)
}

// Config is the immutable runtime config the poller needs.
type Config struct {
	Period   time.Duration
	Cooldown time.Duration
	Units    []Unit
}

// Poller is a clock-driven reader over one bus.
type Poller struct {
	cfg  Config
	bus  Bus
	sink Sink
	log  *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a poller with immutable config.
func New(cfg Config, bus Bus, sink Sink, log *zap.Logger) (*Poller, error) {
	if bus == nil {
		return nil, errors.New("poller: bus required")
	}
	if sink == nil {
		return nil, errors.New("poller: sink required")
	}
	if cfg.Period <= 0 {
		return nil, errors.New("poller: period must be > 0")
	}
	if cfg.Cooldown < 0 {
		return nil, errors.New("poller: cooldown must be >= 0")
	}
	if len(cfg.Units) == 0 {
		return nil, errors.New("poller: at least one unit required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		cfg:   cfg,
		bus:   bus,
		sink:  sink,
		log:   log,
		now:   time.Now,
		sleep: sleepCtx,
	}, nil
}

// PollOnce reads every field of every unit exactly once, in table order.
// A failing field never aborts the rest of the cycle.
func (p *Poller) PollOnce() Cycle {
	c := Cycle{
		ID:    uuid.New(),
		Start: p.now(),
	}

	for _, u := range p.cfg.Units {
		for _, f := range u.Fields {
			r := p.readField(c.ID, u, f)
			c.Reads++
			if r.Err != nil {
				c.Failures++
			}
			p.sink.Emit(r)
		}
	}

	c.End = p.now()
	p.observe(c)
	return c
}

func (p *Poller) readField(cycleID uuid.UUID, u Unit, f Field) Reading {
	r := Reading{
		CycleID: cycleID,
		UnitID:  u.ID,
		Profile: u.Profile,
		Field:   f.Name,
		Address: f.Register.Address,
		Value:   math.NaN(),
		At:      p.now(),
	}

	// Misconfigured descriptors are reported, never sent to the device.
	if !f.Register.Supported() {
		r.Err = &register.ConfigurationError{Address: f.Register.Address, WordCount: f.Register.WordCount}
		return r
	}

	words, err := p.bus.ReadRegisters(u.ID, f.Register.Address, uint16(f.Register.WordCount))
	r.Duration = p.now().Sub(r.At)
	if err != nil {
		r.Err = err
		return r
	}

	r.Words = words
	r.Value, r.Err = register.Decode(f.Register, words)
	return r
}

func (p *Poller) observe(c Cycle) {
	if o, ok := p.sink.(CycleObserver); ok {
		o.CycleDone(c)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
