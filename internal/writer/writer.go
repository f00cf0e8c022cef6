// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/goburrow/modbus"
	"go.uber.org/zap"

	"github.com/tamzrod/meter-poller/internal/bus"
	"github.com/tamzrod/meter-poller/internal/poller"
	"github.com/tamzrod/meter-poller/internal/status"
)

// endpointClient is the exact contract the writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

var _ StatusWriter = (*deviceStatusWriter)(nil)

var (
	errBusUnavailable = &bus.TransportError{Op: "reconnect", Err: errors.New("bus unavailable")}
	errMirrorDown     = errors.New("mirror unreachable, skipped until next cycle")
)

// Writer mirrors raw register words into a downstream Modbus server and
// maintains one status block per opted-in unit.
// It implements poller.Sink and poller.CycleObserver.
//
// After the first write that fails without a Modbus exception response the
// mirror is treated as down for the rest of the cycle, so one unreachable
// endpoint costs at most one timeout per cycle.
type Writer struct {
	plan Plan
	cli  endpointClient
	log  *zap.Logger

	down bool

	status   map[uint8]*deviceStatusWriter
	trackers map[uint8]*status.Tracker
	pending  map[uint8]*status.Outcome
}

func New(plan Plan, cli endpointClient, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Writer{
		plan:     plan,
		cli:      cli,
		log:      log.Named("mirror"),
		status:   make(map[uint8]*deviceStatusWriter),
		trackers: make(map[uint8]*status.Tracker),
		pending:  make(map[uint8]*status.Outcome),
	}
	for unit, sp := range plan.Status {
		if sp == nil {
			continue
		}
		w.status[unit] = newDeviceStatusWriter(sp, cli)
		w.trackers[unit] = &status.Tracker{}
	}
	return w
}

// Write copies one successful reading to the mirror.
// Failed readings are not mirrored; the last good words stay in place.
func (w *Writer) Write(r poller.Reading) error {
	if r.Err != nil || len(r.Words) == 0 {
		return nil
	}
	if w.cli == nil {
		return fmt.Errorf("writer: missing client for endpoint %s", w.plan.Endpoint)
	}
	if w.down {
		return errMirrorDown
	}

	unitID := w.plan.destUnit(r.UnitID)
	dstAddr := w.plan.Offset + r.Address

	if err := w.cli.WriteRegisters(unitID, dstAddr, r.Words); err != nil {
		w.markDown(err)
		return fmt.Errorf(
			"writer: ep=%s unit=%d addr=%d err=%w",
			w.plan.Endpoint, unitID, dstAddr, err,
		)
	}
	return nil
}

func (w *Writer) Emit(r poller.Reading) {
	if err := w.Write(r); err != nil && !errors.Is(err, errMirrorDown) {
		w.log.Warn("mirror write failed", zap.Error(err))
	}

	if _, tracked := w.trackers[r.UnitID]; !tracked {
		return
	}
	o := w.pending[r.UnitID]
	if o == nil {
		o = &status.Outcome{}
		w.pending[r.UnitID] = o
	}
	o.Duration += r.Duration
	if r.Err != nil {
		o.Failed++
		o.LastErr = r.Err
	} else {
		o.OK++
	}
}

// CycleDone folds the cycle into each unit's status and writes what changed,
// or the full block when an earlier delivery failed.
func (w *Writer) CycleDone(c poller.Cycle) {
	defer func() {
		w.pending = make(map[uint8]*status.Outcome)
		w.down = false
	}()

	for unit, tr := range w.trackers {
		o := status.Outcome{Failed: 1, LastErr: errBusUnavailable}
		if p := w.pending[unit]; p != nil && !c.Skipped {
			o = *p
		}
		o.At = c.End

		sw := w.status[unit]
		snap, changed := tr.Observe(o)
		if !changed && !sw.pending() {
			continue
		}
		if w.down {
			sw.invalidate()
			continue
		}
		if err := sw.WriteStatus(snap); err != nil {
			w.markDown(err)
			w.log.Warn("status write failed", zap.Uint8("unit", unit), zap.Error(err))
		}
	}
}

// markDown flags the mirror as unreachable unless the endpoint answered
// with a Modbus exception.
func (w *Writer) markDown(err error) {
	var mbErr *modbus.ModbusError
	if !errors.As(err, &mbErr) {
		w.down = true
	}
}
