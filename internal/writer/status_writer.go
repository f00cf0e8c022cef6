// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/meter-poller/internal/status"
)

// StatusWriter is the delivery-only contract for device status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// deviceStatusWriter writes one unit's status block.
type deviceStatusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     status.Snapshot
}

// liveSlots are rewritten individually when they change.
var liveSlots = []struct {
	slot uint16
	name string
	get  func(status.Snapshot) uint16
}{
	{status.SlotHealthCode, "health", func(s status.Snapshot) uint16 { return s.Health }},
	{status.SlotLastErrorCode, "last_error", func(s status.Snapshot) uint16 { return s.LastErrorCode }},
	{status.SlotSecondsInError, "seconds_in_error", func(s status.Snapshot) uint16 { return s.SecondsInError }},
	{status.SlotFieldsOK, "fields_ok", func(s status.Snapshot) uint16 { return s.FieldsOK }},
	{status.SlotFieldsFailed, "fields_failed", func(s status.Snapshot) uint16 { return s.FieldsFailed }},
	{status.SlotCycleMillis, "cycle_ms", func(s status.Snapshot) uint16 { return s.CycleMillis }},
}

func newDeviceStatusWriter(plan *StatusPlan, cli endpointClient) *deviceStatusWriter {
	return &deviceStatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     status.Snapshot{Health: status.HealthUnknown},
	}
}

// WriteStatus delivers a status snapshot into mirror memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return errors.New("status writer: missing client")
	}

	baseAddr := sw.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		regs := status.Encode(s, sw.plan.DeviceName)

		if err := sw.cli.WriteRegisters(sw.plan.UnitID, baseAddr, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []error

	for _, ls := range liveSlots {
		v := ls.get(s)
		if ls.get(sw.last) == v {
			continue
		}
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, baseAddr+ls.slot, []uint16{v}); err != nil {
			errs = append(errs, fmt.Errorf("slot%d %s write failed: %w", ls.slot, ls.name, err))
		}
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next success.
		sw.needFull = true
		return fmt.Errorf("status writer: %w", errors.Join(errs...))
	}

	sw.last = s
	return nil
}

// pending reports a full re-assert that has not been delivered yet.
func (sw *deviceStatusWriter) pending() bool { return sw.needFull }

// invalidate forces the next write to re-assert the full block.
func (sw *deviceStatusWriter) invalidate() { sw.needFull = true }

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each unit owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}
