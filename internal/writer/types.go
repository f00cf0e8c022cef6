// internal/writer/types.go
package writer

import "time"

// StatusPlan places one unit's status block in the mirror.
type StatusPlan struct {
	UnitID     uint8  // mirror unit holding all status blocks
	BaseSlot   uint16 // block index; base address = BaseSlot * SlotsPerDevice
	DeviceName string
}

// Plan is the fully-built mirror plan.
type Plan struct {
	Endpoint string
	Timeout  time.Duration

	Offset  uint16          // added to every source register address
	UnitMap map[uint8]uint8 // source unit -> mirror unit; missing => same id

	Status map[uint8]*StatusPlan // keyed by source unit id; nil entry => disabled
}

func (p Plan) destUnit(src uint8) uint8 {
	if v, ok := p.UnitMap[src]; ok {
		return v
	}
	return src
}
