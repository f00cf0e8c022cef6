// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/meter-poller/internal/config"
	wmodbus "github.com/tamzrod/meter-poller/internal/writer/modbus"
)

// BuildPlan converts the mirror section into a Plan.
// Assumes config has already passed conflict validation.
func BuildPlan(m cfg.MeterPollConfig) (Plan, error) {
	mc := m.Mirror
	if mc == nil {
		return Plan{}, errors.New("writer: mirror not configured")
	}

	plan := Plan{
		Endpoint: mc.Endpoint,
		Timeout:  time.Duration(mc.TimeoutMs) * time.Millisecond,
		Offset:   mc.Offset,
		UnitMap:  mc.UnitMap,
		Status:   make(map[uint8]*StatusPlan),
	}

	if mc.StatusUnitID == nil {
		return plan, nil
	}

	for _, u := range m.Units {
		// status is opt-in per unit
		if u.StatusSlot == nil {
			continue
		}
		plan.Status[u.ID] = &StatusPlan{
			UnitID:     *mc.StatusUnitID,
			BaseSlot:   *u.StatusSlot,
			DeviceName: u.DeviceName,
		}
	}

	return plan, nil
}

// BuildEndpointClient creates the mirror TCP client.
func BuildEndpointClient(plan Plan) (*wmodbus.EndpointClient, error) {
	return wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  plan.Timeout,
	})
}
