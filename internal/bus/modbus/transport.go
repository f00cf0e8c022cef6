// internal/bus/modbus/transport.go
package modbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/meter-poller/internal/bus"
)

// handler is what both goburrow client handlers provide.
type handler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// Transport implements bus.Transport on top of goburrow/modbus.
// One handler is shared by every unit id on the link; the slave id is
// switched per request.
type Transport struct {
	handler handler
	client  modbus.Client
	slaveID *byte
	open    bool
}

// TCPConfig is the minimal Modbus TCP link config.
type TCPConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// RTUConfig is the serial link config for Modbus RTU.
type RTUConfig struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string // "N", "E" or "O"
	StopBits int
	Timeout  time.Duration
}

// NewTCP creates a disconnected Modbus TCP transport.
func NewTCP(cfg TCPConfig) (*Transport, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus transport: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	// Session lifetime belongs to bus.Client, not goburrow's idle timer.
	h.IdleTimeout = 0

	return &Transport{
		handler: h,
		client:  modbus.NewClient(h),
		slaveID: &h.SlaveId,
	}, nil
}

// NewRTU creates a disconnected Modbus RTU transport.
func NewRTU(cfg RTUConfig) (*Transport, error) {
	if cfg.Device == "" {
		return nil, errors.New("modbus transport: serial device required")
	}
	switch cfg.Parity {
	case "N", "E", "O":
	default:
		return nil, fmt.Errorf("modbus transport: invalid parity %q", cfg.Parity)
	}

	h := modbus.NewRTUClientHandler(cfg.Device)
	h.BaudRate = cfg.BaudRate
	h.DataBits = cfg.DataBits
	h.Parity = cfg.Parity
	h.StopBits = cfg.StopBits
	h.Timeout = cfg.Timeout
	h.IdleTimeout = 0

	return &Transport{
		handler: h,
		client:  modbus.NewClient(h),
		slaveID: &h.SlaveId,
	}, nil
}

func (t *Transport) Connect() error {
	if err := t.handler.Connect(); err != nil {
		t.open = false
		return err
	}
	t.open = true
	return nil
}

func (t *Transport) Close() error {
	t.open = false
	return t.handler.Close()
}

func (t *Transport) IsOpen() bool { return t.open }

// ReadHoldingRegisters issues FC 3 and unpacks the big-endian payload.
// Modbus exception responses are returned as *bus.DeviceError.
func (t *Transport) ReadHoldingRegisters(unitID uint8, addr, qty uint16) ([]uint16, error) {
	*t.slaveID = unitID

	raw, err := t.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		var mbErr *modbus.ModbusError
		if errors.As(err, &mbErr) {
			return nil, &bus.DeviceError{
				UnitID:    unitID,
				Function:  mbErr.FunctionCode &^ 0x80,
				Exception: mbErr.ExceptionCode,
			}
		}
		return nil, err
	}

	if len(raw)%2 != 0 {
		return nil, errors.New("modbus: read-registers byte count not even")
	}
	return unpackRegisters(raw), nil
}

// ---- helpers ----

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
