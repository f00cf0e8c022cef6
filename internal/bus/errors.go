// internal/bus/errors.go
package bus

import "fmt"

// ExceptionGatewayTargetFailed is the Modbus exception code reported in
// status blocks when the device did not answer at all.
const ExceptionGatewayTargetFailed uint16 = 0x0B

// TransportError is a connection-level failure: closed socket, timeout,
// short frame or an exchange attempted while disconnected.
// The client is always Disconnected after returning one.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bus transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Code() uint16 { return ExceptionGatewayTargetFailed }

// DeviceError is a Modbus exception response to a well-formed request.
// The connection stays usable.
type DeviceError struct {
	UnitID    uint8
	Function  uint8
	Exception uint8
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf(
		"bus device: unit=%d fc=%d exception=%d (%s)",
		e.UnitID, e.Function, e.Exception, exceptionText(e.Exception),
	)
}

func (e *DeviceError) Code() uint16 { return uint16(e.Exception) }

func exceptionText(code uint8) string {
	switch code {
	case 0x01:
		return "illegal function"
	case 0x02:
		return "illegal data address"
	case 0x03:
		return "illegal data value"
	case 0x04:
		return "server device failure"
	case 0x05:
		return "acknowledge"
	case 0x06:
		return "server device busy"
	case 0x08:
		return "memory parity error"
	case 0x0A:
		return "gateway path unavailable"
	case 0x0B:
		return "gateway target device failed to respond"
	default:
		return "unknown"
	}
}
