// internal/sink/sink.go
package sink

import (
	"errors"

	"github.com/tamzrod/meter-poller/internal/bus"
	"github.com/tamzrod/meter-poller/internal/poller"
	"github.com/tamzrod/meter-poller/internal/register"
)

// Error kinds used as log field and metric label.
const (
	KindTransport = "transport"
	KindDevice    = "device"
	KindConfig    = "config"
	KindDecode    = "decode"
)

// ErrorKind classifies a reading error for reporting.
func ErrorKind(err error) string {
	var trErr *bus.TransportError
	var devErr *bus.DeviceError
	switch {
	case errors.As(err, &trErr):
		return KindTransport
	case errors.As(err, &devErr):
		return KindDevice
	case errors.Is(err, register.ErrUnsupportedWordCount):
		return KindConfig
	default:
		return KindDecode
	}
}

// Multi fans readings and cycle boundaries out to every member, in order.
type Multi []poller.Sink

func (m Multi) Emit(r poller.Reading) {
	for _, s := range m {
		s.Emit(r)
	}
}

func (m Multi) CycleDone(c poller.Cycle) {
	for _, s := range m {
		if o, ok := s.(poller.CycleObserver); ok {
			o.CycleDone(c)
		}
	}
}
