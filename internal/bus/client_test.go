// internal/bus/client_test.go
package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

// ---- fake transport ----

type fakeTransport struct {
	open bool

	connectCalls int
	closeCalls   int
	connectErr   error

	words   []uint16
	readErr error
}

func (f *fakeTransport) Connect() error {
	f.connectCalls++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.open = true
	return nil
}

func (f *fakeTransport) Close() error {
	f.closeCalls++
	f.open = false
	return nil
}

func (f *fakeTransport) IsOpen() bool { return f.open }

func (f *fakeTransport) ReadHoldingRegisters(unitID uint8, addr, qty uint16) ([]uint16, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.words, nil
}

func newTestClient(t *testing.T, tr *fakeTransport, opts Options) (*Client, *[]time.Duration) {
	t.Helper()

	c, err := New(tr, opts, nil)
	assert.NilError(t, err)

	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return c, &sleeps
}

// ---- tests ----

func TestEnsureConnected_AliveMakesNoAttempts(t *testing.T) {
	tr := &fakeTransport{}
	c, sleeps := newTestClient(t, tr, Options{})
	assert.NilError(t, c.Connect())
	tr.connectCalls = 0

	assert.Assert(t, c.EnsureConnected(context.Background()))
	assert.Equal(t, tr.connectCalls, 0)
	assert.Equal(t, tr.closeCalls, 0)
	assert.Equal(t, len(*sleeps), 0)
}

func TestEnsureConnected_ExhaustsAttempts(t *testing.T) {
	tr := &fakeTransport{connectErr: errors.New("refused")}
	c, sleeps := newTestClient(t, tr, Options{MaxAttempts: 5, RetryDelay: 2 * time.Second})

	assert.Assert(t, !c.EnsureConnected(context.Background()))
	assert.Equal(t, tr.connectCalls, 5)

	// delay sits between attempts
	assert.Equal(t, len(*sleeps), 4)
	for _, d := range *sleeps {
		assert.Equal(t, d, 2*time.Second)
	}
	assert.Assert(t, !c.IsAlive())
}

func TestEnsureConnected_SucceedsOnLaterAttempt(t *testing.T) {
	tr := &fakeTransport{connectErr: errors.New("refused")}
	c, sleeps := newTestClient(t, tr, Options{MaxAttempts: 5, RetryDelay: time.Second})

	c.sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		if len(*sleeps) == 2 {
			tr.connectErr = nil
		}
		return nil
	}

	assert.Assert(t, c.EnsureConnected(context.Background()))
	assert.Equal(t, tr.connectCalls, 3)
	assert.Assert(t, c.IsAlive())
}

func TestEnsureConnected_ClosesStaleTransportFirst(t *testing.T) {
	tr := &fakeTransport{open: true} // socket open, session never healthy
	c, _ := newTestClient(t, tr, Options{})

	assert.Assert(t, !c.IsAlive())
	assert.Assert(t, c.EnsureConnected(context.Background()))
	assert.Equal(t, tr.closeCalls, 1)
	assert.Equal(t, tr.connectCalls, 1)
}

func TestEnsureConnected_StopsOnCancel(t *testing.T) {
	tr := &fakeTransport{connectErr: errors.New("refused")}
	c, _ := newTestClient(t, tr, Options{MaxAttempts: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Assert(t, !c.EnsureConnected(ctx))
	assert.Equal(t, tr.connectCalls, 1)
}

func TestReadRegisters_TransportErrorDisconnects(t *testing.T) {
	tr := &fakeTransport{readErr: errors.New("i/o timeout")}
	c, _ := newTestClient(t, tr, Options{})
	assert.NilError(t, c.Connect())

	_, err := c.ReadRegisters(1, 0x5B02, 2)

	var trErr *TransportError
	assert.Assert(t, errors.As(err, &trErr))
	assert.Assert(t, !c.IsAlive())
	assert.Equal(t, tr.closeCalls, 1)
}

func TestReadRegisters_DeviceErrorKeepsConnection(t *testing.T) {
	tr := &fakeTransport{readErr: &DeviceError{UnitID: 1, Function: 3, Exception: 2}}
	c, _ := newTestClient(t, tr, Options{})
	assert.NilError(t, c.Connect())

	_, err := c.ReadRegisters(1, 0x5B02, 2)

	var devErr *DeviceError
	assert.Assert(t, errors.As(err, &devErr))
	assert.Equal(t, devErr.Code(), uint16(2))
	assert.Assert(t, c.IsAlive())
	assert.Equal(t, tr.closeCalls, 0)
}

func TestReadRegisters_ShortResponseIsTransportError(t *testing.T) {
	tr := &fakeTransport{words: []uint16{1}}
	c, _ := newTestClient(t, tr, Options{})
	assert.NilError(t, c.Connect())

	_, err := c.ReadRegisters(1, 0, 2)

	var trErr *TransportError
	assert.Assert(t, errors.As(err, &trErr))
	assert.Assert(t, !c.IsAlive())
}

func TestReadRegisters_NotConnected(t *testing.T) {
	tr := &fakeTransport{words: []uint16{1}}
	c, _ := newTestClient(t, tr, Options{})

	_, err := c.ReadRegisters(1, 0, 1)

	var trErr *TransportError
	assert.Assert(t, errors.As(err, &trErr))
}

func TestReadRegisters_Success(t *testing.T) {
	tr := &fakeTransport{words: []uint16{0, 2200}}
	c, _ := newTestClient(t, tr, Options{})
	assert.NilError(t, c.Connect())

	words, err := c.ReadRegisters(1, 0x5B02, 2)
	assert.NilError(t, err)
	assert.DeepEqual(t, words, []uint16{0, 2200})
}

func TestDisconnect_Idempotent(t *testing.T) {
	tr := &fakeTransport{}
	c, _ := newTestClient(t, tr, Options{})

	assert.NilError(t, c.Disconnect())
	assert.NilError(t, c.Connect())
	assert.NilError(t, c.Disconnect())
	assert.NilError(t, c.Disconnect())
	assert.Assert(t, !c.IsAlive())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Options{}, nil)
	assert.ErrorContains(t, err, "transport required")

	_, err = New(&fakeTransport{}, Options{RetryDelay: -time.Second}, nil)
	assert.ErrorContains(t, err, "retry delay")
}
