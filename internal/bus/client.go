// internal/bus/client.go
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Transport is the raw read-holding-registers capability.
// Implementations must make Close safe to call on a closed transport.
type Transport interface {
	Connect() error
	Close() error
	IsOpen() bool
	ReadHoldingRegisters(unitID uint8, addr, qty uint16) ([]uint16, error)
}

// Options controls reconnection. Zero values select the defaults.
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 2 * time.Second
)

// Client owns exactly one transport to one bus endpoint.
// It is not safe for concurrent use: the poll loop is its only caller.
type Client struct {
	tr      Transport
	opts    Options
	log     *zap.Logger
	healthy bool

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a disconnected client.
func New(tr Transport, opts Options, log *zap.Logger) (*Client, error) {
	if tr == nil {
		return nil, errors.New("bus: transport required")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay < 0 {
		return nil, errors.New("bus: retry delay must be >= 0")
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		tr:    tr,
		opts:  opts,
		log:   log,
		sleep: sleepCtx,
	}, nil
}

// Connect opens the transport and marks the session healthy.
func (c *Client) Connect() error {
	if err := c.tr.Connect(); err != nil {
		c.healthy = false
		return &TransportError{Op: "connect", Err: err}
	}
	c.healthy = true
	return nil
}

// IsAlive requires both an open transport and a healthy session.
func (c *Client) IsAlive() bool {
	return c.healthy && c.tr.IsOpen()
}

// EnsureConnected reconnects when the session is not alive.
// Up to MaxAttempts connects are made with RetryDelay between them.
// It returns false when every attempt failed or ctx was cancelled.
func (c *Client) EnsureConnected(ctx context.Context) bool {
	if c.IsAlive() {
		return true
	}

	c.log.Warn("connection lost, reconnecting", zap.Int("max_attempts", c.opts.MaxAttempts))
	c.closeTransport()

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		err := c.Connect()
		if err == nil {
			c.log.Info("reconnected", zap.Int("attempt", attempt))
			return true
		}

		c.log.Warn("reconnect attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == c.opts.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, c.opts.RetryDelay); err != nil {
			return false
		}
	}

	return false
}

// ReadRegisters performs one read-holding-registers exchange.
// A *DeviceError leaves the connection as it was.
// Any other failure is returned as *TransportError and closes the transport.
func (c *Client) ReadRegisters(unitID uint8, addr, count uint16) ([]uint16, error) {
	if !c.IsAlive() {
		return nil, &TransportError{Op: "read", Err: errors.New("not connected")}
	}

	words, err := c.tr.ReadHoldingRegisters(unitID, addr, count)
	if err != nil {
		var devErr *DeviceError
		if errors.As(err, &devErr) {
			return nil, devErr
		}
		return nil, c.fail(&TransportError{Op: "read", Err: err})
	}

	if len(words) != int(count) {
		return nil, c.fail(&TransportError{
			Op:  "read",
			Err: fmt.Errorf("short response: got %d registers, want %d", len(words), count),
		})
	}

	return words, nil
}

// Disconnect closes the transport. Always safe to call.
func (c *Client) Disconnect() error {
	c.healthy = false
	return c.tr.Close()
}

func (c *Client) fail(err *TransportError) error {
	c.log.Warn("transport failure, closing connection", zap.Error(err))
	c.closeTransport()
	return err
}

func (c *Client) closeTransport() {
	c.healthy = false
	if err := c.tr.Close(); err != nil {
		c.log.Debug("close stale transport", zap.Error(err))
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
