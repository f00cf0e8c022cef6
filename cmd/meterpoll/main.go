// cmd/meterpoll/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tamzrod/meter-poller/internal/bus"
	busmodbus "github.com/tamzrod/meter-poller/internal/bus/modbus"
	"github.com/tamzrod/meter-poller/internal/config"
	"github.com/tamzrod/meter-poller/internal/logging"
	"github.com/tamzrod/meter-poller/internal/poller"
	"github.com/tamzrod/meter-poller/internal/sink"
	"github.com/tamzrod/meter-poller/internal/writer"
)

func main() {
	if len(os.Args) > 2 {
		log.Fatal("usage: meterpoll [config.yaml]")
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg := config.Default()
	if len(os.Args) == 2 {
		var err error
		if cfg, err = config.Load(os.Args[1]); err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	m := cfg.MeterPoll

	logger, err := logging.New(m.Log)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, m, logger); err != nil {
		logger.Error("meterpoll stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, m config.MeterPollConfig, logger *zap.Logger) error {
	// --------------------
	// Bus
	// --------------------

	tr, err := buildTransport(m.Source)
	if err != nil {
		return err
	}

	client, err := bus.New(tr, bus.Options{
		MaxAttempts: m.Reconnect.Attempts,
		RetryDelay:  time.Duration(m.Reconnect.DelayMs) * time.Millisecond,
	}, logger.Named("bus"))
	if err != nil {
		return err
	}

	// --------------------
	// Sinks
	// --------------------

	sinks := sink.Multi{sink.NewLog(logger)}

	if m.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		ms, err := sink.NewMetrics(reg)
		if err != nil {
			return err
		}
		sinks = append(sinks, ms)

		srv, err := serveMetrics(m.Metrics.Listen, reg, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if m.Mirror != nil {
		plan, err := writer.BuildPlan(m)
		if err != nil {
			return err
		}
		ec, err := writer.BuildEndpointClient(plan)
		if err != nil {
			return err
		}
		defer ec.Close()

		// unreachable mirror is not fatal: writes redial lazily
		if err := ec.Connect(); err != nil {
			logger.Warn("mirror not reachable", zap.String("endpoint", plan.Endpoint), zap.Error(err))
		}
		sinks = append(sinks, writer.New(plan, ec, logger))
	}

	// --------------------
	// Poll loop
	// --------------------

	p, err := poller.Build(m, client, sinks, logger)
	if err != nil {
		return err
	}

	logger.Info("meterpoll started",
		zap.String("transport", m.Source.Transport),
		zap.Int("units", len(m.Units)),
		zap.Int("interval_ms", m.Poll.IntervalMs),
	)

	p.Run(ctx)
	return nil
}

func buildTransport(s config.SourceConfig) (bus.Transport, error) {
	switch s.Transport {
	case config.TransportRTU:
		return busmodbus.NewRTU(busmodbus.RTUConfig{
			Device:   s.Serial.Device,
			BaudRate: s.Serial.BaudRate,
			DataBits: s.Serial.DataBits,
			Parity:   s.Serial.Parity,
			StopBits: s.Serial.StopBits,
			Timeout:  s.Timeout(),
		})
	default:
		return busmodbus.NewTCP(busmodbus.TCPConfig{
			Endpoint: s.Endpoint(),
			Timeout:  s.Timeout(),
		})
	}
}

// serveMetrics binds addr before returning so a bad listen address fails
// startup instead of a background goroutine.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv, nil
}
