// internal/sink/metrics.go
package sink

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/meter-poller/internal/poller"
)

// Metrics exports the latest value of every field as Prometheus gauges.
type Metrics struct {
	value         *prometheus.GaugeVec
	readDuration  *prometheus.HistogramVec
	readErrors    *prometheus.CounterVec
	cycleDuration prometheus.Gauge
	cyclesSkipped prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		value: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meterpoll_value",
			Help: "Last decoded value of a meter field.",
		}, []string{"unit", "profile", "field"}),
		readDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meterpoll_read_duration_seconds",
			Help:    "Duration of one read-holding-registers exchange.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"unit"}),
		readErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meterpoll_read_errors_total",
			Help: "Failed field reads by error kind.",
		}, []string{"unit", "field", "kind"}),
		cycleDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meterpoll_cycle_duration_seconds",
			Help: "Duration of the last completed poll cycle.",
		}),
		cyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meterpoll_cycles_skipped_total",
			Help: "Cycles skipped because the bus could not be reconnected.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.value, m.readDuration, m.readErrors, m.cycleDuration, m.cyclesSkipped,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Emit(r poller.Reading) {
	unit := strconv.Itoa(int(r.UnitID))

	if r.Duration > 0 {
		m.readDuration.WithLabelValues(unit).Observe(r.Duration.Seconds())
	}
	if r.Err != nil {
		m.readErrors.WithLabelValues(unit, r.Field, ErrorKind(r.Err)).Inc()
		return
	}
	m.value.WithLabelValues(unit, r.Profile, r.Field).Set(r.Value)
}

func (m *Metrics) CycleDone(c poller.Cycle) {
	if c.Skipped {
		m.cyclesSkipped.Inc()
		return
	}
	m.cycleDuration.Set(c.Elapsed().Seconds())
}
