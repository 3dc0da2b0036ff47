package tracker

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kolkov/leaktrack/internal/leak/ledger"
)

const namespace = "leaktrack"

type metrics struct {
	recorded   prometheus.Counter
	rerecorded prometheus.Counter
	forgotten  prometheus.Counter
	live       prometheus.Gauge
	leaked     prometheus.Gauge
	entries    prometheus.GaugeFunc
}

func newMetrics(reg prometheus.Registerer, led *ledger.Ledger) *metrics {
	m := &metrics{
		recorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_recorded_total",
			Help:      "Number of object creations recorded in the ledger.",
		}),
		rerecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identities_reused_total",
			Help:      "Number of recordings that overwrote an existing ledger entry.",
		}),
		forgotten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_forgotten_total",
			Help:      "Number of ledger entries removed by the destruction hook.",
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_objects",
			Help:      "Objects found on the live list by the last report.",
		}),
		leaked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "leaked_objects",
			Help:      "Leaked objects found by the last report.",
		}),
		entries: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_entries",
			Help:      "Current number of entries in the creation ledger.",
		}, func() float64 {
			return float64(led.Len())
		}),
	}
	if reg != nil {
		reg.MustRegister(m.recorded, m.rerecorded, m.forgotten, m.live, m.leaked, m.entries)
	}
	return m
}
