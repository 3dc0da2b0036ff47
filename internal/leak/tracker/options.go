package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kolkov/leaktrack/internal/config"
	"github.com/kolkov/leaktrack/internal/leak/backtrace"
	"github.com/kolkov/leaktrack/internal/leak/ledger"
)

type options struct {
	cfg        *config.Config
	logger     *zap.Logger
	registerer prometheus.Registerer
	ledger     *ledger.Ledger
	depot      *backtrace.Depot
}

// Option configures a Tracker.
type Option func(*options)

// WithConfig applies cfg. Without it config.Default is used.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegisterer registers the tracker metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithLedger makes the tracker use an existing ledger.
func WithLedger(l *ledger.Ledger) Option {
	return func(o *options) {
		o.ledger = l
	}
}

// WithDepot makes the tracker use an existing backtrace depot.
func WithDepot(d *backtrace.Depot) Option {
	return func(o *options) {
		o.depot = d
	}
}
