package tracker

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kolkov/leaktrack/internal/config"
	"github.com/kolkov/leaktrack/internal/leak/backtrace"
	"github.com/kolkov/leaktrack/internal/leak/layout"
	"github.com/kolkov/leaktrack/internal/leak/ledger"
	"github.com/kolkov/leaktrack/internal/leak/reporter"
	"github.com/kolkov/leaktrack/internal/leak/walker"
)

// ErrNilHead is returned when a report is requested for a nil list head.
var ErrNilHead = errors.New("nil live list head")

// Tracker records object creations and reports leaks.
type Tracker struct {
	ledger  *ledger.Ledger
	depot   *backtrace.Depot
	logger  *zap.Logger
	metrics *metrics
	cfg     config.Config

	enabled atomic.Bool
}

// New creates a tracker.
func New(opts ...Option) *Tracker {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.ledger == nil {
		o.ledger = ledger.New()
	}
	if o.depot == nil {
		o.depot = backtrace.NewDepot(o.cfg.MaxFrames)
	}

	t := &Tracker{
		ledger:  o.ledger,
		depot:   o.depot,
		logger:  o.logger,
		metrics: newMetrics(o.registerer, o.ledger),
		cfg:     *o.cfg,
	}
	t.enabled.Store(!o.cfg.Disabled)
	return t
}

// Ledger returns the creation ledger.
func (t *Tracker) Ledger() *ledger.Ledger {
	return t.ledger
}

// Depot returns the backtrace depot.
func (t *Tracker) Depot() *backtrace.Depot {
	return t.depot
}

// Enabled reports whether recording is active.
func (t *Tracker) Enabled() bool {
	return t.enabled.Load()
}

// SetEnabled turns recording on or off. Reports work either way.
func (t *Tracker) SetEnabled(on bool) {
	t.enabled.Store(on)
}

// ValidateSchema checks the host's header layout against the compiled one.
// Hosts call it once at startup, before the first RecordCreation.
func (t *Tracker) ValidateSchema(host layout.Schema) error {
	if err := layout.Native().Validate(host); err != nil {
		t.logger.Error("object header layout check failed", zap.Error(err))
		return err
	}
	t.logger.Debug("object header layout verified",
		zap.String("version", host.Version),
		zap.Uint64("link_offset", uint64(host.LinkOffset)))
	return nil
}

// RecordCreation records the object whose header embeds link.
//
// link MUST be the Link field of a live ObjectHeader; see package layout.
// A nil link is logged and ignored.
func (t *Tracker) RecordCreation(link *layout.LinkNode) {
	if link == nil {
		t.logger.Warn("RecordCreation called with nil link")
		return
	}
	t.record(layout.RecoverHeader(link).Identity())
}

// RecordIdentity records an object by identity, for hosts that address
// objects by handle rather than by header pointer.
func (t *Tracker) RecordIdentity(id layout.Identity) {
	t.record(id)
}

func (t *Tracker) record(id layout.Identity) {
	if !t.enabled.Load() {
		return
	}

	// Capture before touching the ledger so the lock covers the insert only.
	// Skip record and the exported Record* method.
	t.store(id, t.depot.Capture(2))
}

// RecordCreationPCs records the object whose header embeds link with a stack
// captured by the caller, typically native return addresses collected on the
// C side of a cgo call. pcs is copied.
func (t *Tracker) RecordCreationPCs(link *layout.LinkNode, pcs []uintptr) {
	if link == nil {
		t.logger.Warn("RecordCreationPCs called with nil link")
		return
	}
	if !t.enabled.Load() {
		return
	}
	t.store(layout.RecoverHeader(link).Identity(), t.depot.Intern(pcs))
}

func (t *Tracker) store(id layout.Identity, bt *backtrace.Backtrace) {
	if t.ledger.Record(id, bt) {
		t.metrics.rerecorded.Inc()
		t.logger.Debug("identity recorded again, previous entry replaced",
			zap.Stringer("identity", id))
	}
	t.metrics.recorded.Inc()
}

// Forget removes the ledger entry of the object whose header embeds link.
// Hosts call it from the object destructor. It reports whether an entry
// existed.
func (t *Tracker) Forget(link *layout.LinkNode) bool {
	if link == nil {
		return false
	}
	return t.ForgetIdentity(layout.RecoverHeader(link).Identity())
}

// ForgetIdentity removes the ledger entry for id.
func (t *Tracker) ForgetIdentity(id layout.Identity) bool {
	if !t.ledger.Forget(id) {
		return false
	}
	t.metrics.forgotten.Inc()
	return true
}

// Report diffs objects against the ledger.
//
// objects must not change until Report returns.
func (t *Tracker) Report(objects iter.Seq[layout.Snapshot]) *reporter.Report {
	r := reporter.Build(objects, t.ledger)

	t.metrics.live.Set(float64(r.Summary.TotalLive))
	t.metrics.leaked.Set(float64(r.Summary.Leaked))

	fields := []zap.Field{
		zap.Int("live", r.Summary.TotalLive),
		zap.Int("live_with_backtrace", r.Summary.LiveWithBacktrace),
		zap.Int("live_without_backtrace", r.Summary.LiveWithoutBacktrace),
		zap.Int("ledger", r.Summary.LedgerSize),
		zap.Int("leaked", r.Summary.Leaked),
	}
	if r.Summary.Leaked > 0 {
		t.logger.Warn("leaked objects found", fields...)
	} else {
		t.logger.Info("no leaked objects", fields...)
	}
	return r
}

// ReportList walks the host list rooted at head and diffs it against the
// ledger.
//
// A damaged list (nil Next, or more than walk_limit nodes) returns an error
// and no report, since a partial walk would misreport live objects as leaks.
func (t *Tracker) ReportList(head *layout.LinkNode) (*reporter.Report, error) {
	if head == nil {
		t.logger.Warn("report requested with nil list head")
		return nil, ErrNilHead
	}
	snaps, err := walker.Collect(head, t.cfg.WalkLimit)
	if err != nil {
		t.logger.Error("live list walk failed",
			zap.Int("visited", len(snaps)),
			zap.Error(err))
		return nil, fmt.Errorf("walk live list: %w", err)
	}
	return t.Report(slices.Values(snaps)), nil
}

// PrintLiveObjects writes the live-object table and summary for the list
// rooted at head.
func (t *Tracker) PrintLiveObjects(w io.Writer, head *layout.LinkNode) error {
	r, err := t.ReportList(head)
	if err != nil {
		return err
	}
	r.WriteTable(w)
	return nil
}

// PrintObject writes a single header as a one-row table.
func (t *Tracker) PrintObject(w io.Writer, h *layout.ObjectHeader) {
	if h == nil {
		return
	}
	bt, _ := t.ledger.Lookup(h.Identity())
	reporter.WriteEntries(w, []reporter.LiveEntry{{Snapshot: h.Snapshot(), Backtrace: bt}})
}

// ReportLeaks walks the list rooted at head, writes the full report to w and
// returns it. With pprof output configured the leak profile is also written
// to the configured path.
func (t *Tracker) ReportLeaks(w io.Writer, head *layout.LinkNode) (*reporter.Report, error) {
	r, err := t.ReportList(head)
	if err != nil {
		return nil, err
	}
	if err := t.Emit(w, r); err != nil {
		t.logger.Error("leak report output failed", zap.Error(err))
		return r, err
	}
	return r, nil
}

// Emit writes r to w and, with pprof output configured, to the pprof path.
func (t *Tracker) Emit(w io.Writer, r *reporter.Report) error {
	r.Print(w)
	if t.cfg.Output != config.OutputPprof {
		return nil
	}

	f, err := os.Create(t.cfg.PprofPath)
	if err != nil {
		return fmt.Errorf("create leak profile: %w", err)
	}
	if err := r.WritePprof(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close leak profile: %w", err)
	}
	t.logger.Info("leak profile written", zap.String("path", t.cfg.PprofPath))
	return nil
}

// Reset clears the ledger and the depot.
//
// Thread Safety: must not race with RecordCreation. Intended for tests and
// for hosts that restart their runtime in-process.
func (t *Tracker) Reset() {
	t.ledger.Reset()
	t.depot.Reset()
}
