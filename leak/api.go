package leak

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/kolkov/leaktrack/internal/config"
	"github.com/kolkov/leaktrack/internal/leak/layout"
	"github.com/kolkov/leaktrack/internal/leak/reporter"
	"github.com/kolkov/leaktrack/internal/leak/tracker"
	"github.com/kolkov/leaktrack/internal/leak/walker"
	"github.com/kolkov/leaktrack/internal/logging"
)

type (
	// LinkNode is the list link embedded in every object header.
	LinkNode = layout.LinkNode

	// ObjectHeader is the header of a tracked object.
	ObjectHeader = layout.ObjectHeader

	// Schema describes the header layout for ValidateSchema.
	Schema = layout.Schema

	// Tracker records creations and reports leaks.
	Tracker = tracker.Tracker

	// Report is the result of a leak check.
	Report = reporter.Report
)

var (
	defaultTracker atomic.Pointer[tracker.Tracker]
	builtinTracker = sync.OnceValue(newDefault)
)

// newDefault builds the process-wide tracker from the environment. A broken
// configuration falls back to defaults rather than failing the host.
func newDefault() *tracker.Tracker {
	cfg, err := config.Load(os.Getenv("LEAKTRACK_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "leaktrack: %v; using defaults\n", err)
		cfg = config.Default()
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return tracker.New(tracker.WithConfig(cfg))
	}
	return tracker.New(tracker.WithConfig(cfg), tracker.WithLogger(logger))
}

// Default returns the process-wide tracker.
//
// It is the tracker installed with SetDefault, or else one built from the
// environment on first use. The built-in tracker is created exactly once.
// Lookup takes no lock, so the ledger mutex stays the only lock on the
// recording path.
func Default() *Tracker {
	if t := defaultTracker.Load(); t != nil {
		return t
	}
	return builtinTracker()
}

// SetDefault replaces the process-wide tracker. Hosts that build their own
// Tracker with NewTracker install it here before the first RecordCreation.
// SetDefault(nil) restores the built-in tracker.
func SetDefault(t *Tracker) {
	defaultTracker.Store(t)
}

// NewTracker creates a tracker that is independent of the default one.
func NewTracker(opts ...tracker.Option) *Tracker {
	return tracker.New(opts...)
}

// NativeSchema returns the header layout compiled into this package.
func NativeSchema() Schema {
	return layout.Native()
}

// ValidateSchema checks the host's header layout against NativeSchema.
func ValidateSchema(host Schema) error {
	return Default().ValidateSchema(host)
}

// RecordCreation records the object whose header embeds link.
//
// Call it once per object, right after linking the object into the live list.
// Safe for concurrent use.
func RecordCreation(link *LinkNode) {
	Default().RecordCreation(link)
}

// RecordCreationPCs records the object whose header embeds link with a stack
// the caller already captured, such as native return addresses. The C entry
// points use it because the Go runtime cannot unwind C frames.
func RecordCreationPCs(link *LinkNode, pcs []uintptr) {
	Default().RecordCreationPCs(link, pcs)
}

// Forget drops the ledger entry of the object whose header embeds link.
// Call it from the object's destructor.
func Forget(link *LinkNode) bool {
	return Default().Forget(link)
}

// PrintObject writes one object header to stderr.
func PrintObject(h *ObjectHeader) {
	Default().PrintObject(os.Stderr, h)
}

// PrintLiveObjects writes the live-object table and summary for the list
// rooted at head to stderr.
func PrintLiveObjects(head *LinkNode) {
	_ = Default().PrintLiveObjects(os.Stderr, head)
}

// ReportLeaks writes the full leak report for the list rooted at head to
// stderr and returns it. It returns nil when head is nil or the list is
// damaged; the reason is logged.
func ReportLeaks(head *LinkNode) *Report {
	r, _ := Default().ReportLeaks(os.Stderr, head)
	return r
}

// InitList makes head an empty live list.
func InitList(head *LinkNode) {
	walker.Init(head)
}

// AddTail links node at the tail of the list rooted at head.
func AddTail(node, head *LinkNode) {
	walker.AddTail(node, head)
}

// Unlink removes node from its list.
func Unlink(node *LinkNode) {
	walker.Del(node)
}
