package ledger

import (
	"cmp"
	"slices"
	"sync"

	"github.com/kolkov/leaktrack/internal/leak/backtrace"
	"github.com/kolkov/leaktrack/internal/leak/layout"
)

// Entry is one ledger record.
type Entry struct {
	ID        layout.Identity
	Backtrace *backtrace.Backtrace
}

// Ledger maps object identities to creation backtraces.
//
// The zero value is ready to use. The underlying map is allocated exactly once,
// by whichever method runs first.
type Ledger struct {
	once    sync.Once
	mu      sync.Mutex
	entries map[layout.Identity]*backtrace.Backtrace
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) init() {
	l.once.Do(func() {
		l.entries = make(map[layout.Identity]*backtrace.Backtrace)
	})
}

// Record stores bt for id, replacing any previous entry.
// It reports whether an entry for id already existed.
func (l *Ledger) Record(id layout.Identity, bt *backtrace.Backtrace) (replaced bool) {
	l.init()
	l.mu.Lock()
	defer l.mu.Unlock()

	_, replaced = l.entries[id]
	l.entries[id] = bt
	return replaced
}

// Forget removes the entry for id and reports whether one existed.
func (l *Ledger) Forget(id layout.Identity) bool {
	l.init()
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.entries[id]
	delete(l.entries, id)
	return ok
}

// Lookup returns the backtrace recorded for id.
func (l *Ledger) Lookup(id layout.Identity) (*backtrace.Backtrace, bool) {
	l.init()
	l.mu.Lock()
	defer l.mu.Unlock()

	bt, ok := l.entries[id]
	return bt, ok
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.init()
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// Entries returns a snapshot of every entry sorted by identity.
//
// The lock is held only while copying; sorting happens after it is released.
func (l *Ledger) Entries() []Entry {
	l.init()
	l.mu.Lock()
	out := make([]Entry, 0, len(l.entries))
	for id, bt := range l.entries {
		out = append(out, Entry{ID: id, Backtrace: bt})
	}
	l.mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Reset removes every entry.
func (l *Ledger) Reset() {
	l.init()
	l.mu.Lock()
	defer l.mu.Unlock()

	clear(l.entries)
}
