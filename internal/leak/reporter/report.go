// Package reporter diffs the host's live list against the creation ledger.
//
// An object is live when a walk of the live list reaches it and leaked when
// the ledger has an entry for it that no walk reached. Build walks the list
// once into a hash set and then checks every ledger entry against the set,
// so a report costs O(live + ledger).
//
// Reports are plain values. WriteTable, WriteLeaks and WritePprof render them;
// nothing in this package prints on its own.
package reporter

import (
	"iter"

	"github.com/kolkov/leaktrack/internal/leak/backtrace"
	"github.com/kolkov/leaktrack/internal/leak/layout"
	"github.com/kolkov/leaktrack/internal/leak/ledger"
)

// LiveEntry is one object found on the live list.
type LiveEntry struct {
	layout.Snapshot

	// Backtrace is the creation backtrace, nil if the object was never
	// recorded.
	Backtrace *backtrace.Backtrace
}

// LeakedEntry is a ledger entry whose object is not on the live list.
type LeakedEntry = ledger.Entry

// Summary holds the report counters.
type Summary struct {
	TotalLive            int
	LiveWithBacktrace    int
	LiveWithoutBacktrace int
	LedgerSize           int
	Leaked               int
}

// Report is the result of one diff.
type Report struct {
	// Live lists objects in list order.
	Live []LiveEntry

	// Leaked lists leaked objects sorted by identity.
	Leaked []LeakedEntry

	Summary Summary
}

// Build walks objects once and diffs the result against the ledger.
//
// objects must not change while Build runs; see package walker.
func Build(objects iter.Seq[layout.Snapshot], led *ledger.Ledger) *Report {
	r := &Report{}
	live := make(map[layout.Identity]struct{})

	entries := led.Entries()
	recorded := make(map[layout.Identity]*backtrace.Backtrace, len(entries))
	for _, e := range entries {
		recorded[e.ID] = e.Backtrace
	}

	for s := range objects {
		live[s.ID] = struct{}{}
		bt, ok := recorded[s.ID]
		if ok {
			r.Summary.LiveWithBacktrace++
		} else {
			r.Summary.LiveWithoutBacktrace++
		}
		r.Live = append(r.Live, LiveEntry{Snapshot: s, Backtrace: bt})
	}

	for _, e := range entries {
		if _, ok := live[e.ID]; !ok {
			r.Leaked = append(r.Leaked, e)
		}
	}

	r.Summary.TotalLive = len(r.Live)
	r.Summary.LedgerSize = len(entries)
	r.Summary.Leaked = len(r.Leaked)
	return r
}

// LeakedIDs returns the identities of the leaked objects in report order.
func (r *Report) LeakedIDs() []layout.Identity {
	ids := make([]layout.Identity, len(r.Leaked))
	for i, e := range r.Leaked {
		ids[i] = e.ID
	}
	return ids
}

// IsLeaked reports whether id is in the leaked set.
func (r *Report) IsLeaked(id layout.Identity) bool {
	for _, e := range r.Leaked {
		if e.ID == id {
			return true
		}
	}
	return false
}
