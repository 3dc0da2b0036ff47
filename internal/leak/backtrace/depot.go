package backtrace

import (
	"runtime"
	"slices"
	"sync"
)

// Depot deduplicates captured stacks.
//
// Thread Safety: all methods are safe for concurrent use. Capture takes no
// lock on the hit path.
type Depot struct {
	maxFrames int
	stacks    sync.Map // uint64 (hash) -> *Backtrace
}

// NewDepot returns a depot capturing at most maxFrames frames per stack.
// A non-positive maxFrames selects DefaultMaxFrames.
func NewDepot(maxFrames int) *Depot {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	return &Depot{maxFrames: maxFrames}
}

// MaxFrames returns the capture depth.
func (d *Depot) MaxFrames() int {
	return d.maxFrames
}

// Capture records the stack of its caller and returns the shared Backtrace
// for it. skip is the number of additional frames to drop above the caller:
// 0 makes the caller of Capture the first frame.
//
// Returns nil when no frame could be captured.
func (d *Depot) Capture(skip int) *Backtrace {
	pcs := make([]uintptr, d.maxFrames)
	// 0: runtime.Callers, 1: Capture.
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}
	return d.intern(pcs[:n])
}

// Intern returns the shared Backtrace for program counters captured
// elsewhere, such as native return addresses collected by C code. At most
// MaxFrames counters are kept and the slice is copied.
//
// Returns nil for an empty stack.
func (d *Depot) Intern(pcs []uintptr) *Backtrace {
	if len(pcs) == 0 {
		return nil
	}
	if len(pcs) > d.maxFrames {
		pcs = pcs[:d.maxFrames]
	}
	return d.intern(slices.Clone(pcs))
}

// intern takes ownership of pcs.
func (d *Depot) intern(pcs []uintptr) *Backtrace {
	id := hashStack(pcs)
	if v, ok := d.stacks.Load(id); ok {
		return v.(*Backtrace)
	}
	v, _ := d.stacks.LoadOrStore(id, &Backtrace{id: id, pcs: pcs})
	return v.(*Backtrace)
}

// Lookup returns the stored stack with the given ID, or nil.
func (d *Depot) Lookup(id uint64) *Backtrace {
	if id == 0 {
		return nil
	}
	v, ok := d.stacks.Load(id)
	if !ok {
		return nil
	}
	return v.(*Backtrace)
}

// Stats returns the number of distinct stacks and an estimate of the memory
// they hold.
//
// Performance: O(N), not for hot paths.
func (d *Depot) Stats() (uniqueStacks int, totalMemory int64) {
	const ptrSize = 8
	d.stacks.Range(func(_, v any) bool {
		uniqueStacks++
		// PCs plus the Backtrace struct and the sync.Map entry.
		totalMemory += int64(v.(*Backtrace).Depth())*ptrSize + 96
		return true
	})
	return uniqueStacks, totalMemory
}

// Reset drops every stored stack. Backtraces already handed out stay valid.
func (d *Depot) Reset() {
	d.stacks.Clear()
}
