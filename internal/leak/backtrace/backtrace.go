// Package backtrace captures and deduplicates allocation-site stack traces.
//
// A Depot stores each distinct stack once, keyed by an xxhash of its program
// counters. Objects created from the same call site share one *Backtrace, so
// the ledger grows by one pointer per object rather than one stack.
//
// Capture only records program counters. Symbolization (function, file and
// line) happens lazily the first time Frames or Format is called, which keeps
// the recording path cheap.
//
// Usage:
//
//	depot := backtrace.NewDepot(backtrace.DefaultMaxFrames)
//	bt := depot.Capture(0)
//	fmt.Print(bt.Format())
package backtrace

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultMaxFrames is the capture depth used when none is configured.
const DefaultMaxFrames = 32

// instrumentationFrames are frames of the tracker itself. They sit between
// the host call site and runtime.Callers and are dropped when formatting.
var instrumentationFrames = []string{
	"/leak.RecordCreation",
	"/leak.RecordIdentity",
	"/leak/tracker.(*Tracker).RecordCreation",
	"/leak/tracker.(*Tracker).RecordIdentity",
	"/leak/tracker.(*Tracker).record",
	"record_gc_object_creation",
	"get_backtrace",
}

// cgoFrames mark the Go side of a C to Go call.
var cgoFrames = []string{"_cgoexp_", "_Cfunc_", "crosscall2"}

// Frame is one symbolized stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
	PC       uintptr
}

// String formats the frame as "function file:line".
// Native frames symbolized without debug information have no line and carry
// the object file path instead, formatted as "function file".
func (f Frame) String() string {
	if f.Line == 0 {
		return fmt.Sprintf("%s %s", f.Function, f.File)
	}
	return fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line)
}

// Backtrace is an immutable captured call stack.
type Backtrace struct {
	id  uint64
	pcs []uintptr

	once   sync.Once
	frames []Frame
}

// New wraps already captured program counters in a Backtrace.
// The slice is copied.
func New(pcs []uintptr) *Backtrace {
	cp := make([]uintptr, len(pcs))
	copy(cp, pcs)
	return &Backtrace{id: hashStack(cp), pcs: cp}
}

// ID returns the deduplication hash of the stack. Equal stacks have equal IDs.
func (b *Backtrace) ID() uint64 {
	return b.id
}

// Depth returns the number of captured program counters.
func (b *Backtrace) Depth() int {
	return len(b.pcs)
}

// PCs returns a copy of the captured program counters.
func (b *Backtrace) PCs() []uintptr {
	cp := make([]uintptr, len(b.pcs))
	copy(cp, b.pcs)
	return cp
}

// Frames symbolizes the stack, skipping runtime and tracker frames.
// The result is computed once and shared; callers must not modify it.
func (b *Backtrace) Frames() []Frame {
	b.once.Do(func() {
		if len(b.pcs) == 0 {
			return
		}
		frames := runtime.CallersFrames(b.pcs)
		for {
			frame, more := frames.Next()
			if frame.PC != 0 && !skipFrame(frame.Function) {
				if frame.Function == "" {
					frame.Function = "??"
				}
				b.frames = append(b.frames, Frame{
					Function: frame.Function,
					File:     frame.File,
					Line:     frame.Line,
					PC:       frame.PC,
				})
			}
			if !more {
				break
			}
		}
	})
	return b.frames
}

// Top returns the innermost non-runtime frame, or "N/A" when there is none.
func (b *Backtrace) Top() string {
	if b == nil {
		return "N/A"
	}
	frames := b.Frames()
	if len(frames) == 0 {
		return "N/A"
	}
	return frames[0].String()
}

// Format renders the stack one frame per two lines:
//
//	main.newObject()
//	    /path/to/file.go:42
func (b *Backtrace) Format() string {
	if b == nil {
		return "  (no backtrace recorded)\n"
	}
	frames := b.Frames()
	if len(frames) == 0 {
		return "  (all frames filtered - runtime internal)\n"
	}

	var buf strings.Builder
	for _, f := range frames {
		if f.Line == 0 {
			fmt.Fprintf(&buf, "  %s()\n      %s\n", f.Function, f.File)
			continue
		}
		fmt.Fprintf(&buf, "  %s()\n      %s:%d\n", f.Function, f.File, f.Line)
	}
	return buf.String()
}

// String implements fmt.Stringer with the full formatted stack.
func (b *Backtrace) String() string {
	return b.Format()
}

func skipFrame(function string) bool {
	if strings.HasPrefix(function, "runtime.") {
		return true
	}
	for _, suffix := range instrumentationFrames {
		if strings.HasSuffix(function, suffix) {
			return true
		}
	}
	for _, marker := range cgoFrames {
		if strings.Contains(function, marker) {
			return true
		}
	}
	return false
}

// hashStack computes the xxhash of the program counters.
func hashStack(pcs []uintptr) uint64 {
	var buf [8]byte
	d := xxhash.New()
	for _, pc := range pcs {
		binary.LittleEndian.PutUint64(buf[:], uint64(pc))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
