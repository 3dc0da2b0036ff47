// Package arena is a slab of GC object records addressed by stable handles.
//
// It plays the role of a host engine written in Go. Records are linked into a
// circular live list the same way the native engine links ObjectHeaders, but
// the links are slab indices rather than pointers and a record's identity is
// its Handle. A handle carries a generation that changes every time the slot
// is freed, so a reused slot never has the identity of the object it replaces.
//
// An Arena is not safe for concurrent use, matching a single-threaded script
// runtime. Walks require that the arena is not modified until they finish.
package arena

import (
	"errors"
	"fmt"
	"iter"

	"github.com/kolkov/leaktrack/internal/leak/layout"
)

// ErrStaleHandle is returned when a handle does not refer to a live record.
var ErrStaleHandle = errors.New("stale or invalid object handle")

// Handle identifies one allocation. The zero Handle is never valid.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

func (h Handle) index() uint32 { return uint32(h) }
func (h Handle) gen() uint32   { return uint32(h >> 32) }

// Identity returns the handle as a ledger identity.
func (h Handle) Identity() layout.Identity {
	return layout.Identity(h)
}

// String formats the handle as index#generation.
func (h Handle) String() string {
	return fmt.Sprintf("%d#%d", h.index(), h.gen())
}

// sentinel is the slab index of the list head.
const sentinel = 0

type record struct {
	refCount  int32
	mark      uint8
	reserved1 uint8
	reserved2 uint16

	prev, next uint32
	gen        uint32
	live       bool // allocated
	linked     bool // on the live list
}

// Arena owns the slab, the free list and the live list.
type Arena struct {
	records []record
	free    []uint32
	live    int
}

// New returns an empty arena.
func New() *Arena {
	a := &Arena{records: make([]record, 1)}
	a.records[sentinel].prev = sentinel
	a.records[sentinel].next = sentinel
	return a
}

// Alloc creates an object with the given type tag and a reference count of
// one, links it at the tail of the live list and returns its handle.
func (a *Arena) Alloc(tag layout.TypeTag) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.records))
		// Generations start at 1 so that no live handle is zero.
		a.records = append(a.records, record{gen: 1})
	}

	r := &a.records[idx]
	r.refCount = 1
	r.mark = layout.PackMark(tag, 0)
	r.reserved1 = 0
	r.reserved2 = 0
	r.live = true
	r.linked = true

	// list_add_tail
	head := &a.records[sentinel]
	tail := head.prev
	a.records[tail].next = idx
	r.prev = tail
	r.next = sentinel
	head.prev = idx

	a.live++
	return makeHandle(idx, r.gen)
}

// Free unlinks the object from the live list and releases its slot.
func (a *Arena) Free(h Handle) error {
	r, err := a.lookup(h)
	if err != nil {
		return err
	}
	a.unlink(r)
	r.live = false
	r.gen++
	if r.gen == 0 {
		r.gen = 1
	}
	a.free = append(a.free, h.index())
	return nil
}

// Unlink removes the object from the live list without freeing it, which is
// how a host loses track of an object it never releases.
func (a *Arena) Unlink(h Handle) error {
	r, err := a.lookup(h)
	if err != nil {
		return err
	}
	a.unlink(r)
	return nil
}

func (a *Arena) unlink(r *record) {
	if !r.linked {
		return
	}
	a.records[r.prev].next = r.next
	a.records[r.next].prev = r.prev
	r.prev, r.next = 0, 0
	r.linked = false
	a.live--
}

// SetRefCount sets the reference count of a live object.
func (a *Arena) SetRefCount(h Handle, n int32) error {
	r, err := a.lookup(h)
	if err != nil {
		return err
	}
	r.refCount = n
	return nil
}

// SetMark sets the collector mark bits of a live object, keeping its type.
func (a *Arena) SetMark(h Handle, mark uint8) error {
	r, err := a.lookup(h)
	if err != nil {
		return err
	}
	r.mark = layout.PackMark(layout.TypeTag(r.mark&0x0F), mark)
	return nil
}

// Get returns a snapshot of a live object.
func (a *Arena) Get(h Handle) (layout.Snapshot, error) {
	r, err := a.lookup(h)
	if err != nil {
		return layout.Snapshot{}, err
	}
	return r.snapshot(h.Identity()), nil
}

// Len returns the number of objects on the live list.
func (a *Arena) Len() int {
	return a.live
}

// Objects yields a snapshot of every object on the live list in list order.
func (a *Arena) Objects() iter.Seq[layout.Snapshot] {
	return func(yield func(layout.Snapshot) bool) {
		for idx := a.records[sentinel].next; idx != sentinel; {
			r := &a.records[idx]
			if !yield(r.snapshot(makeHandle(idx, r.gen).Identity())) {
				return
			}
			idx = r.next
		}
	}
}

func (a *Arena) lookup(h Handle) (*record, error) {
	idx := h.index()
	if idx == sentinel || int(idx) >= len(a.records) {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	r := &a.records[idx]
	if !r.live || r.gen != h.gen() {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	return r, nil
}

func (r *record) snapshot(id layout.Identity) layout.Snapshot {
	return layout.Snapshot{
		ID:        id,
		RefCount:  r.refCount,
		GCObjMark: r.mark,
		Reserved1: r.reserved1,
		Reserved2: r.reserved2,
	}
}
