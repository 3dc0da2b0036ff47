// Package walker traverses the host's intrusive circular list of live GC
// objects.
//
// The list is owned by the host. A walk reads Next pointers only and never
// writes to the list. The caller must keep the list quiescent (no insertion,
// removal or free) for the duration of a walk, for example by walking at
// shutdown or inside a stop-the-world pause.
package walker

import (
	"errors"
	"fmt"
	"iter"

	"github.com/kolkov/leaktrack/internal/leak/layout"
)

var (
	// ErrBrokenList is returned when a node has a nil Next pointer.
	ErrBrokenList = errors.New("live list is not circular")

	// ErrWalkLimit is returned when a bounded walk visits more nodes than
	// allowed without returning to the head.
	ErrWalkLimit = errors.New("live list walk limit exceeded")
)

// Walk yields the header of every node on the list, in list order, starting
// at head.Next and stopping when the walk returns to head.
//
// A nil head yields nothing. Any other invalid head, or a list whose nodes are
// not embedded in ObjectHeaders, is undefined behavior.
//
// Walk does not allocate. It can be ranged over repeatedly while the list is
// unmodified and produces the same sequence each time.
func Walk(head *layout.LinkNode) iter.Seq[*layout.ObjectHeader] {
	return func(yield func(*layout.ObjectHeader) bool) {
		if head == nil {
			return
		}
		for node := head.Next; node != nil && node != head; node = node.Next {
			if !yield(layout.RecoverHeader(node)) {
				return
			}
		}
	}
}

// Count returns the number of nodes on the list.
func Count(head *layout.LinkNode) int {
	n := 0
	for range Walk(head) {
		n++
	}
	return n
}

// Collect walks the list and returns a snapshot of every header.
//
// Unlike Walk it detects two kinds of list damage: a nil Next pointer
// (ErrBrokenList) and a walk that does not close within limit nodes
// (ErrWalkLimit). A limit <= 0 disables the bound. The snapshots collected
// before the error are returned along with it.
func Collect(head *layout.LinkNode, limit int) ([]layout.Snapshot, error) {
	if head == nil {
		return nil, nil
	}

	var out []layout.Snapshot
	node := head.Next
	for node != head {
		if node == nil {
			return out, fmt.Errorf("%w: nil next pointer after %d nodes", ErrBrokenList, len(out))
		}
		if limit > 0 && len(out) >= limit {
			return out, fmt.Errorf("%w: more than %d nodes", ErrWalkLimit, limit)
		}
		out = append(out, layout.RecoverHeader(node).Snapshot())
		node = node.Next
	}
	return out, nil
}

// List adapts a raw host list to a sequence of header snapshots.
type List struct {
	Head *layout.LinkNode
}

// Objects yields a snapshot of every header on the list in list order.
func (l List) Objects() iter.Seq[layout.Snapshot] {
	return func(yield func(layout.Snapshot) bool) {
		for h := range Walk(l.Head) {
			if !yield(h.Snapshot()) {
				return
			}
		}
	}
}

// Init makes head an empty list.
func Init(head *layout.LinkNode) {
	head.Prev = head
	head.Next = head
}

// AddTail links node at the tail of the list, just before head.
//
// Hosts written in Go, and tests, use it to build lists with the same shape
// the engine builds with list_add_tail.
func AddTail(node, head *layout.LinkNode) {
	prev := head.Prev
	prev.Next = node
	node.Prev = prev
	node.Next = head
	head.Prev = node
}

// Del unlinks node from whatever list it is on and clears its pointers.
func Del(node *layout.LinkNode) {
	node.Prev.Next = node.Next
	node.Next.Prev = node.Prev
	node.Prev = nil
	node.Next = nil
}
