package layout

import (
	"fmt"
	"unsafe"
)

// LinkNode is one element of the host's intrusive circular list.
//
// The list has a sentinel head. An empty list has Prev and Next of the head
// pointing at the head itself.
type LinkNode struct {
	Prev *LinkNode
	Next *LinkNode
}

// ObjectHeader is the header shared by every GC object of the host engine.
//
// Field order and sizes must match the host exactly. See Native and
// Schema.Validate.
type ObjectHeader struct {
	RefCount  int32
	GCObjMark uint8 // low nibble: type tag, high nibble: mark bits
	Reserved1 uint8
	Reserved2 uint16
	Link      LinkNode
}

// LinkOffset is the byte offset of ObjectHeader.Link.
const LinkOffset = unsafe.Offsetof(ObjectHeader{}.Link)

// Identity identifies a tracked object. For headers living in host memory it
// is the header address. Handle-based hosts use their handle value instead.
//
// An address identity is only stable while the host has not freed and reused
// the memory behind it.
type Identity uint64

// String formats the identity the way addresses are printed in reports.
func (id Identity) String() string {
	return fmt.Sprintf("0x%012x", uint64(id))
}

// RecoverHeader returns the ObjectHeader enclosing the given link node.
//
// node MUST be the Link field of a real ObjectHeader. Any other pointer
// produces a header pointer into unrelated memory.
func RecoverHeader(node *LinkNode) *ObjectHeader {
	return (*ObjectHeader)(unsafe.Add(unsafe.Pointer(node), -int(LinkOffset)))
}

// Identity returns the header address as an Identity.
func (h *ObjectHeader) Identity() Identity {
	return Identity(uintptr(unsafe.Pointer(h)))
}

// Type decodes the type tag from the low nibble of the mark byte.
func (h *ObjectHeader) Type() TypeTag {
	return DecodeTypeTag(h.GCObjMark)
}

// Mark returns the collector mark bits from the high nibble of the mark byte.
func (h *ObjectHeader) Mark() uint8 {
	return MarkBits(h.GCObjMark)
}

// Snapshot copies the header fields that reports print.
//
// Reports are built from snapshots so that nothing downstream keeps a
// pointer into host memory.
func (h *ObjectHeader) Snapshot() Snapshot {
	return Snapshot{
		ID:        h.Identity(),
		RefCount:  h.RefCount,
		GCObjMark: h.GCObjMark,
		Reserved1: h.Reserved1,
		Reserved2: h.Reserved2,
	}
}

// Snapshot is a by-value copy of an object header taken during a walk.
type Snapshot struct {
	ID        Identity
	RefCount  int32
	GCObjMark uint8
	Reserved1 uint8
	Reserved2 uint16
}

// Type decodes the type tag of the snapshot.
func (s Snapshot) Type() TypeTag {
	return DecodeTypeTag(s.GCObjMark)
}

// Mark returns the mark bits of the snapshot.
func (s Snapshot) Mark() uint8 {
	return MarkBits(s.GCObjMark)
}

// PackMark builds a mark byte from a type tag and mark bits.
// Only the low four bits of each argument are used.
func PackMark(tag TypeTag, mark uint8) uint8 {
	return (mark&0x0F)<<4 | uint8(tag)&0x0F
}
