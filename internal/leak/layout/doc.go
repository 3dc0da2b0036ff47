// Package layout describes the memory layout of a garbage-collected object
// header as laid out by the host engine.
//
// The host engine links every live GC object into a circular doubly-linked
// list through a LinkNode embedded in the object header:
//
//	struct JSGCObjectHeader {
//	    int ref_count;
//	    uint8_t gc_obj_type : 4;
//	    uint8_t mark : 4;
//	    uint8_t dummy1;
//	    uint16_t dummy2;
//	    struct list_head link;
//	};
//
// ObjectHeader mirrors that struct field by field. Given a pointer to the
// embedded link, RecoverHeader subtracts LinkOffset to reach the enclosing
// header. No field is dereferenced to do so.
//
// # Preconditions
//
// This package operates on memory owned by the host. Nothing here checks that
// a pointer handed in really is the embedded link of a live ObjectHeader, or
// that the host compiled its struct with the same field order and packing.
// Violating either is undefined behavior. Hosts should call Schema.Validate
// once at startup with their own offsetof values so that a layout drift is
// caught before the first object is recorded.
//
// Decoding the mark byte is total: DecodeTypeTag maps unknown values to
// TypeUnknown and MarkBits accepts every byte.
package layout
