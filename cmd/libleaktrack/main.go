//go:build cgo && (linux || darwin)

// Command libleaktrack builds the C entry points of the leak tracker.
//
// Build it as a C archive or shared library and link it into the engine:
//
//	go build -buildmode=c-archive -o libleaktrack.a ./cmd/libleaktrack
//
// The engine then calls, from C:
//
//	record_gc_object_creation(&obj->header.link);  // after list_add_tail
//	forget_gc_object(&obj->header.link);           // in the finalizer
//	print_gc_objects(&rt->gc_obj_list);
//	report_gc_leaks(&rt->gc_obj_list);
//
//	char *s = get_backtrace();                     // ad-hoc stack dump
//	fputs(s, stderr);
//	free_backtrace_string(s);
//
// record_gc_object_creation and get_backtrace live in package native and are
// written in C, so the recorded stack starts at the engine's allocation
// function rather than at a cgo trampoline.
//
// Every pointer is reinterpreted as the Go mirror of the engine's structs
// without validation. validate_gc_header_layout should be called once at
// startup with the engine's own sizeof/offsetof values.
package main

/*
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	_ "github.com/kolkov/leaktrack/internal/leak/native"
	"github.com/kolkov/leaktrack/leak"
)

//export forget_gc_object
func forget_gc_object(link unsafe.Pointer) C.int {
	if leak.Forget((*leak.LinkNode)(link)) {
		return 1
	}
	return 0
}

//export print_gc_object
func print_gc_object(header unsafe.Pointer) {
	leak.PrintObject((*leak.ObjectHeader)(header))
}

//export print_gc_objects
func print_gc_objects(head unsafe.Pointer) {
	leak.PrintLiveObjects((*leak.LinkNode)(head))
}

// report_gc_leaks returns the number of leaked objects, or -1 when no report
// could be produced.
//
//export report_gc_leaks
func report_gc_leaks(head unsafe.Pointer) C.long {
	r := leak.ReportLeaks((*leak.LinkNode)(head))
	if r == nil {
		return -1
	}
	return C.long(r.Summary.Leaked)
}

// validate_gc_header_layout returns 0 when the engine layout matches, -1
// otherwise. The mismatch is logged.
//
//export validate_gc_header_layout
func validate_gc_header_layout(size, refCountOff, markOff, dummy1Off, dummy2Off, linkOff C.size_t) C.int {
	host := leak.NativeSchema()
	host.Size = uintptr(size)
	host.RefCountOffset = uintptr(refCountOff)
	host.MarkOffset = uintptr(markOff)
	host.Reserved1Offset = uintptr(dummy1Off)
	host.Reserved2Offset = uintptr(dummy2Off)
	host.LinkOffset = uintptr(linkOff)
	if err := leak.ValidateSchema(host); err != nil {
		return -1
	}
	return 0
}

func main() {}
