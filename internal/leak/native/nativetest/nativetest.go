//go:build cgo && (linux || darwin)

// Package nativetest is a miniature C engine used by the native package
// tests. Its allocation functions call the C entry points exactly as an
// engine does.
package nativetest

/*
#include <stdlib.h>

void record_gc_object_creation(void *link);
char *get_backtrace(void);
void free_backtrace_string(char *s);

void js_new_shape(void *link);
void js_new_bytecode(void *link);
char *js_dump_stack(void);
*/
import "C"

import (
	"unsafe"

	_ "github.com/kolkov/leaktrack/internal/leak/native"
	"github.com/kolkov/leaktrack/leak"
)

// NewShape records h from the C function js_new_shape.
func NewShape(h *leak.ObjectHeader) {
	C.js_new_shape(unsafe.Pointer(&h.Link))
}

// NewBytecode records h from the C function js_new_bytecode.
func NewBytecode(h *leak.ObjectHeader) {
	C.js_new_bytecode(unsafe.Pointer(&h.Link))
}

// DumpStack returns get_backtrace as seen from the C function js_dump_stack.
func DumpStack() string {
	s := C.js_dump_stack()
	defer C.free_backtrace_string(s)
	return C.GoString(s)
}
