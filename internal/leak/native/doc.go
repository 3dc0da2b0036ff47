// Package native provides the C entry points an engine links against.
//
// The creation hook and the backtrace helpers are written in C so the stack
// is unwound where the engine called them. Go's runtime.Callers cannot see C
// frames, so a hook implemented as a Go export would record the same cgo
// trampoline for every object. The C side collects return addresses with
// backtrace(3) and hands them to the default tracker; a cgo symbolizer
// registered with runtime.SetCgoTraceback resolves them through dladdr(3)
// when the report is printed.
//
// Exported C symbols:
//
//	void  record_gc_object_creation(void *link);
//	char *get_backtrace(void);
//	void  free_backtrace_string(char *s);
//
// Symbol names come from the dynamic symbol table. Engines linked statically
// into an executable need -rdynamic (added automatically on Linux) or their
// frames print as "??".
//
// The package is empty unless cgo is enabled on Linux or macOS.
package native
