//go:build cgo && (linux || darwin)

package native

/*
#cgo linux LDFLAGS: -ldl -rdynamic
#include <stdint.h>
#include <stdlib.h>

void leaktrack_symbolize(void *arg);
*/
import "C"

import (
	"runtime"
	"unsafe"

	"github.com/kolkov/leaktrack/leak"
)

func init() {
	runtime.SetCgoTraceback(0, nil, nil, unsafe.Pointer(C.leaktrack_symbolize))
}

// pcSlice copies n return addresses collected by C.
func pcSlice(pcs *C.uintptr_t, n C.int) []uintptr {
	if pcs == nil || n <= 0 {
		return nil
	}
	raw := unsafe.Slice((*uintptr)(unsafe.Pointer(pcs)), int(n))
	out := make([]uintptr, len(raw))
	copy(out, raw)
	return out
}

//export leaktrackRecordPCs
func leaktrackRecordPCs(link unsafe.Pointer, pcs *C.uintptr_t, n C.int) {
	leak.RecordCreationPCs((*leak.LinkNode)(link), pcSlice(pcs, n))
}

//export leaktrackFormatPCs
func leaktrackFormatPCs(pcs *C.uintptr_t, n C.int) *C.char {
	bt := leak.Default().Depot().Intern(pcSlice(pcs, n))
	return C.CString(bt.Format())
}
