// Package leak finds garbage-collected objects that an embedded script engine
// created but no longer links into its live-object list.
//
// # Quick Start
//
// The host engine calls RecordCreation right after linking a new object into
// its live list, Forget from the object's destructor, and ReportLeaks at a
// checkpoint where the list is quiescent:
//
//	func newObject(rt *Runtime) *leak.ObjectHeader {
//		h := rt.alloc()
//		leak.AddTail(&h.Link, &rt.gcObjList)
//		leak.RecordCreation(&h.Link)
//		return h
//	}
//
//	func (rt *Runtime) Close() {
//		rt.collect()
//		leak.ReportLeaks(&rt.gcObjList)
//	}
//
// Native engines reach the same functions through the C exports built by
// cmd/libleaktrack.
//
// # How It Works
//
// Every live object header embeds a LinkNode. RecordCreation recovers the
// header address from the link by subtracting a fixed offset, captures the
// caller's stack and stores it in a ledger keyed by that address. ReportLeaks
// walks the live list once, builds the set of addresses on it, and reports
// every ledger entry whose address is not in the set, together with the stack
// captured when the object was created.
//
// # Preconditions
//
// The package reads host memory without checking it. Pointers passed in must
// be the Link field of real object headers laid out exactly like
// ObjectHeader; call ValidateSchema at startup with the host's offsets. The
// host must not modify the live list while PrintLiveObjects or ReportLeaks
// runs. Nil pointers are ignored.
//
// # Address Reuse
//
// Identities are addresses. If the host frees an object without calling
// Forget and reuses its memory, the stale backtrace is shown for the new
// object until the new object is recorded. Hosts that cannot call Forget
// should expect leaked reports for objects that were freed normally.
//
// # Configuration
//
// The default tracker reads LEAKTRACK_* environment variables and, when
// LEAKTRACK_CONFIG names a YAML file, that file. See internal/config.
package leak
