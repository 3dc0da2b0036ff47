// Package ledger implements the creation ledger: a concurrent map from object
// identity to the backtrace captured when the object was created.
//
// # Locking
//
// Every read and write goes through one sync.Mutex. Critical sections contain
// only map operations; backtraces are captured by the caller before Record is
// called, so the allocation hot path holds the lock for a single map insert.
//
// # Panics while locked
//
// Go mutexes do not poison. Every critical section holds the lock for map
// operations only and releases it with defer, so a panic raised while the
// lock is held unwinds with the lock released and all entries intact.
// Callers that recover from such a panic can keep using the ledger.
//
// # Address reuse
//
// Identities of host objects are header addresses. When the host frees an
// object without calling Forget and later allocates a new one at the same
// address, Record overwrites the stale entry and reports the overwrite. Until
// that happens the stale backtrace is reported for the address. Hosts should
// call Forget from their object destructor.
package ledger
