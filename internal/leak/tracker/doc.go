// Package tracker ties the leak-tracking engine together.
//
// A Tracker owns a creation ledger and a backtrace depot. The host calls
// RecordCreation from every object constructor, Forget from every destructor,
// and ReportLeaks at diagnostic checkpoints such as shutdown or after a forced
// collection.
//
// Flow:
//
//	host constructor -> RecordCreation(link)
//	                    -> layout.RecoverHeader(link).Identity()
//	                    -> depot.Capture (no lock held)
//	                    -> ledger.Record (one map insert under the lock)
//
//	checkpoint       -> ReportLeaks(head)
//	                    -> walker.Collect(head, walkLimit)
//	                    -> reporter.Build (hash-set diff against the ledger)
//	                    -> table / pprof output
//
// Thread Safety: RecordCreation, RecordIdentity and Forget are safe to call
// from any number of goroutines or host threads. Walks and reports require the
// host to keep its live list quiescent while they run.
package tracker
