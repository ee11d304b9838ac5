// Package metric runs the authorize-then-query cycle for one health metric.
//
// # Overview
//
// An Engine turns "show me today's steps" into a sequence of store calls:
// check the store exists, resolve the metric, make sure access was granted
// (asking through a capability.Gate if not), then sum today's samples. The
// outcome is published once per cycle to a single observer.
//
// # Phases
//
//	Idle --Refresh--> AwaitingAuthorization --granted--> Querying --done--> Settled
//	AwaitingAuthorization --failed--> Settled
//	Settled --Refresh--> AwaitingAuthorization
//
// # Generations
//
// Every Refresh gets a new generation number. A Refresh issued while another
// cycle is in flight supersedes it: the older cycle's context is cancelled
// and its completion, whenever it arrives, is discarded. Only the latest
// generation ever settles.
//
// # Threading
//
// Store calls run on background goroutines. Their completions are posted to
// the Dispatcher and state changes happen there, so the observer always runs
// on the dispatcher's goroutine. Accessors may be called from anywhere.
package metric
