// Package capability decides whether stepctl may read a health metric.
//
// # Overview
//
// A Gate sits between the query engine and the health store's authorization
// API. It answers two questions: what is the current verdict for the metric
// (Status), and "please ask the user" (Request).
//
// # Core Concepts
//
// Verdict: the store owns the AuthorizationState. The gate never caches it;
// Status always asks the store and has no side effects.
//
// Collapsing: the store's authorization prompt is expensive and visible to
// the user. Concurrent Request calls share one outstanding store request and
// every caller is notified when it finishes.
//
// Delivery: completion callbacks always run through the Dispatcher, never on
// the goroutine that talked to the store.
//
// # Usage
//
//	gate := capability.NewGate(store, health.StepCount, loop)
//	if gate.Status() != health.Granted {
//	    gate.Request(ctx, func(err error) {
//	        // runs on the loop
//	    })
//	}
package capability
