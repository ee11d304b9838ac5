// Package health defines the boundary between stepctl and a device-level
// health data store.
//
// # Overview
//
// The health store itself is an external collaborator: it owns the samples and
// the authorization decisions. stepctl talks to it exclusively through the
// Platform interface so that the capability gate and the metric engine can be
// exercised against a fake store in tests and against a persistent store in
// production.
//
// # Core Concepts
//
// MetricType: the identifier of the quantity a caller is interested in, for
// example StepCount. It is opaque until the platform resolves it.
//
// PlatformType: a MetricType that the store recognised. Only resolved types can
// be authorized, queried or written.
//
// AuthorizationState: the store's verdict for a type. The store is the source
// of truth; stepctl observes it and asks for transitions but never forces one.
//
// TimeWindow: the half-open interval a query aggregates over. Today returns
// the window from the start of the current calendar day up to now.
//
// Failure: the typed error taxonomy surfaced to the display layer. Every
// failure carries a Detail string meant to be shown verbatim.
//
// # Implementations
//
// Two platforms ship with stepctl:
//
//	health/simulated    in-memory store with failure injection
//	health/sqlitestore  file-backed store built on modernc.org/sqlite
package health
