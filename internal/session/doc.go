// Package session is the application-facing facade over one puzzle worker.
//
// A Session owns the worker transport, an RPC client that correlates
// requests with responses over newline-delimited JSON, a set of reactive
// state cells mirroring the worker's notifications, and the checkpoint
// bookmark set. Notifications are applied in arrival order on the read
// loop, before the response that follows them, so by the time a mutating
// call returns the mirrors already reflect its effect.
//
// All potentially-mutating calls must be awaited one at a time; the
// session never pipelines them. Teardown is explicit: Delete terminates
// the worker and must be called exactly once.
package session
