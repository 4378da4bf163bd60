// Package host runs one native puzzle backend behind the wire protocol.
//
// A Host owns exactly one backend instance and serves the session's
// request/response calls over a line transport, normally the stdin/stdout
// of a dedicated worker process so that a crash or hang in puzzle code
// cannot take the caller down with it.
//
// The host is an event loop: requests and timer ticks are multiplexed onto
// a single goroutine, so the backend never sees concurrent calls — the
// same discipline the original single-threaded worker enforced by
// construction. Change notifications raised by the backend during a call
// are pushed to the session before that call's response, preserving the
// order the backend raised them; notifications raised while the backend is
// being constructed are buffered and flushed right after the create
// response.
package host
