// Package puzzle defines the boundary to the native puzzle modules.
//
// A native module (a Backend) owns all puzzle semantics: move rules,
// generation, solving, serialization. Everything above this package treats
// a Backend as a black box and talks to it only through the interface here.
//
// The package also defines the change-notification union — the only channel
// by which a running backend informs its session of state changes — and the
// registry that maps stable puzzle ids to backend factories.
package puzzle
