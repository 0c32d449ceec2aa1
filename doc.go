// Package reactor implements a fine-grained reactive state runtime for
// nested Go aggregates: records, ordered sequences, sets, and mappings
// become tracked values whose mutations are captured, validated against an
// optional schema, and propagated to subscribers and observers at
// property-level granularity.
//
// The runtime is organized around four cooperating layers:
//
//   - traps (object.go, array.go, dict.go, set.go): method-based accessors
//     that stand in for the proxy interception a dynamic language would use.
//   - an ambient observer stack (context.go) that records which (state, key)
//     pairs a running computation reads.
//   - a write-contract layer (contract.go) that exposes an otherwise
//     immutable view through an allow-listed writable facade.
//   - a debounced history log (history.go) built on the same change stream
//     that drives subscriptions.
//
// reactor has no event loop, renderer, or persistence of its own; it is a
// library that other layers (UI bindings, storage adapters, RPC transports)
// build on top of.
package reactor
