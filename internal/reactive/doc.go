// Package reactive provides typed observable cells and helpers to wire
// listeners to them.
//
// An Observable notifies its listeners synchronously, in registration order,
// with the previous and current value whenever Set changes the value. It is
// not safe for concurrent use: every Set, Listen and Init must run on the
// single execution context that owns the observable graph.
package reactive
