// Package transport defines the channel boundary of an IPC session and the
// adapter that turns the channel's callback-style send into an error return.
//
// A Channel offers two primitives: Send, which reports synchronous acceptance
// and later invokes a completion callback, and Subscribe, which registers a
// handler for inbound messages and returns an explicit Subscription handle.
// Concrete channels live in sibling packages (subprocess, wsconn); Pipe
// provides an in-memory connected pair for tests and same-process peers.
package transport
