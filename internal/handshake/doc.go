// Package handshake implements the duplex readiness handshake of an IPC session.
//
// Both peers run two sub-protocols at once over the same channel:
//
//   - SEND/GET: send a handshake request with a fresh id and wait for the
//     handshake response carrying that id.
//   - GET/SEND: wait for any handshake request and answer it.
//
// Whichever finishes first resolves the handshake. Because the channel is
// symmetric, one peer's SEND/GET always pairs with the other peer's GET/SEND,
// so each side resolves regardless of which starts first. Both listeners are
// removed when the coordinator reaches a terminal state, success or failure.
//
// The coordinator has no timeout. A missing peer blocks Run until its
// context is done; callers bound the wait with a context deadline.
package handshake
