// Package protocol implements the session layer of the IPC protocol.
//
// Setup attaches the persistent listeners, runs the readiness handshake and
// returns a Session that issues correlated requests. The Controller owns the
// pending request table: each outbound request registers a waiter keyed by a
// ULID, and the response listener claims and removes the waiter exactly once
// when the matching response arrives.
//
// The Session handles:
//   - Dispatching inbound requests to the configured handler with a
//     single-use Responder
//   - Forwarding foreign messages to the configured handler
//   - Sending requests and correlating responses by id, in any order
//
// There is no built-in request timeout. A request that is never answered
// waits until its context is done; callers bound it with a deadline.
//
// Example usage:
//
//	a, b := transport.Pipe(log)
//
//	server, _ := protocol.Setup(ctx, log, b, &config.Options{
//	    RequestHandler: func(ctx context.Context, payload any, respond config.Responder) {
//	        _, _ = respond(ctx, "pong")
//	    },
//	})
//	client, _ := protocol.Setup(ctx, log, a, &config.Options{})
//
//	resp, err := client.SendRequest(ctx, "ping")
package protocol
