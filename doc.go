// Package ipcsession turns a raw, asynchronous message channel between two
// cooperating processes into a correlated request/response session.
//
// Setup first runs a mutual readiness handshake, so that neither side sends
// application traffic before the other is listening. Afterwards either side
// may issue requests and receive exactly the matching response, with any
// number of requests in flight. Protocol envelopes are told apart from
// foreign messages sharing the channel by their structure.
//
// # Basic Usage
//
// Both ends call Setup on their side of the channel:
//
//	a, b := ipcsession.Pipe()
//
//	go func() {
//	    server, err := ipcsession.Setup(ctx, b,
//	        ipcsession.WithRequestHandler(func(ctx context.Context, payload any, respond ipcsession.Responder) {
//	            _, _ = respond(ctx, "pong")
//	        }),
//	    )
//	    ...
//	}()
//
//	client, err := ipcsession.Setup(ctx, a)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.SendRequest(ctx, "ping")
//
// # Channels
//
// Any implementation of Channel can carry a session. The package provides an
// in-memory Pipe, Spawn and Stdio for a parent and its child process, and
// DialWebSocket and AcceptWebSocket for peers on different hosts.
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	session, err := ipcsession.Setup(ctx, ch, ipcsession.WithLogger(logger))
//
// # Error Handling
//
// Send failures are reported as *SendError and wrap ErrNotAccepted when the
// channel refused the message outright:
//
//	resp, err := session.SendRequest(ctx, payload)
//	if err != nil {
//	    if sendErr, ok := errors.AsType[*ipcsession.SendError](err); ok {
//	        log.Fatalf("could not reach %s: %v", sendErr.To, sendErr.Err)
//	    }
//	    log.Fatal(err)
//	}
package ipcsession
