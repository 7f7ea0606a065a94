package transport

// Handler receives one inbound message. Handlers are invoked one at a time,
// in arrival order, on the channel's delivery goroutine.
type Handler func(msg any)

// Subscription is the handle returned by Subscribe.
// Unsubscribe is safe to call multiple times.
type Subscription interface {
	Unsubscribe()
}

// Channel is a bidirectional, asynchronous message channel to one peer.
//
// Implementations must be safe for concurrent use.
type Channel interface {
	// Send queues msg for delivery. It returns false if the channel refused the
	// message synchronously, in which case onComplete is never invoked.
	// Otherwise onComplete is invoked exactly once with the delivery error, or nil.
	Send(msg any, onComplete func(error)) bool

	// Subscribe registers handler for every inbound message until the returned
	// subscription is removed.
	Subscribe(handler Handler) Subscription
}

// Identity names both ends of a channel for diagnostics. Either side may be empty.
type Identity struct {
	Self string
	Peer string
}

// Identifier is implemented by channels that can name their endpoints.
type Identifier interface {
	Identity() Identity
}

// IdentityOf returns the channel's identity, or the zero Identity.
func IdentityOf(ch Channel) Identity {
	if id, ok := ch.(Identifier); ok {
		return id.Identity()
	}

	return Identity{}
}
