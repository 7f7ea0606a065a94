package ipcsession

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wagiedev/ipc-session-go/internal/envelope"
)

// Re-export envelope types from internal package

// Request is the envelope of an outbound request.
type Request = envelope.Request

// Response is the envelope answering a Request.
type Response = envelope.Response

// HandshakeRequest is the envelope announcing readiness.
type HandshakeRequest = envelope.HandshakeRequest

// HandshakeResponse is the envelope acknowledging a HandshakeRequest.
type HandshakeResponse = envelope.HandshakeResponse

// Kind classifies an inbound message.
type Kind = envelope.Kind

// Message kinds returned by KindOf.
const (
	KindHandshakeRequest  = envelope.KindHandshakeRequest
	KindHandshakeResponse = envelope.KindHandshakeResponse
	KindRequest           = envelope.KindRequest
	KindResponse          = envelope.KindResponse
	KindForeign           = envelope.KindForeign
)

// NewRequest builds a request envelope.
func NewRequest(requestID string, payload any) *Request {
	return envelope.NewRequest(requestID, payload)
}

// NewResponseTo builds the response envelope correlated to req.
func NewResponseTo(req *Request, payload any) *Response {
	return envelope.NewResponseTo(req, payload)
}

// NewHandshakeRequest builds a handshake request envelope.
func NewHandshakeRequest(handshakeID string) *HandshakeRequest {
	return envelope.NewHandshakeRequest(handshakeID)
}

// NewHandshakeResponseTo builds the handshake response correlated to req.
func NewHandshakeResponseTo(req *HandshakeRequest) *HandshakeResponse {
	return envelope.NewHandshakeResponseTo(req)
}

// IsRequest reports whether msg is a request envelope.
func IsRequest(msg any) bool { return envelope.IsRequest(msg) }

// IsResponse reports whether msg is a response envelope.
func IsResponse(msg any) bool { return envelope.IsResponse(msg) }

// IsResponseTo reports whether msg is the response to requestID.
func IsResponseTo(requestID string, msg any) bool { return envelope.IsResponseTo(requestID, msg) }

// IsHandshakeRequest reports whether msg is a handshake request envelope.
func IsHandshakeRequest(msg any) bool { return envelope.IsHandshakeRequest(msg) }

// IsHandshakeResponse reports whether msg is a handshake response envelope.
func IsHandshakeResponse(msg any) bool { return envelope.IsHandshakeResponse(msg) }

// IsHandshakeResponseTo reports whether msg is the handshake response to expectedID.
func IsHandshakeResponseTo(msg any, expectedID string) bool {
	return envelope.IsHandshakeResponseTo(msg, expectedID)
}

// KindOf classifies msg.
func KindOf(msg any) Kind { return envelope.KindOf(msg) }

// IsProtocol reports whether msg is a protocol envelope.
func IsProtocol(msg any) bool { return envelope.IsProtocol(msg) }

// IsForeign reports whether msg is not a protocol envelope.
func IsForeign(msg any) bool { return envelope.IsForeign(msg) }

// Schemas returns the JSON schema of each envelope kind.
func Schemas() map[Kind]*jsonschema.Schema { return envelope.Schemas() }
