package envelope

// Wire keys.
const (
	KeyMsgType       = "ipc_msg_type"
	KeyUID           = "ipc_uid"
	KeyPayload       = "ipc_payload"
	KeyHandshakeUID  = "ipc_handshake_uid"
	KeyHandshakeType = "ipc_handshake_type"
)

// Discriminant values.
const (
	TypeRequest           = "ipc_request"
	TypeResponse          = "ipc_response"
	TypeHandshakeRequest  = "handshake_request"
	TypeHandshakeResponse = "handshake_response"
)

// Kind identifies the envelope variant of a message.
type Kind string

const (
	KindHandshakeRequest  Kind = TypeHandshakeRequest
	KindHandshakeResponse Kind = TypeHandshakeResponse
	KindRequest           Kind = TypeRequest
	KindResponse          Kind = TypeResponse
	KindForeign           Kind = "foreign"
)

// Label returns the human-readable name used in send failures and logs.
func (k Kind) Label() string {
	switch k {
	case KindHandshakeRequest:
		return "handshake request"
	case KindHandshakeResponse:
		return "handshake response"
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	default:
		return "message"
	}
}

// Request carries an application payload to the peer.
//
// Wire format:
//
//	{
//	  "ipc_msg_type": "ipc_request",
//	  "ipc_uid": "01HZX3A8Q2...",
//	  "ipc_payload": ...
//	}
type Request struct {
	// Type is always "ipc_request"
	Type string `json:"ipc_msg_type"`

	// ID correlates the request with its response
	ID string `json:"ipc_uid"`

	Payload any `json:"ipc_payload"`
}

// Response answers the Request with the same ID.
type Response struct {
	// Type is always "ipc_response"
	Type string `json:"ipc_msg_type"`

	// ID equals the ID of the answered request
	ID string `json:"ipc_uid"`

	Payload any `json:"ipc_payload"`
}

// HandshakeRequest asks the peer to confirm it is listening.
type HandshakeRequest struct {
	ID   string `json:"ipc_handshake_uid"`
	Type string `json:"ipc_handshake_type"`
}

// HandshakeResponse confirms the HandshakeRequest with the same ID.
type HandshakeResponse struct {
	ID   string `json:"ipc_handshake_uid"`
	Type string `json:"ipc_handshake_type"`
}

// NewRequest builds a request envelope.
func NewRequest(requestID string, payload any) *Request {
	return &Request{Type: TypeRequest, ID: requestID, Payload: payload}
}

// NewResponseTo builds the response envelope for req.
func NewResponseTo(req *Request, payload any) *Response {
	return &Response{Type: TypeResponse, ID: req.ID, Payload: payload}
}

// NewHandshakeRequest builds a handshake request envelope.
func NewHandshakeRequest(handshakeID string) *HandshakeRequest {
	return &HandshakeRequest{ID: handshakeID, Type: TypeHandshakeRequest}
}

// NewHandshakeResponseTo builds the handshake response envelope for req.
func NewHandshakeResponseTo(req *HandshakeRequest) *HandshakeResponse {
	return &HandshakeResponse{ID: req.ID, Type: TypeHandshakeResponse}
}
