package envelope

// AsRequest returns msg as a Request if it structurally is one.
func AsRequest(msg any) (*Request, bool) {
	switch m := msg.(type) {
	case *Request:
		if m == nil || m.Type != TypeRequest || m.ID == "" {
			return nil, false
		}

		return m, true
	case Request:
		return AsRequest(&m)
	case map[string]any:
		id, payload, ok := correlated(m, TypeRequest)
		if !ok {
			return nil, false
		}

		return &Request{Type: TypeRequest, ID: id, Payload: payload}, true
	default:
		return nil, false
	}
}

// AsResponse returns msg as a Response if it structurally is one.
func AsResponse(msg any) (*Response, bool) {
	switch m := msg.(type) {
	case *Response:
		if m == nil || m.Type != TypeResponse || m.ID == "" {
			return nil, false
		}

		return m, true
	case Response:
		return AsResponse(&m)
	case map[string]any:
		id, payload, ok := correlated(m, TypeResponse)
		if !ok {
			return nil, false
		}

		return &Response{Type: TypeResponse, ID: id, Payload: payload}, true
	default:
		return nil, false
	}
}

// AsHandshakeRequest returns msg as a HandshakeRequest if it structurally is one.
func AsHandshakeRequest(msg any) (*HandshakeRequest, bool) {
	switch m := msg.(type) {
	case *HandshakeRequest:
		if m == nil || m.Type != TypeHandshakeRequest || m.ID == "" {
			return nil, false
		}

		return m, true
	case HandshakeRequest:
		return AsHandshakeRequest(&m)
	case map[string]any:
		id, ok := handshake(m, TypeHandshakeRequest)
		if !ok {
			return nil, false
		}

		return &HandshakeRequest{ID: id, Type: TypeHandshakeRequest}, true
	default:
		return nil, false
	}
}

// AsHandshakeResponse returns msg as a HandshakeResponse if it structurally is one.
func AsHandshakeResponse(msg any) (*HandshakeResponse, bool) {
	switch m := msg.(type) {
	case *HandshakeResponse:
		if m == nil || m.Type != TypeHandshakeResponse || m.ID == "" {
			return nil, false
		}

		return m, true
	case HandshakeResponse:
		return AsHandshakeResponse(&m)
	case map[string]any:
		id, ok := handshake(m, TypeHandshakeResponse)
		if !ok {
			return nil, false
		}

		return &HandshakeResponse{ID: id, Type: TypeHandshakeResponse}, true
	default:
		return nil, false
	}
}

// IsRequest reports whether msg is a request envelope.
func IsRequest(msg any) bool {
	_, ok := AsRequest(msg)

	return ok
}

// IsResponse reports whether msg is a response envelope.
func IsResponse(msg any) bool {
	_, ok := AsResponse(msg)

	return ok
}

// IsResponseTo reports whether msg is the response to the request with requestID.
func IsResponseTo(requestID string, msg any) bool {
	resp, ok := AsResponse(msg)

	return ok && resp.ID == requestID
}

// IsHandshakeRequest reports whether msg is a handshake request envelope.
func IsHandshakeRequest(msg any) bool {
	_, ok := AsHandshakeRequest(msg)

	return ok
}

// IsHandshakeResponse reports whether msg is a handshake response envelope.
func IsHandshakeResponse(msg any) bool {
	_, ok := AsHandshakeResponse(msg)

	return ok
}

// IsHandshakeResponseTo reports whether msg answers the handshake with expectedID.
func IsHandshakeResponseTo(msg any, expectedID string) bool {
	resp, ok := AsHandshakeResponse(msg)

	return ok && resp.ID == expectedID
}

// KindOf classifies msg.
func KindOf(msg any) Kind {
	switch {
	case IsRequest(msg):
		return KindRequest
	case IsResponse(msg):
		return KindResponse
	case IsHandshakeRequest(msg):
		return KindHandshakeRequest
	case IsHandshakeResponse(msg):
		return KindHandshakeResponse
	default:
		return KindForeign
	}
}

// IsProtocol reports whether msg matches one of the envelope variants.
func IsProtocol(msg any) bool {
	return KindOf(msg) != KindForeign
}

// IsForeign reports whether msg matches none of the envelope variants.
func IsForeign(msg any) bool {
	return !IsProtocol(msg)
}

// correlated extracts id and payload from a request or response object.
func correlated(m map[string]any, msgType string) (string, any, bool) {
	if !hasExactly(m, KeyMsgType, KeyUID, KeyPayload) {
		return "", nil, false
	}

	if t, ok := m[KeyMsgType].(string); !ok || t != msgType {
		return "", nil, false
	}

	id, ok := m[KeyUID].(string)
	if !ok || id == "" {
		return "", nil, false
	}

	return id, m[KeyPayload], true
}

// handshake extracts the id from a handshake object.
func handshake(m map[string]any, msgType string) (string, bool) {
	if !hasExactly(m, KeyHandshakeUID, KeyHandshakeType) {
		return "", false
	}

	if t, ok := m[KeyHandshakeType].(string); !ok || t != msgType {
		return "", false
	}

	id, ok := m[KeyHandshakeUID].(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

func hasExactly(m map[string]any, keys ...string) bool {
	if len(m) != len(keys) {
		return false
	}

	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}

	return true
}
