// Package envelope defines the wire shape of session protocol messages.
//
// Four envelope variants share a channel with arbitrary foreign traffic:
//
//	{"ipc_handshake_uid": "01J...", "ipc_handshake_type": "handshake_request"}
//	{"ipc_handshake_uid": "01J...", "ipc_handshake_type": "handshake_response"}
//	{"ipc_msg_type": "ipc_request",  "ipc_uid": "01J...", "ipc_payload": ...}
//	{"ipc_msg_type": "ipc_response", "ipc_uid": "01J...", "ipc_payload": ...}
//
// Classification is structural. A value is an envelope only if it carries
// exactly the key set of one variant, with the matching discriminant and a
// non-empty string id. Everything else is foreign. The predicates accept both
// decoded JSON objects (map[string]any) and this package's own typed values,
// and never panic.
package envelope
