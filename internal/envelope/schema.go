package envelope

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// Schemas returns JSON Schema documents for the four envelope variants.
//
// The schemas describe the same structural rules the predicates apply, so
// peers implemented outside Go can validate traffic before sending it.
func Schemas() map[Kind]*jsonschema.Schema {
	return map[Kind]*jsonschema.Schema{
		KindHandshakeRequest:  handshakeSchema(TypeHandshakeRequest),
		KindHandshakeResponse: handshakeSchema(TypeHandshakeResponse),
		KindRequest:           correlatedSchema(TypeRequest),
		KindResponse:          correlatedSchema(TypeResponse),
	}
}

func handshakeSchema(msgType string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Title: msgType,
		Type:  "object",
		Properties: map[string]*jsonschema.Schema{
			KeyHandshakeUID:  idSchema(),
			KeyHandshakeType: constSchema(msgType),
		},
		Required:             []string{KeyHandshakeUID, KeyHandshakeType},
		AdditionalProperties: falseSchema(),
	}
}

func correlatedSchema(msgType string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Title: msgType,
		Type:  "object",
		Properties: map[string]*jsonschema.Schema{
			KeyMsgType: constSchema(msgType),
			KeyUID:     idSchema(),
			// Any JSON value, including null.
			KeyPayload: {},
		},
		Required:             []string{KeyMsgType, KeyUID, KeyPayload},
		AdditionalProperties: falseSchema(),
	}
}

func idSchema() *jsonschema.Schema {
	minLength := 1

	return &jsonschema.Schema{Type: "string", MinLength: &minLength}
}

func constSchema(v string) *jsonschema.Schema {
	c := any(v)

	return &jsonschema.Schema{Type: "string", Const: &c}
}

func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}
