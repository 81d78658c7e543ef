package commerce

import (
	"bytes"
	"encoding/json"
)

// Shape tags which success-envelope variant the backend produced. The
// backend answers with a bare array, `{success, data}` around an array or a
// single object, or occasionally something else entirely; normalization
// happens here once instead of in every client method.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeBareArray
	ShapeBareObject
	ShapeEnvelopeArray
	ShapeEnvelopeObject
	ShapeUnknown
)

// Payload is a normalized upstream success body.
type Payload struct {
	Shape   Shape
	Success bool
	Message string
	list    []json.RawMessage
	object  json.RawMessage
}

// Items returns the payload as a list; a single-object payload comes back
// wrapped in a one-element slice.
func (p Payload) Items() []json.RawMessage {
	if p.list != nil {
		return p.list
	}
	if len(p.object) > 0 {
		return []json.RawMessage{p.object}
	}
	return []json.RawMessage{}
}

// Object returns the single-object payload, or nil when the body carried a
// list or nothing.
func (p Payload) Object() json.RawMessage {
	return p.object
}

// Normalize classifies and unwraps an upstream response body. An empty body
// is a valid success: some mutation endpoints answer 200 with nothing.
func Normalize(body []byte) Payload {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Payload{Shape: ShapeEmpty, Success: true}
	}

	if trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return Payload{Shape: ShapeUnknown}
		}
		return Payload{Shape: ShapeBareArray, Success: true, list: list}
	}

	var envelope struct {
		Success *bool           `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return Payload{Shape: ShapeUnknown}
	}

	success := envelope.Success == nil || *envelope.Success

	if data := bytes.TrimSpace(envelope.Data); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if data[0] == '[' {
			var list []json.RawMessage
			if err := json.Unmarshal(data, &list); err != nil {
				return Payload{Shape: ShapeUnknown, Message: envelope.Message}
			}
			return Payload{Shape: ShapeEnvelopeArray, Success: success, Message: envelope.Message, list: list}
		}
		// data.data one level down, then data itself, then nothing.
		if data[0] == '{' {
			var nested struct {
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal(data, &nested); err == nil {
				if inner := bytes.TrimSpace(nested.Data); len(inner) > 0 && inner[0] == '[' {
					var list []json.RawMessage
					if err := json.Unmarshal(inner, &list); err == nil {
						return Payload{Shape: ShapeEnvelopeArray, Success: success, Message: envelope.Message, list: list}
					}
				}
			}
		}
		return Payload{Shape: ShapeEnvelopeObject, Success: success, Message: envelope.Message, object: data}
	}

	if envelope.Success != nil {
		// A plain `{success, message?}` acknowledgement.
		return Payload{Shape: ShapeEmpty, Success: success, Message: envelope.Message}
	}

	// No success flag, no data key: the object itself is the payload.
	return Payload{Shape: ShapeBareObject, Success: true, object: json.RawMessage(trimmed)}
}

// ErrorMessage digs a human-readable message out of an upstream error body.
func ErrorMessage(body []byte) string {
	var probe struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &probe); err != nil {
		return ""
	}
	if probe.Message != "" {
		return probe.Message
	}
	return probe.Error
}
