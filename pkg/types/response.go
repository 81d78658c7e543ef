package types

// Envelope is the wire format shared with the commerce backend and relayed
// to storefront clients: a success flag, an optional human message, and an
// optional payload.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func Success(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func Failure(message string) Envelope {
	return Envelope{Success: false, Message: message}
}
