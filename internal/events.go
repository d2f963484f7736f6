package internal

import (
	"encoding/json"
	"errors"
)

// Push channel event types
const (
	EventSessionEstablished = "session_established"
	EventHumanReply         = "human_reply"
)

// Event is a decoded push channel frame. The concrete types are
// SessionEstablished, HumanReply and UnknownEvent.
type Event interface {
	EventType() string
}

// SessionEstablished carries the server-issued session token
type SessionEstablished struct {
	SessionID string `json:"sessionId"`
}

func (SessionEstablished) EventType() string { return EventSessionEstablished }

// HumanReply is an out-of-band reply from a human operator
type HumanReply struct {
	Message   string `json:"message"`
	ThreadTS  string `json:"thread_ts"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (HumanReply) EventType() string { return EventHumanReply }

// UnknownEvent is any frame whose type we don't handle. It is dropped.
type UnknownEvent struct {
	Type string
}

func (e UnknownEvent) EventType() string { return e.Type }

type envelope struct {
	Type string `json:"type"`
}

// DecodeEvent decodes one push channel frame. Unrecognised types decode to
// UnknownEvent without error; only malformed frames fail.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ParseError{Source: "push", Key: "envelope", Err: err}
	}

	switch env.Type {
	case EventSessionEstablished:
		var ev SessionEstablished
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, &ParseError{Source: "push", Key: env.Type, Err: err}
		}
		if ev.SessionID == "" {
			return nil, &ParseError{Source: "push", Key: env.Type, Err: errors.New("missing sessionId")}
		}
		return ev, nil
	case EventHumanReply:
		var ev HumanReply
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, &ParseError{Source: "push", Key: env.Type, Err: err}
		}
		return ev, nil
	default:
		return UnknownEvent{Type: env.Type}, nil
	}
}
