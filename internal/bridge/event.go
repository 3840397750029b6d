// Package bridge connects sensor sources and the orientation classifier to
// subscribers, and serves application requests for orientation locks.
package bridge

import (
	"encoding/json"
	"time"

	"orientd/internal/orientation"
)

type EventKind int

const (
	EventChange EventKind = iota
	EventError
)

func (k EventKind) String() string {
	if k == EventError {
		return "error"
	}
	return "orientation"
}

const (
	ErrorCodeSensor    = "SensorError"
	ErrorMessageSensor = "Cannot detect sensors. Not enabled"

	// ErrorCodeStream reports a source that broke after it started.
	ErrorCodeStream = "StreamError"
)

// Event is delivered to a subscription sink. Change events carry the new
// orientation; error events carry a code and message and end the
// subscription.
type Event struct {
	Kind        EventKind
	Orientation orientation.Orientation
	Code        string
	Message     string
	At          time.Time
}

type eventJSON struct {
	Event       string `json:"event"`
	Orientation string `json:"orientation,omitempty"`
	Code        string `json:"code,omitempty"`
	Message     string `json:"message,omitempty"`
	At          string `json:"at"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	j := eventJSON{Event: e.Kind.String(), Code: e.Code, Message: e.Message, At: e.At.UTC().Format(time.RFC3339Nano)}
	if e.Kind == EventChange {
		j.Orientation = e.Orientation.String()
	}
	return json.Marshal(j)
}

// Sink receives events on the subscription's goroutine, one at a time.
type Sink func(Event)
