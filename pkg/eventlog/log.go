// Package eventlog records frame traffic and named checkpoints into a
// JSON-serializable log, and decorates a frame interface so traffic is
// logged transparently as it passes through.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"

	canbadger "github.com/noelscher/canbadger-go"
)

// EventType distinguishes the three kinds of entries a Log holds.
type EventType int

const (
	EventRxFrame EventType = iota
	EventTxFrame
	EventNamedEvent
)

func (t EventType) String() string {
	switch t {
	case EventRxFrame:
		return "RX"
	case EventTxFrame:
		return "TX"
	case EventNamedEvent:
		return "NAMED"
	default:
		return "UNKNOWN"
	}
}

// Event is one entry in a Log: either a frame observation or a named
// checkpoint.
type Event struct {
	Type    EventType
	Frame   canbadger.Frame
	Name    string
	isFrame bool
}

// FrameEvent builds a frame-observation event; typ must be EventRxFrame or
// EventTxFrame.
func FrameEvent(frame canbadger.Frame, typ EventType) Event {
	if typ != EventRxFrame && typ != EventTxFrame {
		typ = EventRxFrame
	}
	return Event{Type: typ, Frame: frame, isFrame: true}
}

// NamedEvent builds a named checkpoint event.
func NamedEvent(name string) Event {
	return Event{Type: EventNamedEvent, Name: name}
}

func (e Event) String() string {
	if e.isFrame {
		return fmt.Sprintf("[%s] %#x %x", e.Type, e.Frame.ArbID, e.Frame.Payload)
	}
	return "-> " + e.Name
}

// wireEvent is the on-the-wire JSON shape, matching the log format: frame
// events carry arb_id/payload as hex strings, named events carry name.
type wireEvent struct {
	Type    EventType `json:"type"`
	ArbID   string    `json:"arb_id,omitempty"`
	Payload string    `json:"payload,omitempty"`
	Name    string    `json:"name,omitempty"`
}

func (e Event) toWire() wireEvent {
	if e.isFrame {
		payload := ""
		for i, b := range e.Frame.Payload {
			if i > 0 {
				payload += " "
			}
			payload += fmt.Sprintf("%#x", b)
		}
		return wireEvent{Type: e.Type, ArbID: fmt.Sprintf("%#x", e.Frame.ArbID), Payload: payload}
	}
	return wireEvent{Type: e.Type, Name: e.Name}
}

func fromWire(w wireEvent) (Event, error) {
	switch w.Type {
	case EventRxFrame, EventTxFrame:
		var arbID uint32
		if _, err := fmt.Sscanf(w.ArbID, "0x%x", &arbID); err != nil {
			return Event{}, fmt.Errorf("eventlog: bad arb_id %q: %w", w.ArbID, err)
		}
		var payload []byte
		if w.Payload != "" {
			for _, field := range splitFields(w.Payload) {
				var b uint32
				if _, err := fmt.Sscanf(field, "0x%x", &b); err != nil {
					return Event{}, fmt.Errorf("eventlog: bad payload byte %q: %w", field, err)
				}
				payload = append(payload, byte(b))
			}
		}
		return FrameEvent(canbadger.Frame{ArbID: arbID, Payload: payload}, w.Type), nil
	case EventNamedEvent:
		return NamedEvent(w.Name), nil
	default:
		return Event{}, fmt.Errorf("eventlog: unknown event type %d", w.Type)
	}
}

func splitFields(s string) []string {
	var fields []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				fields = append(fields, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, s[start:])
	}
	return fields
}

// Log is an ordered, named sequence of Events.
type Log struct {
	Name   string
	Events []Event
}

// NewLog creates an empty, named log.
func NewLog(name string) *Log {
	return &Log{Name: name}
}

// Append adds ev to the end of the log.
func (l *Log) Append(ev Event) {
	l.Events = append(l.Events, ev)
}

// Len returns the number of events recorded.
func (l *Log) Len() int {
	return len(l.Events)
}

// PrettyPrint writes each event, one per line, to stdout.
func (l *Log) PrettyPrint() {
	for _, ev := range l.Events {
		fmt.Println(ev.String())
	}
}

// ToJSON serializes the log's events as a JSON array.
func (l *Log) ToJSON() ([]byte, error) {
	wire := make([]wireEvent, len(l.Events))
	for i, ev := range l.Events {
		wire[i] = ev.toWire()
	}
	return json.Marshal(wire)
}

// SaveToFile writes the log's JSON serialization to filename.
func (l *Log) SaveToFile(filename string) error {
	data, err := l.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// FromJSON parses a log previously produced by ToJSON/SaveToFile.
func FromJSON(data []byte) (*Log, error) {
	var wire []wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	log := &Log{}
	for _, w := range wire {
		ev, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		log.Append(ev)
	}
	return log, nil
}

// LoadFromFile reads and parses a log file written by SaveToFile.
func LoadFromFile(filename string) (*Log, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}
