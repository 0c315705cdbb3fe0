package eventlog

import (
	"sync"
	"time"

	canbadger "github.com/noelscher/canbadger-go"
)

// FrameInterface is the subset of a connected CAN transport that
// LoggedInterface wraps. device.Handle and isotp.CANInterface both satisfy
// it structurally.
type FrameInterface interface {
	SendFrame(arbID uint32, payload []byte, extended bool) error
	ReceiveFrame(canIDs []uint32, timeout time.Duration) (arbID uint32, payload []byte, err error)
	Connected() bool
}

// LoggedInterface decorates a FrameInterface, tee-ing every frame it sends
// or receives into whichever of its logs are currently enabled.
type LoggedInterface struct {
	underlying FrameInterface

	mu      sync.Mutex
	logs    []*Log
	enabled map[*Log]bool
}

// NewLoggedInterface wraps underlying with no logs attached.
func NewLoggedInterface(underlying FrameInterface) *LoggedInterface {
	return &LoggedInterface{underlying: underlying, enabled: make(map[*Log]bool)}
}

// StartLog creates a new, immediately-enabled log named name and attaches it.
func (l *LoggedInterface) StartLog(name string) *Log {
	log := NewLog(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, log)
	l.enabled[log] = true
	return log
}

// AddLog attaches an existing log, disabled until EnableLog is called.
func (l *LoggedInterface) AddLog(log *Log) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, log)
	l.enabled[log] = false
}

// EnableLog resumes event delivery to log.
func (l *LoggedInterface) EnableLog(log *Log) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled[log] = true
}

// DisableLog pauses event delivery to log without detaching it.
func (l *LoggedInterface) DisableLog(log *Log) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled[log] = false
}

// DisableAll pauses event delivery to every attached log.
func (l *LoggedInterface) DisableAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, log := range l.logs {
		l.enabled[log] = false
	}
}

// StopLog detaches log and returns it.
func (l *LoggedInterface) StopLog(log *Log) *Log {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.enabled, log)
	for i, candidate := range l.logs {
		if candidate == log {
			l.logs = append(l.logs[:i], l.logs[i+1:]...)
			break
		}
	}
	return log
}

// LogByName returns the first attached log with the given name, or nil.
func (l *LoggedInterface) LogByName(name string) *Log {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, log := range l.logs {
		if log.Name == name {
			return log
		}
	}
	return nil
}

func (l *LoggedInterface) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, log := range l.logs {
		if l.enabled[log] {
			log.Append(ev)
		}
	}
}

// SendFrame logs the outgoing frame to every enabled log, then forwards it.
func (l *LoggedInterface) SendFrame(arbID uint32, payload []byte, extended bool) error {
	l.record(FrameEvent(canbadger.Frame{ArbID: arbID, Payload: payload}, EventTxFrame))
	return l.underlying.SendFrame(arbID, payload, extended)
}

// ReceiveFrame forwards to the underlying interface and logs a non-empty
// result to every enabled log.
func (l *LoggedInterface) ReceiveFrame(canIDs []uint32, timeout time.Duration) (uint32, []byte, error) {
	arbID, payload, err := l.underlying.ReceiveFrame(canIDs, timeout)
	if err == nil && arbID != 0 && len(payload) > 0 {
		l.record(FrameEvent(canbadger.Frame{ArbID: arbID, Payload: payload}, EventRxFrame))
	}
	return arbID, payload, err
}

// Connected forwards to the underlying interface.
func (l *LoggedInterface) Connected() bool {
	return l.underlying.Connected()
}
