// Package uds implements a UDS (ISO 14229) diagnostic session on top of an
// ISO-TP handler: session lifecycle, request/response correlation, and a
// periodic tester-present keepalive.
package uds

import (
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	canbadger "github.com/noelscher/canbadger-go"
	"github.com/noelscher/canbadger-go/pkg/isotp"
)

// DiagnosticSession is the currently active UDS diagnostic session level.
type DiagnosticSession int

const (
	NoSession DiagnosticSession = iota
	DefaultSession
	ProgrammingSession
	ExtendedSession
	SafetySession
)

// Status is a Session's own connection-establishment state, distinct from
// DiagnosticSession (which level the ECU granted).
type Status int

const (
	StatusSetup Status = iota
	StatusDeclined
	StatusIdle
	StatusFailed
)

const testerPresentInterval = 500 * time.Millisecond

// Session is a UDS diagnostic session: one ISO-TP handler, a tester id, an
// optional ECU id filter, and a background tester-present keepalive that
// runs while the session is Idle.
type Session struct {
	handler  *isotp.Handler
	testerID uint32
	ecuID    *uint32

	level  DiagnosticSession
	status Status

	muted atomic.Bool
	halt  chan struct{}
	wg    sync.WaitGroup
	mu    sync.Mutex
}

// NewSession builds a session bound to an already-connected CAN interface.
// ecuID filters responses to one ECU; nil accepts a response from any ECU.
func NewSession(iface isotp.CANInterface, testerID uint32, ecuID *uint32, usePadding bool, paddingByte byte) (*Session, error) {
	if !iface.Connected() {
		return nil, canbadger.ErrNotConnected
	}
	if ecuID == nil {
		log.Warn("[UDS] no ecu_id supplied - will accept a uds response from any ECU")
	}

	var pad *byte
	if usePadding {
		pad = &paddingByte
	}

	return &Session{
		handler:  isotp.NewHandler(iface, testerID, pad),
		testerID: testerID,
		ecuID:    ecuID,
		status:   StatusSetup,
	}, nil
}

// Status reports the session's current establishment state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Level reports the diagnostic session level the ECU last granted.
func (s *Session) Level() DiagnosticSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Start requests a diagnostic session at the given level: 0x10 <level>. A
// positive response (0x50...) moves the session to Idle and starts the
// tester-present keepalive; a negative response (0x7F...) moves it to
// Declined; no response (timeout or empty) moves it to Failed.
func (s *Session) Start(level DiagnosticSession, timeout time.Duration) error {
	response, err := s.Request([]byte{0x10, byte(level)}, true, timeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil || len(response) == 0 {
		s.status = StatusFailed
		log.Warn("[UDS] failed to establish session")
		return canbadger.ErrNoResponse
	}

	switch response[0] {
	case 0x50:
		s.status = StatusIdle
		s.level = level
		s.mu.Unlock()
		s.StartTesterPresent()
		s.mu.Lock()
		return nil
	case 0x7F:
		s.status = StatusDeclined
		return canbadger.ErrNegativeResponse
	default:
		log.Warnf("[UDS] unexpected response byte to session start: %#x", response[0])
		return nil
	}
}

// Request sends data over ISO-TP, muting the tester-present keepalive for
// the duration of the exchange, and optionally waits for a response
// filtered by the session's ECU id (any ECU, if unset).
func (s *Session) Request(data []byte, waitForResponse bool, timeout time.Duration) ([]byte, error) {
	s.SetMuteTesterPresent(true)
	defer func() {
		if s.Status() == StatusIdle {
			s.SetMuteTesterPresent(false)
		}
	}()

	if err := s.handler.SendData(s.testerID, data); err != nil {
		return nil, err
	}

	if !waitForResponse {
		return nil, nil
	}
	return s.handler.ReceiveMessage(s.ecuID, timeout)
}

// StartTesterPresent (re)starts the background keepalive goroutine,
// joining any previous one first.
func (s *Session) StartTesterPresent() {
	s.mu.Lock()
	if s.halt != nil {
		close(s.halt)
		s.mu.Unlock()
		s.wg.Wait()
		s.mu.Lock()
	}
	s.halt = make(chan struct{})
	s.muted.Store(false)
	halt := s.halt
	s.mu.Unlock()

	s.wg.Add(1)
	go s.testerPresentLoop(halt)
}

func (s *Session) testerPresentLoop(halt chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(testerPresentInterval)
	defer ticker.Stop()
	for {
		select {
		case <-halt:
			return
		case <-ticker.C:
			if s.muted.Load() {
				continue
			}
			if err := s.handler.SendData(s.testerID, []byte{0x3E, 0x80}); err != nil {
				log.Debugf("[UDS] tester-present send failed: %v", err)
			}
		}
	}
}

// StopTesterPresent signals the keepalive goroutine to stop without
// joining it - fire-and-forget, since it observes the signal on its next
// tick.
func (s *Session) StopTesterPresent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halt != nil {
		close(s.halt)
		s.halt = nil
	}
}

// SetMuteTesterPresent toggles whether the keepalive actually transmits.
func (s *Session) SetMuteTesterPresent(mute bool) {
	s.muted.Store(mute)
}

// Close stops the tester-present keepalive. Intended for use with defer,
// mirroring the session's context-manager exit in the original.
func (s *Session) Close() {
	s.StopTesterPresent()
}
