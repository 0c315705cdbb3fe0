package device

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	canbadger "github.com/noelscher/canbadger-go"
)

// Handle is the public facade over a Worker: connect/reset/configure, send
// and receive either raw WireMessages or CAN frames, and the device's
// action-specific convenience wrappers. It implements FrameInterface so an
// ISO-TP handler (or a logged interface wrapping it) can drive it without
// knowing about queues or workers.
type Handle struct {
	ip          string
	controlPort int

	mu        sync.Mutex
	worker    *Worker
	connected atomic.Bool
}

// New builds a handle targeting a device at ip, rendezvousing on
// controlPort (device.ControlPort if zero).
func New(ip string, controlPort int) *Handle {
	if controlPort == 0 {
		controlPort = ControlPort
	}
	return &Handle{ip: ip, controlPort: controlPort, worker: NewWorker(ip, controlPort)}
}

// Connect starts the worker and polls its status queue in up to ten equal
// sub-intervals of timeout until it reports Connected.
func (h *Handle) Connect(timeout time.Duration) bool {
	h.mu.Lock()
	w := h.worker
	h.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- w.Start(timeout) }()

	select {
	case err := <-done:
		if err != nil {
			log.Warnf("[HANDLE] connect failed: %v", err)
			return false
		}
	case <-time.After(timeout + time.Second):
		return false
	}

	step := timeout / 10
	if step <= 0 {
		step = 100 * time.Millisecond
	}
	for i := 0; i < 10; i++ {
		if status, ok := w.Status.Get(step); ok {
			if status == StatusConnected {
				h.connected.Store(true)
				return true
			}
		}
	}
	return h.connected.Load()
}

// Connected reports whether the handle currently believes it has a live
// connection to the device.
func (h *Handle) Connected() bool {
	return h.connected.Load()
}

// Configure serializes settings and sends them as ACTION/SETTINGS, then
// sleeps 300ms: the device needs roughly 250ms after receiving settings
// before it is ready to log, observed empirically rather than documented.
func (h *Handle) Configure(settings canbadger.DeviceSettings) error {
	payload, err := settings.Serialize()
	if err != nil {
		return err
	}
	msg := canbadger.NewWireMessage(canbadger.MsgAction, canbadger.ActionSettings, payload)
	err = h.Send(msg, false)
	time.Sleep(300 * time.Millisecond)
	return err
}

// Send enqueues msg on the command queue. If waitForAck, it blocks up to 1s
// on the ack queue and returns an error on NACK, timeout, or an empty
// response.
func (h *Handle) Send(msg canbadger.WireMessage, waitForAck bool) error {
	h.mu.Lock()
	w := h.worker
	h.mu.Unlock()

	w.Command.Put(msg)
	if !waitForAck {
		return nil
	}
	ack, ok := w.Ack.Get(time.Second)
	if !ok {
		return ErrTimeout
	}
	if ack.MsgType == canbadger.MsgNack {
		return ErrWriteFailed
	}
	return nil
}

// Receive polls the data queue, blocking up to timeout if it is empty and a
// positive timeout is given.
func (h *Handle) Receive(timeout time.Duration) (canbadger.WireMessage, error) {
	h.mu.Lock()
	w := h.worker
	h.mu.Unlock()

	if msg, ok := w.Data.TryGet(); ok {
		return msg, nil
	}
	if timeout <= 0 {
		return canbadger.WireMessage{}, ErrQueueEmpty
	}
	if msg, ok := w.Data.Get(timeout); ok {
		return msg, nil
	}
	return canbadger.WireMessage{}, ErrTimeout
}

// SendFrame builds an ACTION/START_REPLAY wire message and sends it with
// ack requested. Payload is [interface:u8][arb_id:u32 BE, with the extended
// flag ORed in][frame_payload...].
func (h *Handle) SendFrame(arbID uint32, payload []byte, extended bool) error {
	return h.sendFrame(1, arbID, payload, extended)
}

func (h *Handle) sendFrame(iface uint8, arbID uint32, payload []byte, extended bool) error {
	if extended {
		arbID |= canbadger.ExtendedIDFlag
	}
	replay := make([]byte, 0, 5+len(payload))
	replay = append(replay, iface)
	var arbBytes [4]byte
	binary.BigEndian.PutUint32(arbBytes[:], arbID)
	replay = append(replay, arbBytes[:]...)
	replay = append(replay, payload...)

	msg := canbadger.NewWireMessage(canbadger.MsgAction, canbadger.ActionStartReplay, replay)
	return h.Send(msg, true)
}

// ReceiveFrame drains DATA messages until one whose embedded arbitration id
// is in canIDs (or any, if canIDs is empty), per the logged-CAN-frame
// payload layout: arb id at offset 5..9 big-endian, frame payload from
// offset 14.
func (h *Handle) ReceiveFrame(canIDs []uint32, timeout time.Duration) (uint32, []byte, error) {
	wanted := make(map[uint32]struct{}, len(canIDs))
	for _, id := range canIDs {
		wanted[id] = struct{}{}
	}

	deadline := time.Now().Add(timeout)
	first := true
	for {
		remaining := time.Until(deadline)
		if !first && timeout > 0 && remaining <= 0 {
			return 0, nil, ErrTimeout
		}
		first = false

		msg, err := h.Receive(remaining)
		if err != nil {
			return 0, nil, ErrTimeout
		}
		if msg.MsgType != canbadger.MsgData {
			continue
		}
		if len(msg.Data) < 14 {
			continue
		}
		arbID := binary.BigEndian.Uint32(msg.Data[5:9])
		if len(wanted) > 0 {
			if _, ok := wanted[arbID]; !ok {
				continue
			}
		}
		return arbID, msg.Data[14:], nil
	}
}

// SetGPIO sends ACTION/RELAY with [num:u8][state:u8].
func (h *Handle) SetGPIO(num uint8, state bool) error {
	var s byte
	if state {
		s = 1
	}
	msg := canbadger.NewWireMessage(canbadger.MsgAction, canbadger.ActionRelay, []byte{num, s})
	return h.Send(msg, false)
}

// SendAck sends a bare ACK message.
func (h *Handle) SendAck() error {
	return h.Send(canbadger.NewWireMessage(canbadger.MsgAck, canbadger.ActionNoType, nil), false)
}

// SendNack sends a bare NACK message.
func (h *Handle) SendNack() error {
	return h.Send(canbadger.NewWireMessage(canbadger.MsgNack, canbadger.ActionNoType, nil), false)
}

// SendStop sends ACTION/STOP_CURRENT_ACTION.
func (h *Handle) SendStop() error {
	return h.Send(canbadger.NewWireMessage(canbadger.MsgAction, canbadger.ActionStopCurrentAction, nil), false)
}

// ShutdownConnection sends ACTION/RESET, which the worker treats as a
// signal to tear itself down after writing it.
func (h *Handle) ShutdownConnection() error {
	return h.Send(canbadger.NewWireMessage(canbadger.MsgAction, canbadger.ActionReset, nil), false)
}

// RequestSettings sends a bare ACTION/SETTINGS with no payload, asking the
// device to report its current configuration on the data queue.
func (h *Handle) RequestSettings() error {
	return h.Send(canbadger.NewWireMessage(canbadger.MsgAction, canbadger.ActionSettings, nil), false)
}

// Start sends ACTION/LOG_RAW_CAN_TRAFFIC and waits for ack.
func (h *Handle) Start() error {
	return h.Send(canbadger.NewWireMessage(canbadger.MsgAction, canbadger.ActionLogRawCANTraffic, nil), true)
}

// Stop sends ACTION/STOP_CURRENT_ACTION.
func (h *Handle) Stop() error {
	return h.SendStop()
}

// Reset tears the worker down (gracefully if connected, forcibly
// otherwise), rebuilds it, and clears connection state, draining every
// queue in the process.
func (h *Handle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connected.Load() {
		h.worker.Command.Put(canbadger.NewWireMessage(canbadger.MsgAction, canbadger.ActionReset, nil))
		// The writer aborts the worker itself once RESET is written; wait
		// for that before forcing a stop.
		exited := make(chan struct{})
		go func() {
			h.worker.wg.Wait()
			close(exited)
		}()
		select {
		case <-exited:
		case <-time.After(2 * time.Second):
		}
	}
	h.worker.Stop()

	h.worker.Command.Drain()
	h.worker.Data.Drain()
	h.worker.Ack.Drain()
	h.worker.Status.Drain()

	h.worker = NewWorker(h.ip, h.controlPort)
	h.connected.Store(false)
}
