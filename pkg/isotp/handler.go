package isotp

import (
	"time"

	log "github.com/sirupsen/logrus"

	canbadger "github.com/noelscher/canbadger-go"
)

// CANInterface is the frame transport a Handler drives. pkg/device.Handle
// (and pkg/eventlog's logged interface wrapping it) satisfy this
// structurally.
type CANInterface interface {
	SendFrame(arbID uint32, payload []byte, extended bool) error
	ReceiveFrame(canIDs []uint32, timeout time.Duration) (arbID uint32, payload []byte, err error)
	Connected() bool
}

// Handler couples a Message's codec/state machine to a CANInterface: it
// formats and transmits messages, and drives reassembly of received frames,
// emitting flow control on the receiver's behalf.
type Handler struct {
	iface       CANInterface
	senderID    uint32
	paddingByte *byte
}

// NewHandler builds a Handler transmitting flow-control frames from
// senderID.
func NewHandler(iface CANInterface, senderID uint32, paddingByte *byte) *Handler {
	return &Handler{iface: iface, senderID: senderID, paddingByte: paddingByte}
}

// SendMessage formats msg and transmits every resulting frame in order,
// with no inter-frame pacing.
func (h *Handler) SendMessage(msg *Message) error {
	frames, err := msg.Format(MaxSingleFrameLen)
	if err != nil {
		return err
	}
	for _, frame := range frames {
		if err := h.iface.SendFrame(frame.ArbID, frame.Payload, frame.IsExtendedID()); err != nil {
			return err
		}
	}
	return nil
}

// SendData is sugar around SendMessage: it builds a one-off Message from
// arbID and payload using the handler's padding byte, without registering
// it anywhere.
func (h *Handler) SendData(arbID uint32, payload []byte) error {
	msg := NewMessage(&arbID, h.paddingByte)
	msg.Payload = payload
	return h.SendMessage(msg)
}

// SendFlowControl transmits a flow-control frame from the handler's sender
// id: command (0=continue, 1=wait, 2=abort), blockSize, and separation
// delay. The frame is padded to 8 bytes when the handler has a padding byte.
func (h *Handler) SendFlowControl(command, blockSize, delay byte) error {
	payload := []byte{frameTypeFC | command, blockSize, delay}
	if h.paddingByte != nil {
		for len(payload) < 8 {
			payload = append(payload, *h.paddingByte)
		}
	}
	return h.iface.SendFrame(h.senderID, payload, h.senderID > canbadger.ExtendedIDThreshold)
}

// ReceiveMessage blocks (up to timeout) receiving frames and feeding them
// to a Message filtered by arbID (any arb id, if arbID is nil), emitting
// one flow-control CONTINUE after the first frame of a multi-frame
// message. It returns ErrNotConnected if the interface isn't connected.
// Otherwise it returns the reassembled payload on Complete, and empty bytes
// with a nil error if the wait times out or the state machine reaches
// Error - matching the original's log-and-continue posture: protocol
// failures are not escalated to a Go error here.
func (h *Handler) ReceiveMessage(arbID *uint32, timeout time.Duration) ([]byte, error) {
	if !h.iface.Connected() {
		return nil, canbadger.ErrNotConnected
	}

	msg := NewMessage(arbID, nil)
	var filterIDs []uint32
	if arbID != nil {
		filterIDs = []uint32{*arbID}
	}

	deadline := time.Now().Add(timeout)
	for msg.RxState != Complete {
		remaining := timeout
		if timeout > 0 {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				msg.RxState = Error
				log.Debugf("[ISOTP][HANDLER] receive timed out")
				break
			}
		}

		frameArbID, payload, err := h.iface.ReceiveFrame(filterIDs, remaining)
		if err != nil || len(payload) == 0 {
			msg.RxState = Error
			log.Debugf("[ISOTP][HANDLER] empty frame, treating as timeout")
			break
		}

		if arbID != nil && frameArbID != *arbID {
			log.Debugf("[ISOTP][HANDLER] dropping frame from arb_id %#x, expecting %#x", frameArbID, *arbID)
			continue
		}

		if len(payload) >= 3 && payload[1] == 0x7F && payload[2] == 0x3E {
			log.Debugf("[ISOTP][HANDLER] dropping tester-present echo")
			continue
		}

		msg.Feed(canbadger.Frame{ArbID: frameArbID, Payload: payload})

		if msg.RxState == SendFC {
			if err := h.SendFlowControl(0, 0, 100); err != nil {
				msg.RxState = Error
				break
			}
			msg.RxState = ExpectCF
		}
		if msg.RxState == Error {
			break
		}
	}

	if msg.RxState == Complete {
		return msg.Payload, nil
	}
	return []byte{}, nil
}
