package device

import "time"

// FrameInterface is the contract a CAN-frame transport implements. It is
// satisfied by *Handle, and wrapped by pkg/eventlog's logged interface to
// tee observed traffic into event logs without the ISO-TP/UDS layers above
// it knowing the difference.
type FrameInterface interface {
	SendFrame(arbID uint32, payload []byte, extended bool) error
	ReceiveFrame(canIDs []uint32, timeout time.Duration) (arbID uint32, payload []byte, err error)
	Connected() bool
}
