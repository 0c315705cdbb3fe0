package device

import "errors"

// Transport errors, returned from DeviceHandle/worker operations.
var (
	ErrConnectTimeout  = errors.New("device: timed out waiting for device to connect back")
	ErrConnectionReset = errors.New("device: connection was reset by peer")
	ErrWriteFailed     = errors.New("device: write to device failed")
	ErrReadFailed      = errors.New("device: read from device failed")
	ErrNotConnected    = errors.New("device: worker is not connected")
	ErrQueueEmpty      = errors.New("device: queue is empty")
	ErrTimeout         = errors.New("device: operation timed out")
)
