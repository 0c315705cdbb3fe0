package isotp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	canbadger "github.com/noelscher/canbadger-go"
)

func TestMessageFeedSingleFrame(t *testing.T) {
	m := NewMessage(nil, nil)
	complete := m.Feed(canbadger.Frame{ArbID: 0x7E0, Payload: []byte{0x03, 0x01, 0x02, 0x03}})
	assert.True(t, complete)
	assert.Equal(t, Complete, m.RxState)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, m.Payload)
	assert.Equal(t, uint32(0x7E0), m.ArbID)
}

func TestMessageFeedMultiFrame(t *testing.T) {
	m := NewMessage(nil, nil)

	// first frame: declares 10 bytes total, carries first 6
	complete := m.Feed(canbadger.Frame{ArbID: 0x7E0, Payload: []byte{0x10, 0x0A, 1, 2, 3, 4, 5, 6}})
	assert.False(t, complete)
	assert.Equal(t, SendFC, m.RxState)
	assert.Equal(t, 10, m.RxLen)
	assert.Equal(t, 6, m.NumReceived)

	// handler would send FC and move state to ExpectCF
	m.RxState = ExpectCF

	// consecutive frame carries the remaining 4 bytes (plus pad junk beyond it)
	complete = m.Feed(canbadger.Frame{ArbID: 0x7E0, Payload: []byte{0x21, 7, 8, 9, 10, 0xAA, 0xAA, 0xAA}})
	assert.True(t, complete)
	assert.Equal(t, Complete, m.RxState)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, m.Payload)
	assert.Equal(t, 10, m.NumReceived)
}

// CF overflow: the consecutive frame claims a full 7-byte payload, but only
// 4 bytes remain to complete the message. NumReceived must advance by the
// 4 bytes actually appended, not by the 7 raw payload bytes in the frame.
func TestMessageFeedConsecutiveFrameOverflowIsClamped(t *testing.T) {
	m := NewMessage(nil, nil)
	m.Feed(canbadger.Frame{ArbID: 0x7E0, Payload: []byte{0x10, 0x0A, 1, 2, 3, 4, 5, 6}})
	m.RxState = ExpectCF

	complete := m.Feed(canbadger.Frame{ArbID: 0x7E0, Payload: []byte{0x21, 7, 8, 9, 10, 0xAA, 0xAA, 0xAA}})
	require.True(t, complete)
	assert.Equal(t, 10, m.NumReceived)
	assert.Len(t, m.Payload, 10)
	assert.Equal(t, byte(10), m.Payload[9])
}

func TestMessageFeedArbIDMismatch(t *testing.T) {
	arbID := uint32(0x7E0)
	m := NewMessage(&arbID, nil)
	complete := m.Feed(canbadger.Frame{ArbID: 0x7E1, Payload: []byte{0x01, 0xAA}})
	assert.False(t, complete)
	assert.Equal(t, Error, m.RxState)
}

func TestMessageFeedBadSequenceCounter(t *testing.T) {
	m := NewMessage(nil, nil)
	m.Feed(canbadger.Frame{ArbID: 0x7E0, Payload: []byte{0x10, 0x0A, 1, 2, 3, 4, 5, 6}})
	m.RxState = ExpectCF

	complete := m.Feed(canbadger.Frame{ArbID: 0x7E0, Payload: []byte{0x22, 7, 8, 9, 10}}) // wrong ctr, expected 1
	assert.False(t, complete)
	assert.Equal(t, Error, m.RxState)
}

func TestMessageFeedEmptyFramePayloadIsError(t *testing.T) {
	m := NewMessage(nil, nil)
	complete := m.Feed(canbadger.Frame{ArbID: 0x7E0, Payload: nil})
	assert.False(t, complete)
	assert.Equal(t, Error, m.RxState)
}

func TestMessageFeedFlowControlIgnoredUntilComplete(t *testing.T) {
	m := NewMessage(nil, nil)
	complete := m.Feed(canbadger.Frame{ArbID: 0x7E0, Payload: []byte{0x30, 0, 100}})
	assert.False(t, complete)
	assert.Equal(t, ExpectSFOrFF, m.RxState)
}

func TestMessageFormatSingleFrame(t *testing.T) {
	m := NewMessage(nil, nil)
	m.ArbID = 0x7E0
	m.Payload = []byte{1, 2, 3}

	frames, err := m.Format(MaxSingleFrameLen)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{0x03, 1, 2, 3}, frames[0].Payload)
}

func TestMessageFormatSingleFramePadded(t *testing.T) {
	padding := byte(0x55)
	m := NewMessage(nil, &padding)
	m.ArbID = 0x7E0
	m.Payload = []byte{1, 2, 3}

	frames, err := m.Format(MaxSingleFrameLen)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{0x03, 1, 2, 3, 0x55, 0x55, 0x55, 0x55}, frames[0].Payload)
}

func TestMessageFormatMultiFrame(t *testing.T) {
	m := NewMessage(nil, nil)
	m.ArbID = 0x7E0
	m.Payload = []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	frames, err := m.Format(MaxSingleFrameLen)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, []byte{0x10, 0x0A, 1, 2, 3, 4, 5, 6}, frames[0].Payload)
	assert.Equal(t, []byte{0x21, 7, 8, 9, 10}, frames[1].Payload)
}

func TestMessageFormatRejectsOversizedPayload(t *testing.T) {
	m := NewMessage(nil, nil)
	m.ArbID = 0x7E0
	m.Payload = make([]byte, MaxMessageLen+1)

	_, err := m.Format(MaxSingleFrameLen)
	assert.ErrorIs(t, err, canbadger.ErrPayloadTooLarge)
}

func TestMessageFormatFeedRoundTrip(t *testing.T) {
	original := make([]byte, 40)
	for i := range original {
		original[i] = byte(i)
	}

	m := NewMessage(nil, nil)
	m.ArbID = 0x7E0
	m.Payload = original

	frames, err := m.Format(MaxSingleFrameLen)
	require.NoError(t, err)

	rx := NewMessage(nil, nil)
	for i, frame := range frames {
		complete := rx.Feed(frame)
		if i == 0 {
			require.Equal(t, SendFC, rx.RxState)
			rx.RxState = ExpectCF
			continue
		}
		if i == len(frames)-1 {
			assert.True(t, complete)
		}
	}
	assert.Equal(t, original, rx.Payload)
}
