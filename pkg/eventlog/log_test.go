package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	canbadger "github.com/noelscher/canbadger-go"
)

func TestLogAppendAndLen(t *testing.T) {
	log := NewLog("session1")
	log.Append(FrameEvent(canbadger.Frame{ArbID: 0x7E0, Payload: []byte{1, 2}}, EventTxFrame))
	log.Append(NamedEvent("security access start"))
	assert.Equal(t, 2, log.Len())
}

func TestLogJSONRoundTrip(t *testing.T) {
	log := NewLog("session1")
	log.Append(FrameEvent(canbadger.Frame{ArbID: 0x7E0, Payload: []byte{0x01, 0xAB, 0xFF}}, EventRxFrame))
	log.Append(NamedEvent("unlocked"))

	data, err := log.ToJSON()
	require.NoError(t, err)

	parsed, err := FromJSON(data)
	require.NoError(t, err)
	require.Equal(t, 2, parsed.Len())

	assert.Equal(t, EventRxFrame, parsed.Events[0].Type)
	assert.Equal(t, uint32(0x7E0), parsed.Events[0].Frame.ArbID)
	assert.Equal(t, []byte{0x01, 0xAB, 0xFF}, parsed.Events[0].Frame.Payload)

	assert.Equal(t, EventNamedEvent, parsed.Events[1].Type)
	assert.Equal(t, "unlocked", parsed.Events[1].Name)
}

func TestLogFromJSONRejectsUnknownType(t *testing.T) {
	_, err := FromJSON([]byte(`[{"type": 9}]`))
	assert.Error(t, err)
}

func TestEventStringFormatting(t *testing.T) {
	ev := FrameEvent(canbadger.Frame{ArbID: 0x7E8, Payload: []byte{0x01}}, EventRxFrame)
	assert.Contains(t, ev.String(), "RX")

	named := NamedEvent("checkpoint")
	assert.Equal(t, "-> checkpoint", named.String())
}
