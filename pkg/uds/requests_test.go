package uds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	canbadger "github.com/noelscher/canbadger-go"
)

func TestCalcByteSize(t *testing.T) {
	assert.Equal(t, byte(1), calcByteSize(0x00))
	assert.Equal(t, byte(1), calcByteSize(0xFF))
	assert.Equal(t, byte(2), calcByteSize(0x100))
	assert.Equal(t, byte(2), calcByteSize(0xFFFF))
	assert.Equal(t, byte(3), calcByteSize(0x10000))
	assert.Equal(t, byte(4), calcByteSize(0xFFFFFFFF))
}

// addLenByte packs the high nibble as the size-byte count and the low
// nibble as the address-byte count. This is the corrected replacement for
// the original's operator-precedence bug that folded the address count
// into the wrong bits.
func TestAddLenByte(t *testing.T) {
	assert.Equal(t, byte(0x14), addLenByte(1, 4))
	assert.Equal(t, byte(0x42), addLenByte(4, 2))
	assert.Equal(t, byte(0x00), addLenByte(0, 0))
}

func TestRequestDataByIDPositive(t *testing.T) {
	s, iface := newTestSession(t)
	defer s.Close()
	iface.responses = [][]byte{{0x03, 0x62, 0xF1, 0x90}}

	data, err := s.RequestDataByID(0xF190)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF1, 0x90}, data)
	assert.Equal(t, []byte{0x03, 0x22, 0xF1, 0x90}, iface.sent[0])
}

func TestRequestDataByIDNegative(t *testing.T) {
	s, iface := newTestSession(t)
	defer s.Close()
	iface.responses = [][]byte{{0x03, 0x7F, 0x22, 0x31}}

	_, err := s.RequestDataByID(0xF190)
	assert.ErrorIs(t, err, canbadger.ErrNegativeResponse)
}

func TestRequestVINWrapsDataByID(t *testing.T) {
	s, iface := newTestSession(t)
	defer s.Close()
	iface.responses = [][]byte{{0x04, 0x62, 0xF1, 0x90, 0x41}}

	vin, err := s.RequestVIN()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF1, 0x90, 0x41}, vin)
}

func TestRequestUploadEncodesAddressAndSize(t *testing.T) {
	s, iface := newTestSession(t)
	defer s.Close()
	iface.responses = [][]byte{{0x02, 0x75, 0x00}}

	_, err := s.RequestUpload(0x1000, 0x100)
	require.NoError(t, err)

	sent := iface.sent[0]
	// skip the length prefix byte the ISO-TP codec adds
	request := sent[1:]
	assert.Equal(t, byte(0x35), request[0])
	assert.Equal(t, byte(0x00), request[1])
	assert.Equal(t, addLenByte(2, 2), request[2])
	assert.Equal(t, []byte{0x10, 0x00}, request[3:5])
	assert.Equal(t, []byte{0x01, 0x00}, request[5:7])
}

func TestRequestDownloadNegativeResponse(t *testing.T) {
	s, iface := newTestSession(t)
	defer s.Close()
	iface.responses = [][]byte{{0x03, 0x7F, 0x34, 0x22}}

	_, err := s.RequestDownload(0x1000, 0x100)
	assert.ErrorIs(t, err, canbadger.ErrNegativeResponse)
}

func TestTransferDataRejectsOversizedPayload(t *testing.T) {
	s, iface := newTestSession(t)
	defer s.Close()

	err := s.TransferData(1, 4097)
	assert.ErrorIs(t, err, canbadger.ErrTransferTooLarge)
	assert.Empty(t, iface.sent, "an oversized transfer must never reach the wire")
}

func TestTransferDataPositiveResponse(t *testing.T) {
	s, iface := newTestSession(t)
	defer s.Close()
	iface.responses = [][]byte{{0x02, 0x76, 0x01}}

	err := s.TransferData(1, 2)
	require.NoError(t, err)

	sent := iface.sent[0]
	request := sent[1:] // skip the ISO-TP length-prefix byte
	assert.Equal(t, []byte{0x36, 0x01}, request, "transfer_data must send only service id + block number, never the payload")
}

func TestSecurityAccessFullExchange(t *testing.T) {
	s, iface := newTestSession(t)
	defer s.Close()
	iface.responses = [][]byte{
		{0x06, 0x67, 0x01, 0x11, 0x22, 0x33, 0x44},
		{0x02, 0x67, 0x02},
	}

	var seedSeen []byte
	err := s.SecurityAccess(1, func(seed []byte) []byte {
		seedSeen = seed
		return []byte{0xDE, 0xAD}
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, seedSeen)
}

func TestSecurityAccessDeniedSeed(t *testing.T) {
	s, iface := newTestSession(t)
	defer s.Close()
	iface.responses = [][]byte{{0x03, 0x7F, 0x27, 0x33}}

	err := s.SecurityAccess(1, func(seed []byte) []byte { return nil })
	assert.ErrorIs(t, err, canbadger.ErrNegativeResponse)
}
