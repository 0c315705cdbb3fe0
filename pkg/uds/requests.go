package uds

import (
	"time"

	canbadger "github.com/noelscher/canbadger-go"
)

const defaultRequestTimeout = 200 * time.Millisecond

// calcByteSize returns the number of bytes needed to hold value, 1 through
// 8 bytes.
func calcByteSize(value uint64) byte {
	for size := byte(1); size <= 8; size++ {
		if value <= (uint64(1)<<(8*size))-1 {
			return size
		}
	}
	return 8
}

// addLenByte packs a memory-size byte count and a memory-address byte count
// into the single format-descriptor byte RequestUpload/RequestDownload send
// ahead of the address and size fields (ISO 14229 addressAndLengthFormatIdentifier).
//
// The high nibble holds sizeBytes, the low nibble holds addrBytes.
func addLenByte(sizeBytes, addrBytes byte) byte {
	return ((sizeBytes & 0x0F) << 4) | (addrBytes & 0x0F)
}

// RequestDataByID sends a ReadDataByIdentifier (0x22) request and returns
// the response payload with its 0x62 service-id byte stripped. It returns
// ErrNegativeResponse if the ECU declines.
func (s *Session) RequestDataByID(dataID uint16) ([]byte, error) {
	request := []byte{0x22, byte(dataID >> 8), byte(dataID)}
	response, err := s.Request(request, true, defaultRequestTimeout)
	if err != nil {
		return nil, err
	}
	if len(response) == 0 || response[0] != 0x62 {
		return nil, canbadger.ErrNegativeResponse
	}
	return response[1:], nil
}

// RequestVIN reads the vehicle identification number, data identifier 0xF190.
func (s *Session) RequestVIN() ([]byte, error) {
	return s.RequestDataByID(0xF190)
}

// RequestUpload sends a RequestUpload (0x35) request for length bytes
// starting at address, using the shortest address/size encoding that fits.
func (s *Session) RequestUpload(address, length uint64) ([]byte, error) {
	return s.requestTransfer(0x35, address, length)
}

// RequestDownload sends a RequestDownload (0x34) request for length bytes
// starting at address, using the shortest address/size encoding that fits.
func (s *Session) RequestDownload(address, length uint64) ([]byte, error) {
	return s.requestTransfer(0x34, address, length)
}

func (s *Session) requestTransfer(serviceID byte, address, length uint64) ([]byte, error) {
	addrBytes := calcByteSize(address)
	sizeBytes := calcByteSize(length)

	request := make([]byte, 0, 4+addrBytes+sizeBytes)
	request = append(request, serviceID, 0x00, addLenByte(sizeBytes, addrBytes))
	for i := int(addrBytes) - 1; i >= 0; i-- {
		request = append(request, byte(address>>(8*uint(i))))
	}
	for i := int(sizeBytes) - 1; i >= 0; i-- {
		request = append(request, byte(length>>(8*uint(i))))
	}

	response, err := s.Request(request, true, defaultRequestTimeout)
	if err != nil {
		return nil, err
	}
	if len(response) == 0 || response[0] != serviceID+0x40 {
		return nil, canbadger.ErrNegativeResponse
	}
	return response[1:], nil
}

// TransferData sends a TransferData (0x36) request for one block, returning
// whether the ECU accepted it (0x76 positive response). length only bounds
// the transfer - it is never serialized onto the wire, the request carries
// just the service id and block number.
func (s *Session) TransferData(blockNumber byte, length int) error {
	if length > 4096 {
		return canbadger.ErrTransferTooLarge
	}

	request := []byte{0x36, blockNumber}

	response, err := s.Request(request, true, defaultRequestTimeout)
	if err != nil {
		return err
	}
	if len(response) == 0 || response[0] != 0x76 {
		return canbadger.ErrNegativeResponse
	}
	return nil
}

// SecurityAccess runs a seed/key exchange at the given access level: request
// the seed (0x27 level), pass it to onSeed to compute the key, then send the
// key back (0x27 level+1). Returns nil if the ECU accepts the key.
func (s *Session) SecurityAccess(level byte, onSeed func(seed []byte) []byte) error {
	seedResponse, err := s.Request([]byte{0x27, level}, true, defaultRequestTimeout)
	if err != nil {
		return err
	}
	if len(seedResponse) < 2 || seedResponse[0] != 0x67 {
		return canbadger.ErrNegativeResponse
	}

	key := onSeed(seedResponse[2:])
	request := append([]byte{0x27, level + 1}, key...)

	keyResponse, err := s.Request(request, true, defaultRequestTimeout)
	if err != nil {
		return err
	}
	if len(keyResponse) == 0 || keyResponse[0] != 0x67 {
		return canbadger.ErrNegativeResponse
	}
	return nil
}
