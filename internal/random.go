package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

type DeviceID [16]byte

func NewDeviceID() (DeviceID, error) {
	var id DeviceID
	_, err := rand.Read(id[:])
	return id, err
}

func (d DeviceID) Bytes() []byte {
	return d[:]
}

func (d DeviceID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(d[:])
}

func ParseDeviceID(deviceID string) (DeviceID, error) {
	var id DeviceID

	raw, err := base64.RawURLEncoding.DecodeString(deviceID)
	if err != nil {
		return id, err
	}
	if len(raw) != len(id) {
		return id, errors.New("invalid device id size")
	}

	copy(id[:], raw)
	return id, nil
}
