package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	sessionFormatVersionCurrent = 1
)

const maxTokenLen = 65535

// Encode serializes a session record into the versioned binary format.
// Layout (big endian): version byte, userID (u8 length prefix), access and
// refresh tokens (u16 length prefixes), three i64 timestamps.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)

	if len(s.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	if len(s.AccessToken) > maxTokenLen {
		return nil, errors.New("access token too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(s.AccessToken))); err != nil {
		return nil, err
	}
	buf.WriteString(s.AccessToken)

	if len(s.RefreshToken) > maxTokenLen {
		return nil, errors.New("refresh token too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(s.RefreshToken))); err != nil {
		return nil, err
	}
	buf.WriteString(s.RefreshToken)

	if err := binary.Write(&buf, binary.BigEndian, s.AccessExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.RefreshExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.EstablishedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a binary session record. Unknown versions and truncated
// blobs are rejected; the caller treats either as a corrupt record and
// discards it rather than restoring a partial session.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionCurrent {
		return nil, errors.New("invalid session record version")
	}

	s := &Session{}

	userIDLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	userID := make([]byte, userIDLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	s.UserID = string(userID)

	var accessLen uint16
	if err := binary.Read(reader, binary.BigEndian, &accessLen); err != nil {
		return nil, err
	}
	access := make([]byte, accessLen)
	if _, err := io.ReadFull(reader, access); err != nil {
		return nil, err
	}
	s.AccessToken = string(access)

	var refreshLen uint16
	if err := binary.Read(reader, binary.BigEndian, &refreshLen); err != nil {
		return nil, err
	}
	refresh := make([]byte, refreshLen)
	if _, err := io.ReadFull(reader, refresh); err != nil {
		return nil, err
	}
	s.RefreshToken = string(refresh)

	if err := binary.Read(reader, binary.BigEndian, &s.AccessExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.RefreshExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.EstablishedAt); err != nil {
		return nil, err
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in session record")
	}

	return s, nil
}
