package types

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// TokenIDSize is the length of an encoded TokenID in bytes.
const TokenIDSize = 8

// TokenID identifies an issued item. IDs are chosen by the minter and are
// never reused once issued.
type TokenID uint64

// String returns the decimal form, which is also what token URIs append.
func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Bytes returns the big-endian encoding. Big-endian keeps storage
// iteration in numeric order.
func (id TokenID) Bytes() []byte {
	var b [TokenIDSize]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

// TokenIDFromBytes decodes a big-endian TokenID.
func TokenIDFromBytes(b []byte) (TokenID, error) {
	if len(b) != TokenIDSize {
		return 0, fmt.Errorf("token id must be %d bytes, got %d", TokenIDSize, len(b))
	}
	return TokenID(binary.BigEndian.Uint64(b)), nil
}

// ParseTokenID parses a decimal token id.
func ParseTokenID(s string) (TokenID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token id %q: %w", s, err)
	}
	return TokenID(v), nil
}
