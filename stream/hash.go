package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/crc32"
	"strings"

	"github.com/owacoder/skate-sub000/json"
	"github.com/owacoder/skate-sub000/value"
)

// crcTable is the IEEE CRC-32 table.
var crcTable = crc32.MakeTable(crc32.IEEE)

// ComputeCRC computes CRC-32 IEEE of the given bytes.
func ComputeCRC(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// StateHash computes sha256 of the canonical JSON of v: compact, with
// object keys in order. Equal documents hash equally no matter how the
// sender laid out its payload.
func StateHash(v value.Value) ([32]byte, error) {
	canonical, err := json.MarshalValue(v)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(canonical), nil
}

// HashToHex converts a 32-byte hash to lowercase hex.
func HashToHex(h [32]byte) string {
	return hex.EncodeToString(h[:])
}

// HexToHash parses a 64-character hex string, with or without a
// "sha256:" prefix.
func HexToHash(s string) ([32]byte, bool) {
	var h [32]byte
	s = strings.TrimPrefix(s, "sha256:")
	if len(s) != 64 {
		return h, false
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, false
	}
	return h, true
}
