// Package stream carries many documents over one byte stream as text
// frames.
//
// Each frame is a header line followed by exactly len payload bytes and a
// newline:
//
//	@frame{v=1 sid=1 seq=3 kind=doc len=13 crc=5a2b1c0d}
//	{"id":7,"n":2}
//
// Frames give the stream:
//   - Message boundaries, so documents never need to be self-delimiting
//   - Multiplexing via stream IDs (sid)
//   - Ordering via per-sid sequence numbers (seq)
//   - Integrity via optional CRC-32 of the payload as sent
//   - State checks via an optional SHA-256 hash of the previous document
//   - Optional zstd compression of the payload
//
// Doc payloads are canonical JSON produced by package json.
package stream

import (
	"errors"
	"fmt"
)

// Version is the frame protocol version.
const Version uint8 = 1

// FrameKind indicates the semantic category of a frame's payload.
type FrameKind uint8

const (
	KindDoc  FrameKind = 0 // JSON document
	KindAck  FrameKind = 1 // Acknowledgement
	KindErr  FrameKind = 2 // Error report
	KindPing FrameKind = 3 // Keepalive
	KindPong FrameKind = 4 // Ping response
)

// String returns the kind name.
func (k FrameKind) String() string {
	switch k {
	case KindDoc:
		return "doc"
	case KindAck:
		return "ack"
	case KindErr:
		return "err"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses a kind name or its number.
func ParseKind(s string) (FrameKind, bool) {
	switch s {
	case "doc", "0":
		return KindDoc, true
	case "ack", "1":
		return KindAck, true
	case "err", "2":
		return KindErr, true
	case "ping", "3":
		return KindPing, true
	case "pong", "4":
		return KindPong, true
	}
	return 0, false
}

// Flags for frames.
type Flags uint8

const (
	FlagHasCRC     Flags = 0x01 // CRC-32 is present
	FlagHasBase    Flags = 0x02 // Base hash is present
	FlagFinal      Flags = 0x04 // End-of-stream for this SID
	FlagCompressed Flags = 0x08 // Payload is zstd-compressed
)

// Frame represents a single frame. Payload is always the uncompressed
// document; compression happens on the wire only.
type Frame struct {
	// Required fields
	Version uint8     // Protocol version (must be 1)
	SID     uint64    // Stream identifier
	Seq     uint64    // Sequence number (per-SID, monotonic)
	Kind    FrameKind // Frame kind
	Payload []byte

	// Optional fields
	CRC   *uint32   // CRC-32 of the payload as sent (nil if not present)
	Base  *[32]byte // SHA-256 state hash of the previous document
	Flags Flags     // Flag bits
	Final bool      // End-of-stream marker
}

// HasCRC returns true if CRC is present.
func (f *Frame) HasCRC() bool {
	return f.CRC != nil
}

// HasBase returns true if base hash is present.
func (f *Frame) HasBase() bool {
	return f.Base != nil
}

// IsFinal returns true if this is the final frame for this SID.
func (f *Frame) IsFinal() bool {
	return f.Final || f.Flags&FlagFinal != 0
}

// IsCompressed reports whether the payload was compressed on the wire.
func (f *Frame) IsCompressed() bool {
	return f.Flags&FlagCompressed != 0
}

// MaxPayloadSize is the default maximum payload size (64 MiB), applied
// both to the bytes on the wire and to the decompressed payload.
const MaxPayloadSize = 64 * 1024 * 1024

// maxHeaderSize bounds a header line.
const maxHeaderSize = 4096

// ErrAfterFinal is returned for a frame on a SID that already ended.
var ErrAfterFinal = errors.New("stream: frame after final frame")

// ParseError reports a malformed frame. Offset is the byte offset of the
// frame header in the stream, or -1 when unknown.
type ParseError struct {
	Reason string
	Offset int64
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("stream: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("stream: %s", e.Reason)
}

// CRCMismatchError is returned when CRC verification fails.
type CRCMismatchError struct {
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("stream: CRC mismatch: expected %08x, got %08x", e.Expected, e.Got)
}

// BaseMismatchError is returned when a frame's base hash does not match
// the receiver's state.
type BaseMismatchError struct {
	SID      uint64
	Expected [32]byte
	Got      [32]byte
}

func (e *BaseMismatchError) Error() string {
	return fmt.Sprintf("stream: base hash mismatch for sid %d: frame has %s, state is %s",
		e.SID, HashToHex(e.Expected)[:12], HashToHex(e.Got)[:12])
}

// SequenceError reports a duplicate, reordered or missing frame.
type SequenceError struct {
	SID      uint64
	Expected uint64
	Got      uint64
}

func (e *SequenceError) Error() string {
	if e.Got < e.Expected {
		return fmt.Sprintf("stream: sequence not monotonic for sid %d: got %d, expected %d", e.SID, e.Got, e.Expected)
	}
	return fmt.Sprintf("stream: sequence gap for sid %d: expected %d, got %d", e.SID, e.Expected, e.Got)
}

// RemoteError carries the message of an err frame.
type RemoteError struct {
	SID     uint64
	Seq     uint64
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("stream: remote error on sid %d seq %d: %s", e.SID, e.Seq, e.Message)
}
