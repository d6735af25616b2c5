package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Reader reads frames from an io.Reader.
type Reader struct {
	r          *bufio.Reader
	maxPayload int
	verifyCRC  bool
	dec        *zstd.Decoder
	offset     int64
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayload sets the maximum payload size (default: 64 MiB).
func WithMaxPayload(max int) ReaderOption {
	return func(r *Reader) {
		r.maxPayload = max
	}
}

// WithCRCVerification enables or disables CRC verification (default
// enabled).
func WithCRCVerification(enabled bool) ReaderOption {
	return func(r *Reader) {
		r.verifyCRC = enabled
	}
}

// NewReader creates a frame reader.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:          bufio.NewReader(r),
		maxPayload: MaxPayloadSize,
		verifyCRC:  true,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Close releases the decompressor, if one was needed.
func (r *Reader) Close() {
	if r.dec != nil {
		r.dec.Close()
	}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Next reads and returns the next frame with its payload decompressed.
// Returns io.EOF when no more frames are available.
func (r *Reader) Next() (*Frame, error) {
	start := r.offset
	header, err := r.readHeader()
	if err != nil {
		return nil, err
	}

	frame, payloadLen, err := parseHeader(header, start)
	if err != nil {
		return nil, err
	}
	if payloadLen > r.maxPayload {
		return nil, &ParseError{Reason: fmt.Sprintf("payload too large: %d > %d", payloadLen, r.maxPayload), Offset: start}
	}

	if payloadLen > 0 {
		frame.Payload = make([]byte, payloadLen)
		n, err := io.ReadFull(r.r, frame.Payload)
		r.offset += int64(n)
		if err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("truncated payload: %v", err), Offset: start}
		}
	}

	// Consume trailing newline (optional at EOF)
	if b, err := r.r.ReadByte(); err == nil {
		if b == '\n' {
			r.offset++
		} else {
			r.r.UnreadByte()
		}
	}

	if r.verifyCRC && frame.CRC != nil {
		computed := ComputeCRC(frame.Payload)
		if computed != *frame.CRC {
			return nil, &CRCMismatchError{Expected: *frame.CRC, Got: computed}
		}
	}

	framesRead.Inc()
	payloadBytesRead.Add(len(frame.Payload))

	if frame.IsCompressed() && len(frame.Payload) > 0 {
		if err := r.decompress(frame, start); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

func (r *Reader) readHeader() (string, error) {
	var sb strings.Builder
	for {
		line, err := r.r.ReadSlice('\n')
		r.offset += int64(len(line))
		sb.Write(line)
		if sb.Len() > maxHeaderSize {
			return "", &ParseError{Reason: "header line too long", Offset: r.offset - int64(sb.Len())}
		}
		switch {
		case err == nil:
			return sb.String(), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == io.EOF && sb.Len() == 0:
			return "", io.EOF
		case err == io.EOF:
			return "", &ParseError{Reason: "truncated header", Offset: r.offset - int64(sb.Len())}
		default:
			return "", fmt.Errorf("read header: %w", err)
		}
	}
}

func (r *Reader) decompress(frame *Frame, offset int64) error {
	if r.dec == nil {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(r.maxPayload)))
		if err != nil {
			return fmt.Errorf("stream: decompression: %w", err)
		}
		r.dec = dec
	}
	out, err := r.dec.DecodeAll(frame.Payload, nil)
	if err != nil {
		return &ParseError{Reason: fmt.Sprintf("decompress payload: %v", err), Offset: offset}
	}
	if len(out) > r.maxPayload {
		return &ParseError{Reason: fmt.Sprintf("payload too large: %d > %d", len(out), r.maxPayload), Offset: offset}
	}
	frame.Payload = out
	return nil
}

// parseHeader parses the @frame{...} header line and returns the payload
// length it announces.
func parseHeader(line string, offset int64) (*Frame, int, error) {
	line = strings.TrimSpace(line)

	if !strings.HasPrefix(line, "@frame{") {
		return nil, 0, &ParseError{Reason: "expected @frame{", Offset: offset}
	}
	if !strings.HasSuffix(line, "}") {
		return nil, 0, &ParseError{Reason: "missing closing }", Offset: offset}
	}
	content := line[len("@frame{") : len(line)-1]

	frame := &Frame{Version: Version}
	payloadLen := -1
	fail := func(reason string) (*Frame, int, error) {
		return nil, 0, &ParseError{Reason: reason, Offset: offset}
	}

	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	for _, pair := range fields {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return fail("malformed field " + strconv.Quote(pair))
		}

		switch key {
		case "v":
			v, err := strconv.ParseUint(val, 10, 8)
			if err != nil || uint8(v) != Version {
				return fail("unsupported version " + val)
			}
			frame.Version = uint8(v)

		case "sid":
			sid, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return fail("invalid sid")
			}
			frame.SID = sid

		case "seq":
			seq, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return fail("invalid seq")
			}
			frame.Seq = seq

		case "kind":
			kind, ok := ParseKind(val)
			if !ok {
				return fail("invalid kind: " + val)
			}
			frame.Kind = kind

		case "len":
			l, err := strconv.ParseUint(val, 10, 31)
			if err != nil {
				return fail("invalid len")
			}
			payloadLen = int(l)

		case "crc":
			crc, err := strconv.ParseUint(strings.TrimPrefix(val, "crc32:"), 16, 32)
			if err != nil || len(strings.TrimPrefix(val, "crc32:")) != 8 {
				return fail("invalid crc: " + val)
			}
			c := uint32(crc)
			frame.CRC = &c

		case "base":
			base, ok := HexToHash(val)
			if !ok {
				return fail("invalid base: " + val)
			}
			frame.Base = &base

		case "final":
			frame.Final = val == "true" || val == "1"

		case "flags":
			flags, err := strconv.ParseUint(val, 16, 8)
			if err != nil {
				return fail("invalid flags: " + val)
			}
			frame.Flags = Flags(flags)
		}
	}
	if payloadLen < 0 {
		return fail("missing len")
	}
	return frame, payloadLen, nil
}

// ReadAll reads all frames until EOF.
func (r *Reader) ReadAll() ([]*Frame, error) {
	var frames []*Frame
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}
