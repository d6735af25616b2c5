package stream

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Writer writes frames to an io.Writer.
type Writer struct {
	w       io.Writer
	withCRC bool
	enc     *zstd.Encoder
}

// WriterOption configures a Writer.
type WriterOption func(*Writer) error

// WithCRC computes and includes a CRC for each frame with a payload.
func WithCRC() WriterOption {
	return func(w *Writer) error {
		w.withCRC = true
		return nil
	}
}

// WithCompression zstd-compresses every non-empty payload at the given
// level.
func WithCompression(level zstd.EncoderLevel) WriterOption {
	return func(w *Writer) error {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if err != nil {
			return fmt.Errorf("stream: compression: %w", err)
		}
		w.enc = enc
		return nil
	}
}

// NewWriter creates a frame writer.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	writer := &Writer{w: w}
	for _, opt := range opts {
		if err := opt(writer); err != nil {
			return nil, err
		}
	}
	return writer, nil
}

// Close releases the compressor. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.enc != nil {
		return w.enc.Close()
	}
	return nil
}

// WriteFrame writes a single frame.
//
// Format:
//
//	@frame{v=1 sid=N seq=N kind=K len=N [crc=X] [base=sha256:X] [flags=X] [final=true]}\n
//	<payload bytes>\n
//
// With compression enabled the payload is compressed first; len and crc
// describe the bytes on the wire.
func (w *Writer) WriteFrame(f *Frame) error {
	payload := f.Payload
	flags := f.Flags &^ (FlagHasCRC | FlagHasBase | FlagCompressed)
	if w.enc != nil && len(payload) > 0 {
		payload = w.enc.EncodeAll(payload, nil)
		flags |= FlagCompressed
	}

	var header strings.Builder
	header.WriteString("@frame{")

	// Required fields
	header.WriteString("v=")
	if f.Version == 0 {
		header.WriteByte('1')
	} else {
		header.WriteString(strconv.Itoa(int(f.Version)))
	}

	header.WriteString(" sid=")
	header.WriteString(strconv.FormatUint(f.SID, 10))

	header.WriteString(" seq=")
	header.WriteString(strconv.FormatUint(f.Seq, 10))

	header.WriteString(" kind=")
	header.WriteString(f.Kind.String())

	header.WriteString(" len=")
	header.WriteString(strconv.Itoa(len(payload)))

	// Optional CRC. A CRC supplied by the caller is only kept when the
	// payload goes out unchanged.
	crc := f.CRC
	if flags&FlagCompressed != 0 {
		crc = nil
	}
	if crc == nil && w.withCRC && len(payload) > 0 {
		computed := ComputeCRC(payload)
		crc = &computed
	}
	if crc != nil {
		fmt.Fprintf(&header, " crc=%08x", *crc)
	}

	// Optional base hash
	if f.Base != nil {
		header.WriteString(" base=sha256:")
		header.WriteString(HashToHex(*f.Base))
	}

	if flags&FlagCompressed != 0 {
		fmt.Fprintf(&header, " flags=%02x", uint8(flags&^FlagFinal))
	}

	// Optional final flag
	if f.IsFinal() {
		header.WriteString(" final=true")
	}

	header.WriteString("}\n")

	if _, err := io.WriteString(w.w, header.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.w.Write(payload); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}
	if _, err := io.WriteString(w.w, "\n"); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}

	framesWritten.Inc()
	payloadBytesWritten.Add(len(payload))
	return nil
}

// WriteDoc writes a doc frame with the given payload.
func (w *Writer) WriteDoc(sid, seq uint64, payload []byte) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindDoc,
		Payload: payload,
	})
}

// WriteAck writes an acknowledgement frame (no payload).
func (w *Writer) WriteAck(sid, seq uint64) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindAck})
}

// WriteErr writes an error frame.
func (w *Writer) WriteErr(sid, seq uint64, payload []byte) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindErr,
		Payload: payload,
	})
}

// WritePing writes a ping frame.
func (w *Writer) WritePing(sid, seq uint64) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindPing})
}

// WritePong writes a pong frame.
func (w *Writer) WritePong(sid, seq uint64) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindPong})
}

// WriteFinal writes a final frame for a stream.
func (w *Writer) WriteFinal(sid, seq uint64, kind FrameKind, payload []byte) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    kind,
		Payload: payload,
		Final:   true,
	})
}
