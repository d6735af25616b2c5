package stream

import (
	"fmt"
	"io"

	"github.com/owacoder/skate-sub000/capability"
	"github.com/owacoder/skate-sub000/json"
	"github.com/owacoder/skate-sub000/value"
)

// Encoder writes Go values as doc frames on one SID. Each frame after the
// first carries the state hash of the document before it as its base.
type Encoder struct {
	w      *Writer
	sid    uint64
	seq    uint64
	base   *[32]byte
	closed bool
}

// NewEncoder returns an encoder writing frames for sid to w.
func NewEncoder(w io.Writer, sid uint64, opts ...WriterOption) (*Encoder, error) {
	fw, err := NewWriter(w, opts...)
	if err != nil {
		return nil, err
	}
	return &Encoder{w: fw, sid: sid}, nil
}

// Seq returns the sequence number of the last frame written.
func (e *Encoder) Seq() uint64 { return e.seq }

// Encode writes v as the next document.
func (e *Encoder) Encode(v any) error {
	if e.closed {
		return ErrAfterFinal
	}
	doc, err := capability.ToValue(v)
	if err != nil {
		return err
	}
	payload, err := json.MarshalValue(doc)
	if err != nil {
		return err
	}
	hash, err := StateHash(doc)
	if err != nil {
		return err
	}

	e.seq++
	err = e.w.WriteFrame(&Frame{
		Version: Version,
		SID:     e.sid,
		Seq:     e.seq,
		Kind:    KindDoc,
		Payload: payload,
		Base:    e.base,
	})
	if err != nil {
		return err
	}
	e.base = &hash
	return nil
}

// EncodeError writes an err frame carrying msg.
func (e *Encoder) EncodeError(msg string) error {
	if e.closed {
		return ErrAfterFinal
	}
	e.seq++
	return e.w.WriteErr(e.sid, e.seq, []byte(msg))
}

// Close ends the SID with a final ack frame and releases the writer.
// Calling Close twice is a no-op.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.seq++
	err := e.w.WriteFinal(e.sid, e.seq, KindAck, nil)
	if cerr := e.w.Close(); err == nil {
		err = cerr
	}
	return err
}

// Decoder reads doc frames from a stream into Go values. Frames from any
// number of SIDs may be interleaved; each SID is checked for ordering and
// base hashes.
type Decoder struct {
	r       *Reader
	tracker *Tracker
	opts    json.ReadOptions
	sid     uint64
	seq     uint64
}

// NewDecoder returns a decoder reading frames from r.
func NewDecoder(r io.Reader, opts ...ReaderOption) *Decoder {
	return &Decoder{
		r:       NewReader(r, opts...),
		tracker: NewTracker(),
		opts:    json.DefaultReadOptions(),
	}
}

// SetOptions replaces the read options used for doc payloads.
func (d *Decoder) SetOptions(opts json.ReadOptions) {
	d.opts = opts
}

// Tracker returns the per-SID state the decoder maintains.
func (d *Decoder) Tracker() *Tracker { return d.tracker }

// Last returns the SID and sequence number of the last decoded document.
func (d *Decoder) Last() (sid, seq uint64) { return d.sid, d.seq }

// Close releases the reader's resources.
func (d *Decoder) Close() { d.r.Close() }

// Decode reads frames until the next doc frame and decodes its payload
// into the value v points to. Ack, ping and pong frames are consumed. An
// err frame is returned as *RemoteError. At the end of the input Decode
// returns io.EOF.
func (d *Decoder) Decode(v any) error {
	doc, err := d.DecodeValue()
	if err != nil {
		return err
	}
	return capability.FromValue(doc, v)
}

// DecodeValue is like Decode but returns the document as a Value.
func (d *Decoder) DecodeValue() (value.Value, error) {
	for {
		frame, err := d.r.Next()
		if err != nil {
			return value.Null(), err
		}
		if err := d.tracker.Check(frame); err != nil {
			return value.Null(), err
		}
		var doc value.Value
		if frame.Kind == KindDoc {
			if doc, err = decodePayload(frame, d.opts); err != nil {
				return value.Null(), err
			}
		}
		if err := d.tracker.Process(frame); err != nil {
			return value.Null(), err
		}

		switch frame.Kind {
		case KindAck:
			d.tracker.Ack(frame.SID, frame.Seq)
		case KindErr:
			return value.Null(), &RemoteError{SID: frame.SID, Seq: frame.Seq, Message: string(frame.Payload)}
		case KindDoc:
			if err := d.tracker.SetState(frame.SID, doc); err != nil {
				return value.Null(), err
			}
			d.sid, d.seq = frame.SID, frame.Seq
			return doc, nil
		}
	}
}

func decodePayload(frame *Frame, opts json.ReadOptions) (value.Value, error) {
	var doc value.Value
	if err := json.UnmarshalWithOptions(frame.Payload, &doc, opts); err != nil {
		return value.Null(), fmt.Errorf("stream: sid %d seq %d: %w", frame.SID, frame.Seq, err)
	}
	return doc, nil
}
