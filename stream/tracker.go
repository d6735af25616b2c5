package stream

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/owacoder/skate-sub000/json"
	"github.com/owacoder/skate-sub000/value"
)

// Tracker tracks per-SID state while frames are processed. It is safe
// for concurrent use.
type Tracker struct {
	mu   sync.RWMutex
	sids map[uint64]*SIDState
}

// SIDState holds state for a single stream ID.
type SIDState struct {
	SID       uint64
	LastSeq   uint64   // Last sequence number seen
	LastAcked uint64   // Last sequence number acknowledged
	StateHash [32]byte // Hash of the last document
	HasState  bool     // Whether StateHash is valid
	Final     bool     // Whether the stream has ended
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sids: make(map[uint64]*SIDState)}
}

func (t *Tracker) get(sid uint64) *SIDState {
	state, ok := t.sids[sid]
	if !ok {
		state = &SIDState{SID: sid}
		t.sids[sid] = state
	}
	return state
}

// State returns a copy of the state for sid and whether it is tracked.
func (t *Tracker) State(sid uint64) (SIDState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.sids[sid]
	if !ok {
		return SIDState{SID: sid}, false
	}
	return *state, true
}

// Delete removes state for a SID.
func (t *Tracker) Delete(sid uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sids, sid)
}

// SIDs returns all tracked SIDs in ascending order.
func (t *Tracker) SIDs() []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sids := make([]uint64, 0, len(t.sids))
	for sid := range t.sids {
		sids = append(sids, sid)
	}
	slices.Sort(sids)
	return sids
}

// Process checks a frame against the SID's state and records it.
//
// Frames with seq 0 are unsequenced and skip the ordering check. Any
// other frame must carry exactly LastSeq+1; a *SequenceError reports
// duplicates, reordering and gaps. A frame with a base hash must match
// the hash of the previous document, or *BaseMismatchError is returned.
// Nothing may follow a final frame (ErrAfterFinal).
// A rejected frame leaves the state unchanged.
func (t *Tracker) Process(frame *Frame) error {
	return t.process(frame, false)
}

// Check reports the error Process would return for frame without
// recording anything.
func (t *Tracker) Check(frame *Frame) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state := t.sids[frame.SID]
	if state == nil {
		state = &SIDState{SID: frame.SID}
	}
	return checkFrame(state, frame, false)
}

// process records frame. With skipGap set, a frame ahead of LastSeq+1
// is accepted and the sequence resumes from it.
func (t *Tracker) process(frame *Frame, skipGap bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := t.get(frame.SID)
	if err := checkFrame(state, frame, skipGap); err != nil {
		return err
	}
	if frame.Seq != 0 {
		state.LastSeq = frame.Seq
	}
	if frame.IsFinal() {
		state.Final = true
	}
	return nil
}

func checkFrame(state *SIDState, frame *Frame, skipGap bool) error {
	if state.Final {
		return fmt.Errorf("%w (sid %d seq %d)", ErrAfterFinal, frame.SID, frame.Seq)
	}
	if frame.Seq != 0 && frame.Seq != state.LastSeq+1 {
		if !skipGap || frame.Seq <= state.LastSeq {
			return &SequenceError{SID: frame.SID, Expected: state.LastSeq + 1, Got: frame.Seq}
		}
	}
	if frame.Base != nil {
		if !state.HasState || state.StateHash != *frame.Base {
			return &BaseMismatchError{SID: frame.SID, Expected: *frame.Base, Got: state.StateHash}
		}
	}
	return nil
}

// SetState records v as the SID's current document.
func (t *Tracker) SetState(sid uint64, v value.Value) error {
	hash, err := StateHash(v)
	if err != nil {
		return err
	}
	t.SetStateHash(sid, hash)
	return nil
}

// SetStateHash sets the state hash directly.
func (t *Tracker) SetStateHash(sid uint64, hash [32]byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := t.get(sid)
	state.StateHash = hash
	state.HasState = true
}

// Ack marks every sequence up to seq as acknowledged.
func (t *Tracker) Ack(sid, seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := t.get(sid)
	if seq > state.LastAcked {
		state.LastAcked = seq
	}
}

// PendingAcks returns sequences that have been seen but not acked.
func (t *Tracker) PendingAcks(sid uint64) []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state := t.sids[sid]
	if state == nil || state.LastSeq <= state.LastAcked {
		return nil
	}
	pending := make([]uint64, 0, state.LastSeq-state.LastAcked)
	for seq := state.LastAcked + 1; seq <= state.LastSeq; seq++ {
		pending = append(pending, seq)
	}
	return pending
}

// NeedsResync reports whether the receiver lacks a document to check
// base hashes against.
func (t *Tracker) NeedsResync(sid uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state := t.sids[sid]
	return state == nil || !state.HasState
}

// ============================================================
// Frame Handler - functional processing helper
// ============================================================

// FrameHandler dispatches frames to callbacks with state tracking.
type FrameHandler struct {
	Tracker *Tracker

	// ReadOptions apply to doc payloads.
	ReadOptions json.ReadOptions

	// Callbacks (optional)
	OnDoc   func(sid, seq uint64, doc value.Value) error
	OnAck   func(sid, seq uint64) error
	OnErr   func(sid, seq uint64, message string) error
	OnPing  func(sid, seq uint64) error
	OnFinal func(sid uint64) error

	// OnSeqGap is called when frames are missing. Returning nil accepts
	// the frame and resumes from its sequence number.
	OnSeqGap func(sid uint64, expected, got uint64) error
}

// NewFrameHandler creates a handler with an empty tracker and the
// default read options.
func NewFrameHandler() *FrameHandler {
	return &FrameHandler{Tracker: NewTracker(), ReadOptions: json.DefaultReadOptions()}
}

// Handle processes a frame and calls the matching callback. Duplicate
// and reordered frames are skipped. Doc payloads are decoded before the
// frame is recorded, so a payload that fails to decode leaves the SID's
// sequence where it was; a decoded doc becomes the SID's state before
// OnDoc runs.
func (h *FrameHandler) Handle(frame *Frame) error {
	skipGap := false
	if err := h.Tracker.Check(frame); err != nil {
		var seqErr *SequenceError
		isSeq := errors.As(err, &seqErr)
		switch {
		case isSeq && seqErr.Got < seqErr.Expected:
			return nil
		case isSeq && h.OnSeqGap != nil:
			if err := h.OnSeqGap(frame.SID, seqErr.Expected, seqErr.Got); err != nil {
				return err
			}
			skipGap = true
		default:
			return err
		}
	}

	var doc value.Value
	if frame.Kind == KindDoc {
		var err error
		if doc, err = decodePayload(frame, h.ReadOptions); err != nil {
			return err
		}
	}
	if err := h.Tracker.process(frame, skipGap); err != nil {
		return err
	}

	switch frame.Kind {
	case KindDoc:
		if err := h.Tracker.SetState(frame.SID, doc); err != nil {
			return err
		}
		if h.OnDoc != nil {
			if err := h.OnDoc(frame.SID, frame.Seq, doc); err != nil {
				return err
			}
		}
	case KindAck:
		h.Tracker.Ack(frame.SID, frame.Seq)
		if h.OnAck != nil {
			if err := h.OnAck(frame.SID, frame.Seq); err != nil {
				return err
			}
		}
	case KindErr:
		if h.OnErr != nil {
			if err := h.OnErr(frame.SID, frame.Seq, string(frame.Payload)); err != nil {
				return err
			}
		}
	case KindPing:
		if h.OnPing != nil {
			if err := h.OnPing(frame.SID, frame.Seq); err != nil {
				return err
			}
		}
	}

	if frame.IsFinal() && h.OnFinal != nil {
		return h.OnFinal(frame.SID)
	}
	return nil
}
