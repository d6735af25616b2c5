package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owacoder/skate-sub000/json"
	"github.com/owacoder/skate-sub000/value"
)

func TestTracker_Basic(t *testing.T) {
	tr := NewTracker()

	_, ok := tr.State(1)
	assert.False(t, ok)

	for _, sid := range []uint64{3, 1, 2} {
		require.NoError(t, tr.Process(&Frame{SID: sid, Seq: 1, Kind: KindDoc}))
	}
	assert.Equal(t, []uint64{1, 2, 3}, tr.SIDs())

	state, ok := tr.State(2)
	require.True(t, ok)
	assert.Equal(t, uint64(2), state.SID)
	assert.Equal(t, uint64(1), state.LastSeq)

	tr.Delete(2)
	_, ok = tr.State(2)
	assert.False(t, ok)
	assert.Equal(t, []uint64{1, 3}, tr.SIDs())
}

func TestTracker_Sequence(t *testing.T) {
	tr := NewTracker()

	require.NoError(t, tr.Process(&Frame{SID: 1, Seq: 1, Kind: KindDoc}))
	require.NoError(t, tr.Process(&Frame{SID: 1, Seq: 2, Kind: KindDoc}))
	require.NoError(t, tr.Process(&Frame{SID: 1, Seq: 0, Kind: KindPing}))

	err := tr.Process(&Frame{SID: 1, Seq: 5, Kind: KindDoc})
	var seqErr *SequenceError
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, uint64(3), seqErr.Expected)
	assert.Equal(t, uint64(5), seqErr.Got)
	assert.Contains(t, err.Error(), "sequence gap")

	err = tr.Process(&Frame{SID: 1, Seq: 2, Kind: KindDoc})
	require.ErrorAs(t, err, &seqErr)
	assert.Contains(t, err.Error(), "not monotonic")

	state, _ := tr.State(1)
	assert.Equal(t, uint64(2), state.LastSeq)

	// A different SID has its own sequence.
	require.NoError(t, tr.Process(&Frame{SID: 2, Seq: 1, Kind: KindDoc}))
}

func TestTracker_FirstFrameMustBeOne(t *testing.T) {
	tr := NewTracker()
	var seqErr *SequenceError
	require.ErrorAs(t, tr.Process(&Frame{SID: 4, Seq: 2, Kind: KindDoc}), &seqErr)
	assert.Equal(t, uint64(1), seqErr.Expected)
}

func TestTracker_BaseVerification(t *testing.T) {
	tr := NewTracker()
	doc := value.Array(value.Int(1), value.Str("x"))
	hash, err := StateHash(doc)
	require.NoError(t, err)

	require.NoError(t, tr.Process(&Frame{SID: 1, Seq: 1, Kind: KindDoc}))
	assert.True(t, tr.NeedsResync(1))

	// No state yet.
	var mismatch *BaseMismatchError
	require.ErrorAs(t, tr.Process(&Frame{SID: 1, Seq: 2, Kind: KindDoc, Base: &hash}), &mismatch)

	require.NoError(t, tr.SetState(1, doc))
	assert.False(t, tr.NeedsResync(1))
	require.NoError(t, tr.Process(&Frame{SID: 1, Seq: 2, Kind: KindDoc, Base: &hash}))

	wrong := [32]byte{0xff}
	err = tr.Process(&Frame{SID: 1, Seq: 3, Kind: KindDoc, Base: &wrong})
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, wrong, mismatch.Expected)
	assert.Equal(t, hash, mismatch.Got)
	assert.Contains(t, err.Error(), "ff0000000000")

	state, _ := tr.State(1)
	assert.Equal(t, uint64(2), state.LastSeq)
}

func TestTracker_Ack(t *testing.T) {
	tr := NewTracker()
	assert.Nil(t, tr.PendingAcks(1))

	for seq := uint64(1); seq <= 4; seq++ {
		require.NoError(t, tr.Process(&Frame{SID: 1, Seq: seq, Kind: KindDoc}))
	}
	assert.Equal(t, []uint64{1, 2, 3, 4}, tr.PendingAcks(1))

	tr.Ack(1, 2)
	assert.Equal(t, []uint64{3, 4}, tr.PendingAcks(1))

	tr.Ack(1, 1)
	assert.Equal(t, []uint64{3, 4}, tr.PendingAcks(1))

	tr.Ack(1, 4)
	assert.Nil(t, tr.PendingAcks(1))
}

func TestTracker_Final(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Process(&Frame{SID: 1, Seq: 1, Kind: KindDoc}))
	require.NoError(t, tr.Process(&Frame{SID: 1, Seq: 2, Kind: KindAck, Final: true}))

	state, _ := tr.State(1)
	assert.True(t, state.Final)

	err := tr.Process(&Frame{SID: 1, Seq: 3, Kind: KindDoc})
	assert.True(t, errors.Is(err, ErrAfterFinal))

	require.NoError(t, tr.Process(&Frame{SID: 2, Seq: 1, Kind: KindDoc, Flags: FlagFinal}))
	state, _ = tr.State(2)
	assert.True(t, state.Final)
}

// ============================================================
// Frame Handler Tests
// ============================================================

func TestFrameHandler_Dispatch(t *testing.T) {
	h := NewFrameHandler()
	var (
		docs   []string
		acks   []uint64
		errs   []string
		pings  int
		finals []uint64
	)
	h.OnDoc = func(sid, seq uint64, doc value.Value) error {
		docs = append(docs, doc.String())
		return nil
	}
	h.OnAck = func(sid, seq uint64) error {
		acks = append(acks, seq)
		return nil
	}
	h.OnErr = func(sid, seq uint64, message string) error {
		errs = append(errs, message)
		return nil
	}
	h.OnPing = func(sid, seq uint64) error {
		pings++
		return nil
	}
	h.OnFinal = func(sid uint64) error {
		finals = append(finals, sid)
		return nil
	}

	frames := []*Frame{
		{SID: 1, Seq: 1, Kind: KindDoc, Payload: []byte(`{"a":1}`)},
		{SID: 1, Seq: 0, Kind: KindPing},
		{SID: 1, Seq: 2, Kind: KindErr, Payload: []byte("slow down")},
		{SID: 1, Seq: 3, Kind: KindAck, Final: true},
	}
	for _, f := range frames {
		require.NoError(t, h.Handle(f))
	}

	assert.Equal(t, []string{`{"a":1}`}, docs)
	assert.Equal(t, []uint64{3}, acks)
	assert.Equal(t, []string{"slow down"}, errs)
	assert.Equal(t, 1, pings)
	assert.Equal(t, []uint64{1}, finals)
	assert.False(t, h.Tracker.NeedsResync(1))
}

func TestFrameHandler_DocSetsState(t *testing.T) {
	h := NewFrameHandler()
	require.NoError(t, h.Handle(&Frame{SID: 1, Seq: 1, Kind: KindDoc, Payload: []byte(`[1, 2]`)}))

	want, err := StateHash(value.Array(value.Int(1), value.Int(2)))
	require.NoError(t, err)
	state, _ := h.Tracker.State(1)
	assert.Equal(t, want, state.StateHash)

	require.NoError(t, h.Handle(&Frame{SID: 1, Seq: 2, Kind: KindDoc, Payload: []byte(`3`), Base: &want}))
}

func TestFrameHandler_BadPayload(t *testing.T) {
	h := NewFrameHandler()
	err := h.Handle(&Frame{SID: 1, Seq: 1, Kind: KindDoc, Payload: []byte(`{"a":}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sid 1 seq 1")

	// The rejected frame is not recorded; a corrected resend is accepted.
	state, _ := h.Tracker.State(1)
	assert.Equal(t, uint64(0), state.LastSeq)
	assert.False(t, state.HasState)
	require.NoError(t, h.Handle(&Frame{SID: 1, Seq: 1, Kind: KindDoc, Payload: []byte(`{"a":1}`)}))
	state, _ = h.Tracker.State(1)
	assert.Equal(t, uint64(1), state.LastSeq)
}

func TestFrameHandler_BadPayloadFinal(t *testing.T) {
	h := NewFrameHandler()
	err := h.Handle(&Frame{SID: 1, Seq: 1, Kind: KindDoc, Payload: []byte(`[`), Final: true})
	require.Error(t, err)
	state, _ := h.Tracker.State(1)
	assert.False(t, state.Final)
}

func TestFrameHandler_BadPayloadAfterGap(t *testing.T) {
	h := NewFrameHandler()
	h.OnSeqGap = func(uint64, uint64, uint64) error { return nil }
	require.NoError(t, h.Handle(&Frame{SID: 1, Seq: 1, Kind: KindAck}))

	require.Error(t, h.Handle(&Frame{SID: 1, Seq: 4, Kind: KindDoc, Payload: []byte(`nul`)}))
	state, _ := h.Tracker.State(1)
	assert.Equal(t, uint64(1), state.LastSeq)
}

func TestFrameHandler_ReadOptions(t *testing.T) {
	frame := &Frame{SID: 1, Seq: 1, Kind: KindDoc, Payload: []byte(`[[[1]]]`)}

	h := NewFrameHandler()
	assert.Equal(t, json.DefaultReadOptions(), h.ReadOptions)
	require.NoError(t, h.Handle(frame))

	h = NewFrameHandler()
	h.ReadOptions.MaxDepth = 2
	var depthErr *json.DepthError
	require.ErrorAs(t, h.Handle(frame), &depthErr)
	assert.Equal(t, 2, depthErr.Limit)

	nonFinite := &Frame{SID: 2, Seq: 1, Kind: KindDoc, Payload: []byte(`[NaN]`)}
	require.Error(t, h.Handle(nonFinite))
	h.ReadOptions.AllowNonFinite = true
	require.NoError(t, h.Handle(nonFinite))
}

func TestTracker_CheckDoesNotRecord(t *testing.T) {
	tr := NewTracker()
	frame := &Frame{SID: 9, Seq: 1, Kind: KindAck, Final: true}
	require.NoError(t, tr.Check(frame))
	_, ok := tr.State(9)
	assert.False(t, ok)

	var seqErr *SequenceError
	require.ErrorAs(t, tr.Check(&Frame{SID: 9, Seq: 2, Kind: KindAck}), &seqErr)
	assert.Equal(t, uint64(1), seqErr.Expected)

	require.NoError(t, tr.Process(frame))
	assert.ErrorIs(t, tr.Check(&Frame{SID: 9, Seq: 2, Kind: KindAck}), ErrAfterFinal)
}

func TestFrameHandler_GapCallback(t *testing.T) {
	h := NewFrameHandler()
	var gaps [][2]uint64
	h.OnSeqGap = func(sid uint64, expected, got uint64) error {
		gaps = append(gaps, [2]uint64{expected, got})
		return nil
	}

	require.NoError(t, h.Handle(&Frame{SID: 1, Seq: 1, Kind: KindAck}))
	require.NoError(t, h.Handle(&Frame{SID: 1, Seq: 5, Kind: KindAck}))
	require.NoError(t, h.Handle(&Frame{SID: 1, Seq: 6, Kind: KindAck}))

	assert.Equal(t, [][2]uint64{{2, 5}}, gaps)
	state, _ := h.Tracker.State(1)
	assert.Equal(t, uint64(6), state.LastSeq)
}

func TestFrameHandler_GapWithoutCallback(t *testing.T) {
	h := NewFrameHandler()
	require.NoError(t, h.Handle(&Frame{SID: 1, Seq: 1, Kind: KindAck}))

	var seqErr *SequenceError
	require.ErrorAs(t, h.Handle(&Frame{SID: 1, Seq: 3, Kind: KindAck}), &seqErr)
}

func TestFrameHandler_GapCallbackError(t *testing.T) {
	h := NewFrameHandler()
	stop := errors.New("resync needed")
	h.OnSeqGap = func(uint64, uint64, uint64) error { return stop }

	require.NoError(t, h.Handle(&Frame{SID: 1, Seq: 1, Kind: KindAck}))
	assert.ErrorIs(t, h.Handle(&Frame{SID: 1, Seq: 3, Kind: KindAck}), stop)
}

func TestFrameHandler_DuplicateSkipped(t *testing.T) {
	h := NewFrameHandler()
	calls := 0
	h.OnDoc = func(uint64, uint64, value.Value) error {
		calls++
		return nil
	}

	frame := &Frame{SID: 1, Seq: 1, Kind: KindDoc, Payload: []byte(`null`)}
	require.NoError(t, h.Handle(frame))
	require.NoError(t, h.Handle(frame))
	assert.Equal(t, 1, calls)
}
