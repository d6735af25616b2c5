package utf

import (
	"bufio"
	"io"
)

// Sink is a write endpoint for code units. Both methods report success;
// neither panics. A failed write leaves earlier units in place.
type Sink[U Unit] interface {
	Put(u U) bool
	Write(us []U) bool
}

// ============================================================
// SliceSink
// ============================================================

// SliceSink appends units to a growable slice.
type SliceSink[U Unit] struct {
	buf []U
}

// NewSliceSink creates a sink with the given initial capacity.
func NewSliceSink[U Unit](capacity int) *SliceSink[U] {
	return &SliceSink[U]{buf: make([]U, 0, capacity)}
}

// Put appends one unit.
func (s *SliceSink[U]) Put(u U) bool {
	s.buf = append(s.buf, u)
	return true
}

// Write appends all units.
func (s *SliceSink[U]) Write(us []U) bool {
	s.buf = append(s.buf, us...)
	return true
}

// Units returns the written units.
func (s *SliceSink[U]) Units() []U {
	return s.buf
}

// Len returns the number of written units.
func (s *SliceSink[U]) Len() int {
	return len(s.buf)
}

// Reset discards the written units, keeping the capacity.
func (s *SliceSink[U]) Reset() {
	s.buf = s.buf[:0]
}

// ============================================================
// WriterSink
// ============================================================

// WriterSink writes bytes to an io.Writer through a buffer.
// The first write error sticks: later writes fail without touching w.
type WriterSink struct {
	w   *bufio.Writer
	err error
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: bufio.NewWriter(w)}
}

// Put writes one byte.
func (s *WriterSink) Put(b byte) bool {
	if s.err != nil {
		return false
	}
	if err := s.w.WriteByte(b); err != nil {
		s.err = err
		return false
	}
	return true
}

// Write writes all bytes.
func (s *WriterSink) Write(bs []byte) bool {
	if s.err != nil {
		return false
	}
	if _, err := s.w.Write(bs); err != nil {
		s.err = err
		return false
	}
	return true
}

// Flush flushes buffered bytes to the underlying writer.
func (s *WriterSink) Flush() error {
	if s.err != nil {
		return s.err
	}
	if err := s.w.Flush(); err != nil {
		s.err = err
	}
	return s.err
}

// Err returns the first write error.
func (s *WriterSink) Err() error {
	return s.err
}

// ============================================================
// LimitSink
// ============================================================

// LimitSink forwards to another sink until a unit budget is spent, then
// fails every write. A Write that would cross the limit writes nothing.
type LimitSink[U Unit] struct {
	S     Sink[U]
	Limit int
	n     int
}

// Put writes one unit if the budget allows.
func (s *LimitSink[U]) Put(u U) bool {
	if s.n >= s.Limit {
		return false
	}
	if !s.S.Put(u) {
		return false
	}
	s.n++
	return true
}

// Write writes all units if the budget allows.
func (s *LimitSink[U]) Write(us []U) bool {
	if s.n+len(us) > s.Limit {
		return false
	}
	if !s.S.Write(us) {
		return false
	}
	s.n += len(us)
	return true
}

// Written returns the number of units accepted.
func (s *LimitSink[U]) Written() int {
	return s.n
}
