package utf

import (
	"bufio"
	"io"
	"unsafe"
)

// Unit is a code unit of a text encoding.
type Unit interface {
	~uint8 | ~uint16 | ~uint32
}

// Width returns the size of U in bytes (1, 2 or 4).
func Width[U Unit]() int {
	var u U
	return int(unsafe.Sizeof(u))
}

// Cursor is a monotonically advancing read position over code units.
//
// Peek and Next report ok=false at the end of input; that flag is the end
// sentinel and is distinguishable from every unit value. Unread pushes back
// the most recently consumed unit. One unit of pushback is guaranteed; a
// second consecutive Unread may fail.
type Cursor[U Unit] interface {
	Peek() (u U, ok bool)
	Next() (u U, ok bool)
	ReadN(dst []U) int
	Unread() bool
	Offset() int64
}

// ============================================================
// SliceCursor
// ============================================================

// SliceCursor reads from an in-memory unit slice.
type SliceCursor[U Unit] struct {
	buf []U
	pos int
	// unread is true when the last operation consumed a unit that can be
	// pushed back.
	unread bool
}

// NewSliceCursor creates a cursor over buf.
func NewSliceCursor[U Unit](buf []U) *SliceCursor[U] {
	return &SliceCursor[U]{buf: buf}
}

// Peek returns the next unit without consuming it.
func (c *SliceCursor[U]) Peek() (U, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.pos], true
}

// Next consumes and returns the next unit.
func (c *SliceCursor[U]) Next() (U, bool) {
	if c.pos >= len(c.buf) {
		c.unread = false
		return 0, false
	}
	u := c.buf[c.pos]
	c.pos++
	c.unread = true
	return u, true
}

// ReadN consumes up to len(dst) units into dst.
func (c *SliceCursor[U]) ReadN(dst []U) int {
	n := copy(dst, c.buf[c.pos:])
	c.pos += n
	c.unread = n > 0
	return n
}

// Unread pushes back the last consumed unit.
func (c *SliceCursor[U]) Unread() bool {
	if !c.unread || c.pos == 0 {
		return false
	}
	c.pos--
	c.unread = false
	return true
}

// Offset returns the number of units consumed so far.
func (c *SliceCursor[U]) Offset() int64 {
	return int64(c.pos)
}

// Rest returns the unconsumed units.
func (c *SliceCursor[U]) Rest() []U {
	return c.buf[c.pos:]
}

// NewStringCursor creates a byte cursor over a Go string without copying it
// more than once.
func NewStringCursor(s string) *SliceCursor[byte] {
	return NewSliceCursor(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// ============================================================
// ReaderCursor
// ============================================================

// ReaderCursor reads bytes from an io.Reader through a bufio.Reader.
// I/O errors other than io.EOF end the input; Err reports them.
type ReaderCursor struct {
	r      *bufio.Reader
	off    int64
	err    error
	unread bool
}

// NewReaderCursor wraps r. If r is already a *bufio.Reader it is used as is.
func NewReaderCursor(r io.Reader) *ReaderCursor {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &ReaderCursor{r: br}
}

// Peek returns the next byte without consuming it.
func (c *ReaderCursor) Peek() (byte, bool) {
	if c.err != nil {
		return 0, false
	}
	b, err := c.r.Peek(1)
	if err != nil {
		c.setErr(err)
		return 0, false
	}
	return b[0], true
}

// Next consumes and returns the next byte.
func (c *ReaderCursor) Next() (byte, bool) {
	if c.err != nil {
		c.unread = false
		return 0, false
	}
	b, err := c.r.ReadByte()
	if err != nil {
		c.setErr(err)
		c.unread = false
		return 0, false
	}
	c.off++
	c.unread = true
	return b, true
}

// ReadN consumes up to len(dst) bytes.
func (c *ReaderCursor) ReadN(dst []byte) int {
	if c.err != nil {
		return 0
	}
	n, err := io.ReadFull(c.r, dst)
	c.off += int64(n)
	c.unread = false
	if err != nil {
		c.setErr(err)
	}
	return n
}

// Unread pushes back the last byte consumed by Next.
func (c *ReaderCursor) Unread() bool {
	if !c.unread {
		return false
	}
	if err := c.r.UnreadByte(); err != nil {
		return false
	}
	c.off--
	c.unread = false
	return true
}

// Offset returns the number of bytes consumed so far.
func (c *ReaderCursor) Offset() int64 {
	return c.off
}

// Err returns the first non-EOF read error.
func (c *ReaderCursor) Err() error {
	if c.err == io.EOF || c.err == io.ErrUnexpectedEOF {
		return nil
	}
	return c.err
}

func (c *ReaderCursor) setErr(err error) {
	if c.err == nil {
		c.err = err
	}
}
