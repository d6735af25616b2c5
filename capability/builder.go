package capability

// Builder receives the nodes of one document in order. Array and Object
// return child builders; each child node is complete before the next
// Elem or Key call and the container is complete when End returns.
//
// Decoders implement nothing here: they drive a Builder obtained from
// Target or ValueTarget. Encoders implement Builder and are driven by Walk
// or Replay.
type Builder interface {
	Null() error
	Bool(b bool) error
	Int(i int64) error
	Uint(u uint64) error
	// Float receives a float of the given bit size (32 or 64).
	Float(f float64, bitSize int) error
	// Number receives an unparsed numeric literal from a text format. The
	// receiver chooses the numeric type from the literal and destination.
	Number(lit string) error
	String(s string) error
	Array() (ArrayBuilder, error)
	Object() (ObjectBuilder, error)
	// Clear resets the destination after a failed decode. Encoders that
	// cannot retract output treat it as a no-op.
	Clear()
}

// ArrayBuilder receives array elements.
type ArrayBuilder interface {
	Elem() (Builder, error)
	End() error
}

// ObjectBuilder receives object members.
type ObjectBuilder interface {
	Key(k string) (Builder, error)
	End() error
}

// Discard is a Builder that accepts and drops every node.
var Discard Builder = discard{}

type discard struct{}

func (discard) Null() error { return nil }
func (discard) Bool(bool) error { return nil }
func (discard) Int(int64) error { return nil }
func (discard) Uint(uint64) error { return nil }
func (discard) Float(float64, int) error { return nil }
func (discard) Number(string) error { return nil }
func (discard) String(string) error { return nil }
func (discard) Array() (ArrayBuilder, error) { return discard{}, nil }
func (discard) Object() (ObjectBuilder, error) { return discard{}, nil }
func (discard) Clear() {}
func (discard) Elem() (Builder, error) { return discard{}, nil }
func (discard) Key(string) (Builder, error) { return discard{}, nil }
func (discard) End() error { return nil }
