package json

// DefaultMaxDepth is the nesting limit used when an options value leaves
// MaxDepth at zero.
const DefaultMaxDepth = 512

// ReadOptions configures decoding. The zero value is usable.
type ReadOptions struct {
	// MaxDepth limits array/object nesting. Zero means DefaultMaxDepth.
	MaxDepth int
	// AllowNonFinite accepts Infinity, -Infinity and NaN.
	AllowNonFinite bool

	depth int
}

// DefaultReadOptions returns the options used by Unmarshal.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{MaxDepth: DefaultMaxDepth}
}

// nested returns the options for the contents of one more container.
func (o ReadOptions) nested() ReadOptions {
	o.depth++
	return o
}

func (o ReadOptions) limit() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// WriteOptions configures encoding. The zero value writes compact output.
type WriteOptions struct {
	// Indent is the number of spaces per nesting level. Zero is compact.
	Indent int
	// MaxDepth limits array/object nesting. Zero means DefaultMaxDepth.
	MaxDepth int
	// ASCII escapes every non-ASCII character as \uXXXX.
	ASCII bool
	// AllowNonFinite writes Infinity, -Infinity and NaN instead of failing.
	AllowNonFinite bool

	depth int
}

// DefaultWriteOptions returns the options used by Marshal.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{MaxDepth: DefaultMaxDepth}
}

func (o WriteOptions) nested() WriteOptions {
	o.depth++
	return o
}

func (o WriteOptions) limit() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}
