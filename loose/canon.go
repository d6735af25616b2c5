package loose

import (
	"fmt"
	"hash/fnv"

	"github.com/owacoder/skate-sub000/value"
)

// Canonical returns the canonical text of v: compact, keys in order, short
// keywords. Numbers keep their kind, so Int 1 and Float 1 differ.
func Canonical(v value.Value) string {
	return EmitWithOptions(v, CompactEmitOptions())
}

// Fingerprint returns an FNV-1a hash of the canonical representation.
// Useful for caching and deduplication; not cryptographic.
func Fingerprint(v value.Value) string {
	h := fnv.New64a()
	h.Write([]byte(Canonical(v)))
	return fmt.Sprintf("%016x", h.Sum64())
}
