// Package loose implements a tolerant text format for hand-written
// configuration, read into and written from value.Value.
//
//	// comments run to end of line
//	name = server-1
//	ports: [80 443]
//	tls = {cert: "/etc/cert.pem" verify: t}
//	ratio = Infinity
//
// Commas are optional, keys and values are separated by '=' or ':', and
// strings matching [A-Za-z_][A-Za-z0-9_\-./]* need no quotes. Quoted
// strings use the JSON escape set. The keywords null, none, nil and ∅
// mean null; t and f are short for true and false. Infinity, -Infinity
// and NaN are floats.
//
// An integer literal too large for int64 or uint64 is read as a float
// rather than rejected. Errors report line and column.
package loose
