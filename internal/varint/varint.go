// Package varint provides the small big-endian integer helpers the
// serdes package uses for Id/Event/Stamp wire encoding: variable-width,
// most-significant-byte-first integers whose width is itself carried as
// a small count alongside the value, the same shape as the teacher's
// pkg/encoding varint helpers adapted from a LEB128 scheme to the
// fixed-width-big-endian scheme spec.md's wire format requires.
package varint

// ByteLen returns the minimum number of big-endian bytes needed to
// represent v, with 0 itself represented by zero bytes (the wire format
// treats a zero-length counter as an implicit zero, per spec.md section
// 4.4).
func ByteLen(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 8
	}
	return n
}

// Put writes v into buf as n big-endian bytes (n = ByteLen(v) or larger).
// buf must have at least n bytes available.
func Put(buf []byte, v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
}

// Get reads n big-endian bytes from buf and returns the decoded value.
// buf must have at least n bytes available.
func Get(buf []byte, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(buf[i])
	}
	return v
}
