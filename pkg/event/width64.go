//go:build counterwidth64

package event

// Counter is the backing type for an Event's per-node count. This build
// tag widens it to 64 bits.
type Counter = uint64

// MaxCounter is the largest representable counter value for this build.
const MaxCounter Counter = 1<<64 - 1

// CounterByteWidth is the number of bytes a Counter occupies, the upper
// bound the serdes decoder enforces on a wire-format counter byte length.
const CounterByteWidth = 8
