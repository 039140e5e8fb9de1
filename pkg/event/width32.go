//go:build !counterwidth64

package event

// Counter is the backing type for an Event's per-node count, 32 bits by
// default (spec.md section 6). Build with -tags counterwidth64 to switch
// to a 64-bit counter for participants needing a wider history.
type Counter = uint32

// MaxCounter is the largest representable counter value for this build.
const MaxCounter Counter = 1<<32 - 1

// CounterByteWidth is the number of bytes a Counter occupies, the upper
// bound the serdes decoder enforces on a wire-format counter byte length.
const CounterByteWidth = 4
