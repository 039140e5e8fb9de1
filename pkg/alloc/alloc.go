// Package alloc defines the pluggable allocator abstraction the core
// treats as an external collaborator: a single Allocate/Free pair,
// modelled on the source library's global-allocator design (spec.md's
// Design Notes). In Go the tree nodes themselves stay ordinary garbage
// collected values; Allocator is exercised for scratch byte buffers, most
// visibly by the serdes encoder, so the abstraction stays real and
// testable instead of decorative.
package alloc

import "github.com/itreeclock/itc/pkg/itcerr"

// Allocator is the pluggable allocate/free pair. Implementations need not
// be thread-safe; callers serialize their own use the same way they must
// serialize mutation of a single Stamp (see stamp package docs).
type Allocator interface {
	// Allocate returns a zeroed buffer of exactly n bytes, or
	// itcerr.ErrInsufficientResources if it cannot.
	Allocate(n int) ([]byte, error)
	// Free releases a buffer previously returned by Allocate. Free must
	// tolerate nil and must tolerate being called more than once on
	// allocators where that is meaningful (the default allocator treats
	// Free as a no-op since Go is garbage collected).
	Free(buf []byte)
}

// Default is the allocator used when a caller does not supply one: it
// backs every request with a plain make([]byte, n) and leaves Free as a
// no-op, mirroring the teacher's pager.MemoryStorage default.
type Default struct{}

// NewDefault returns the default GC-backed allocator.
func NewDefault() Default { return Default{} }

func (Default) Allocate(n int) ([]byte, error) {
	if n < 0 {
		return nil, itcerr.New(itcerr.InvalidParam, "negative allocation size")
	}
	return make([]byte, n), nil
}

func (Default) Free([]byte) {}

// Bounded is a deterministic, test-only allocator that fails once total
// allocations exceed Limit bytes. It exists to exercise
// InsufficientResources paths in tests without relying on actually
// exhausting process memory, the same role the teacher's
// pager.MemoryStorage growth-failure tests play for the pager.
type Bounded struct {
	Limit int
	used  int
}

// NewBounded returns an allocator that rejects any Allocate call once the
// cumulative bytes handed out would exceed limit.
func NewBounded(limit int) *Bounded {
	return &Bounded{Limit: limit}
}

func (b *Bounded) Allocate(n int) ([]byte, error) {
	if n < 0 {
		return nil, itcerr.New(itcerr.InvalidParam, "negative allocation size")
	}
	if b.used+n > b.Limit {
		return nil, itcerr.Newf(itcerr.InsufficientResources, "bounded allocator: %d+%d exceeds limit %d", b.used, n, b.Limit)
	}
	b.used += n
	return make([]byte, n), nil
}

func (b *Bounded) Free(buf []byte) {
	if buf == nil {
		return
	}
	b.used -= len(buf)
	if b.used < 0 {
		b.used = 0
	}
}
