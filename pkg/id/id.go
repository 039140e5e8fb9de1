// Package id implements the ID tree algebra of an Interval Tree Clock: a
// binary tree describing which fraction of the identity interval [0,1) a
// participant owns.
//
// An Id is either a leaf carrying a single ownership bit, or an interior
// node with exactly two children. Interior nodes never carry an ownership
// bit of their own — that invariant is enforced by this package's
// constructors, which never set the bit on an interior node, and by
// Owned, which reports false for any interior node, rather than checked
// at runtime (spec.md's own Design Notes prefer such a recursive
// representation over the source's parent-pointer bookkeeping).
//
// Every exported function treats its *Id arguments as immutable: Split,
// Sum and Normalize always return freshly allocated trees and never alias
// or mutate their inputs, so a caller can hold onto an Id after passing it
// to any of these without fear of it changing underneath them.
package id

import (
	"strings"

	"github.com/itreeclock/itc/pkg/itcerr"
)

// Id is a node in the ID tree. The zero value is not a valid Id; use
// Seed, Null or the output of Split/Sum/Clone.
type Id struct {
	leaf  bool
	owned bool // meaningful only when leaf is true

	left  *Id // meaningful only when leaf is false
	right *Id
}

func leaf(owned bool) *Id {
	return &Id{leaf: true, owned: owned}
}

func interior(l, r *Id) *Id {
	return &Id{left: l, right: r}
}

// Seed returns the full-ownership leaf, written `1`. A freshly created
// Stamp owns this Id.
func Seed() *Id { return leaf(true) }

// Null returns the no-ownership leaf, written `0`. A peek (read-only)
// Stamp carries this Id.
func Null() *Id { return leaf(false) }

// IsLeaf reports whether n is a leaf node.
func (n *Id) IsLeaf() bool { return n != nil && n.leaf }

// Owned reports the ownership bit of a leaf. It is meaningless (and
// returns false) for an interior node or nil.
func (n *Id) Owned() bool { return n != nil && n.leaf && n.owned }

// Left and Right expose an interior node's children. Both return nil for
// a leaf or nil receiver.
func (n *Id) Left() *Id {
	if n == nil || n.leaf {
		return nil
	}
	return n.left
}

func (n *Id) Right() *Id {
	if n == nil || n.leaf {
		return nil
	}
	return n.right
}

func isZero(n *Id) bool { return n.leaf && !n.owned }

// NewInterior builds an interior node directly from two already-built
// children, cloning both. Unlike Split and Sum, it does not verify that
// the children describe disjoint intervals — it exists as the low-level
// constructor the serdes package's decoder needs to rebuild a tree node
// by node from the wire format, where disjointness was already
// established by whoever originally produced the encoded bytes.
// Ordinary callers building new ids should use Seed, Null, Split and Sum
// instead.
func NewInterior(l, r *Id) (*Id, error) {
	if l == nil || r == nil {
		return nil, itcerr.New(itcerr.InvalidParam, "nil child passed to NewInterior")
	}
	return interior(Clone(l), Clone(r)), nil
}

// Clone returns a deep, independent copy of id.
func Clone(n *Id) *Id {
	if n == nil {
		return nil
	}
	if n.leaf {
		return leaf(n.owned)
	}
	return interior(Clone(n.left), Clone(n.right))
}

// Equal reports whether a and b have the same shape and ownership bits.
// It does not normalize first; callers comparing across different call
// sites typically want Equal(Normalize(a), Normalize(b)).
func Equal(a, b *Id) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.leaf != b.leaf {
		return false
	}
	if a.leaf {
		return a.owned == b.owned
	}
	return Equal(a.left, b.left) && Equal(a.right, b.right)
}

// Validate checks that id satisfies invariants 1-3 from spec.md section 3:
// every interior node has two non-nil children (invariant 2), and — tag
// bit aside, which is structurally guaranteed here — when normalized is
// true, no interior node may have two leaf children carrying the same
// ownership bit (invariant 3).
func Validate(n *Id, normalized bool) error {
	if n == nil {
		return itcerr.New(itcerr.InvalidParam, "nil id")
	}
	if err := validate(n, normalized); err != nil {
		return err
	}
	return nil
}

func validate(n *Id, normalized bool) error {
	if n.leaf {
		return nil
	}
	if n.left == nil || n.right == nil {
		return itcerr.New(itcerr.CorruptId, "interior node with a nil child")
	}
	if err := validate(n.left, normalized); err != nil {
		return err
	}
	if err := validate(n.right, normalized); err != nil {
		return err
	}
	if normalized && n.left.leaf && n.right.leaf && n.left.owned == n.right.owned {
		return itcerr.New(itcerr.CorruptId, "non-normalized (0,0) or (1,1) interior node")
	}
	return nil
}

// Normalize reduces id to canonical form: any interior node whose two
// children are leaves with equal ownership bits collapses to that leaf,
// applied bottom-up. Normalize is idempotent and never mutates id.
func Normalize(n *Id) (*Id, error) {
	if err := Validate(n, false); err != nil {
		return nil, err
	}
	return normalize(n), nil
}

func normalize(n *Id) *Id {
	if n.leaf {
		return leaf(n.owned)
	}
	l := normalize(n.left)
	r := normalize(n.right)
	if l.leaf && r.leaf && l.owned == r.owned {
		return leaf(l.owned)
	}
	return interior(l, r)
}

// Split partitions id's ownership interval into two disjoint halves whose
// Sum recombines (after normalization) to id. Split does not mutate id.
func Split(n *Id) (*Id, *Id, error) {
	if err := Validate(n, true); err != nil {
		return nil, nil, err
	}
	l, r := split(n)
	nl, err := Normalize(l)
	if err != nil {
		return nil, nil, err
	}
	nr, err := Normalize(r)
	if err != nil {
		return nil, nil, err
	}
	return nl, nr, nil
}

func split(n *Id) (*Id, *Id) {
	if n.leaf {
		if !n.owned {
			// split(0) = (0, 0)
			return Null(), Null()
		}
		// split(1) = ((1,0), (0,1))
		return interior(Seed(), Null()), interior(Null(), Seed())
	}

	switch {
	case isZero(n.left):
		// split((0, i)) = ((0, i1), (0, i2))
		i1, i2 := split(n.right)
		return interior(Null(), i1), interior(Null(), i2)
	case isZero(n.right):
		// split((i, 0)) = ((i1, 0), (i2, 0))
		i1, i2 := split(n.left)
		return interior(i1, Null()), interior(i2, Null())
	default:
		// split((i, j)) = ((i, 0), (0, j)), i and j both non-null
		return interior(Clone(n.left), Null()), interior(Null(), Clone(n.right))
	}
}

// Sum unions two disjoint ownership intervals. It fails with a CorruptId
// error if a and b claim any overlapping interval.
func Sum(a, b *Id) (*Id, error) {
	if err := Validate(a, true); err != nil {
		return nil, err
	}
	if err := Validate(b, true); err != nil {
		return nil, err
	}
	s, err := sum(a, b)
	if err != nil {
		return nil, err
	}
	return Normalize(s)
}

func sum(a, b *Id) (*Id, error) {
	if isZero(a) {
		return Clone(b), nil
	}
	if isZero(b) {
		return Clone(a), nil
	}
	if a.leaf || b.leaf {
		// One side is a non-zero leaf (owned = 1): since the other side
		// is also non-zero here, they necessarily claim an overlapping
		// interval.
		return nil, itcerr.New(itcerr.CorruptId, "overlapping id ownership")
	}
	l, err := sum(a.left, b.left)
	if err != nil {
		return nil, err
	}
	r, err := sum(a.right, b.right)
	if err != nil {
		return nil, err
	}
	return interior(l, r), nil
}

// String renders id in the compact notation used by spec.md's scenario
// tables: "0", "1", or "(left,right)".
func (n *Id) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.leaf {
		if n.owned {
			return "1"
		}
		return "0"
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(n.left.String())
	b.WriteByte(',')
	b.WriteString(n.right.String())
	b.WriteByte(')')
	return b.String()
}
